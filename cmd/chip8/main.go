// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdio "io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path"
	"strings"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/script"
	"github.com/ezrec/chip8/translate"
)

var (
	errNoWindow   = errors.New(translate.From("windowed frontend not built"))
	errNoTerminal = errors.New(translate.From("standard input is not a terminal"))
)

// listRoms writes every ROM in the library, one per line.
func listRoms(w stdio.Writer, lib *io.Library) (err error) {
	for name := range lib.All() {
		_, err = fmt.Fprintln(w, name)
		if err != nil {
			return
		}
	}

	return
}

// loadConfig reads the TOML file at filename, or returns the defaults
// if filename is empty.
func loadConfig(filename string) (cfg emulator.Config, err error) {
	if len(filename) == 0 {
		cfg = emulator.DefaultConfig()
		return
	}

	inf, err := os.Open(filename)
	if err != nil {
		return
	}
	defer inf.Close()

	cfg, err = emulator.LoadConfig(inf)
	return
}

// loadRom reads a program image from the library when one is given,
// or else from the named file.
func loadRom(name string, lib *io.Library) (image []byte, err error) {
	if lib != nil {
		image, err = lib.Open(name)
		return
	}

	inf, err := os.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	image, err = io.ReadRom(inf)
	return
}

// assemble parses a .asm source file.
func assemble(name string, verbose bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	prog, err = asm.Parse(inf)
	return
}

// disassemble writes a listing of a program image.
func disassemble(w stdio.Writer, image []byte) (err error) {
	for addr, inst := range cpu.Disassemble(image) {
		_, err = fmt.Fprintf(w, "%03X: %04X  %v\n", addr, uint16(inst.Code), inst)
		if err != nil {
			return
		}
	}

	return
}

func main() {
	var config string
	var starfile string
	var clock int
	var terminal bool
	var library string
	var verbose bool
	var listing bool

	flag.StringVar(&config, "c", "", ".toml configuration file")
	flag.StringVar(&starfile, "s", "", ".star script to run headless")
	flag.IntVar(&clock, "clock", 0, "Instructions per second (overrides configuration)")
	flag.BoolVar(&terminal, "t", false, "Use the terminal frontend")
	flag.StringVar(&library, "l", "", "ROM library directory; lists it when no ROM is named")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&listing, "d", false, "Disassemble the ROM, do not execute")

	flag.Parse()

	var lib *io.Library
	if len(library) != 0 {
		lib = &io.Library{Roots: []fs.FS{os.DirFS(library)}}
		if flag.NArg() == 0 {
			err := listRoms(os.Stdout, lib)
			if err != nil {
				log.Fatalf("%v: %v", library, err)
			}
			return
		}
	}

	if flag.NArg() != 1 {
		log.Fatalf("%v: expected one ROM, got: %v", os.Args[0], flag.Args())
	}
	rom := flag.Arg(0)

	cfg, err := loadConfig(config)
	if err != nil {
		log.Fatalf("%v: %v", config, err)
	}
	if clock != 0 {
		cfg.ClockHz = clock
	}
	if verbose {
		cfg.Verbose = true
	}
	err = cfg.Validate()
	if err != nil {
		log.Fatal(err)
	}

	keymap, err := cfg.Keymap()
	if err != nil {
		log.Fatal(err)
	}

	var prog *cpu.Program
	var image []byte
	if strings.EqualFold(path.Ext(rom), ".asm") {
		prog, err = assemble(rom, cfg.Verbose)
		if err == nil {
			image = prog.Binary()
		}
	} else {
		image, err = loadRom(rom, lib)
	}
	if err != nil {
		log.Fatalf("%v: %v", rom, err)
	}

	if listing {
		err = disassemble(os.Stdout, image)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	emu := emulator.NewEmulator(cfg)
	if prog != nil {
		err = emu.LoadProgram(prog)
	} else {
		err = emu.Load(image)
	}
	if err != nil {
		log.Fatalf("%v: %v", rom, err)
	}

	if len(starfile) != 0 {
		err = script.Run(emu, starfile, nil)
		if err != nil {
			log.Fatalf("%v: %v", starfile, err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !terminal {
		err = runWindow(ctx, emu, keymap)
		if errors.Is(err, errNoWindow) {
			terminal = true
		}
	}
	if terminal {
		err = runTerminal(ctx, emu, keymap)
	}

	if err != nil {
		if emulator.IsFault(err) {
			log.Fatalf("%v: %v\n%v", rom, err, emu.Machine)
		}
		log.Fatalf("%v: %v", rom, err)
	}
}
