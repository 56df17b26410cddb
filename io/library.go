package io

import (
	"fmt"
	"io/fs"
	"iter"
	"path"
	"regexp"
	"sort"
)

var romPattern = regexp.MustCompile(`(?i)\.(ch8|c8)$`)

// Library is a catalog of program images spread over one or more
// file systems. Files named *.ch8 or *.c8 are considered images.
type Library struct {
	Roots []fs.FS
}

// romsOf yields the image paths under a single root, in lexical order.
func romsOf(filesys fs.FS) iter.Seq2[string, fs.FS] {
	return func(yield func(name string, filesys fs.FS) bool) {
		var names []string
		_ = fs.WalkDir(filesys, ".", func(name string, d fs.DirEntry, err_in error) (err error) {
			if err_in != nil {
				// Unreadable entries are not part of the catalog.
				return
			}
			if d.IsDir() || !romPattern.MatchString(d.Name()) {
				return
			}
			names = append(names, name)
			return
		})

		sort.Strings(names)
		for _, name := range names {
			if !yield(name, filesys) {
				return
			}
		}
	}
}

// All returns an iterator of every image path and the root it was found in.
func (lib *Library) All() iter.Seq2[string, fs.FS] {
	return func(yield func(name string, filesys fs.FS) bool) {
		for _, root := range lib.Roots {
			for name, filesys := range romsOf(root) {
				if !yield(name, filesys) {
					return
				}
			}
		}
	}
}

// Open reads the first image whose path, or base name, matches name.
func (lib *Library) Open(name string) (data []byte, err error) {
	for rom, filesys := range lib.All() {
		if rom != name && path.Base(rom) != name {
			continue
		}

		var file fs.File
		file, err = filesys.Open(rom)
		if err != nil {
			return
		}
		defer file.Close()

		data, err = ReadRom(file)
		if err != nil {
			err = fmt.Errorf("%v: %w", rom, err)
		}
		return
	}

	err = fmt.Errorf("%w: %v", ErrRomMissing, name)
	return
}
