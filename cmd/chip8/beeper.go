//go:build !headless

package main

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	BEEPER_SAMPLE_RATE = 44100
	BEEPER_PITCH       = 440  // Hz
	BEEPER_AMPLITUDE   = 6000 // of 32767
)

// beeper is a square wave speaker.
type beeper struct {
	ctx    *oto.Context
	player *oto.Player
	on     atomic.Bool
	phase  int
}

func newBeeper() (bp *beeper, err error) {
	opts := &oto.NewContextOptions{
		SampleRate:   BEEPER_SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return
	}
	<-ready

	bp = &beeper{ctx: ctx}
	bp.player = ctx.NewPlayer(bp)
	bp.player.Play()

	return
}

// Tone starts or stops the square wave.
func (bp *beeper) Tone(on bool) {
	bp.on.Store(on)
}

// Read fills p with 16-bit mono samples.
func (bp *beeper) Read(p []byte) (n int, err error) {
	const halfPeriod = BEEPER_SAMPLE_RATE / BEEPER_PITCH / 2

	on := bp.on.Load()
	for n = 0; n+2 <= len(p); n += 2 {
		var sample int16
		if on {
			sample = BEEPER_AMPLITUDE
			if (bp.phase/halfPeriod)&1 == 1 {
				sample = -BEEPER_AMPLITUDE
			}
		}
		bp.phase = (bp.phase + 1) % (2 * halfPeriod)
		binary.LittleEndian.PutUint16(p[n:], uint16(sample))
	}

	return
}

func (bp *beeper) Close() error {
	return bp.player.Close()
}
