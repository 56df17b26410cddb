package io

import (
	"io"
	"log"
	"sync"
)

// Bell rings the terminal bell when the tone starts.
// Write errors are not fatal to the machine; they are logged when Verbose.
type Bell struct {
	Verbose bool
	Output  io.Writer
}

var _ Speaker = (*Bell)(nil)

func (bell *Bell) Tone(on bool) {
	if !on || bell.Output == nil {
		return
	}

	_, err := bell.Output.Write([]byte{'\a'})
	if err != nil && bell.Verbose {
		log.Printf("bell: %v", err)
	}
}

// ToneLog records tone transitions, oldest first.
type ToneLog struct {
	mutex       sync.Mutex
	Transitions []bool
}

var _ Speaker = (*ToneLog)(nil)

func (tl *ToneLog) Tone(on bool) {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.Transitions = append(tl.Transitions, on)
}

// Reset forgets all recorded transitions.
func (tl *ToneLog) Reset() {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	tl.Transitions = nil
}

// On returns true if the last transition turned the tone on.
func (tl *ToneLog) On() bool {
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	return len(tl.Transitions) > 0 && tl.Transitions[len(tl.Transitions)-1]
}
