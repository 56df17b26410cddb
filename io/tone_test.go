package io

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBell_Tone(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	bell := &Bell{Output: out}

	bell.Tone(true)
	bell.Tone(false)
	bell.Tone(true)

	assert.Equal("\a\a", out.String())

	// No output configured is silent.
	(&Bell{}).Tone(true)
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestBell_WriteError(t *testing.T) {
	assert := assert.New(t)

	logged := &bytes.Buffer{}
	log.SetOutput(logged)
	defer log.SetOutput(os.Stderr)

	(&Bell{Output: failWriter{}}).Tone(true)
	assert.Empty(logged.String())

	(&Bell{Verbose: true, Output: failWriter{}}).Tone(true)
	assert.Contains(logged.String(), "bell: write failed")
}

func TestToneLog(t *testing.T) {
	assert := assert.New(t)

	tl := &ToneLog{}
	assert.False(tl.On())

	tl.Tone(true)
	assert.True(tl.On())

	tl.Tone(false)
	assert.False(tl.On())
	assert.Equal([]bool{true, false}, tl.Transitions)

	tl.Reset()
	assert.Nil(tl.Transitions)
}
