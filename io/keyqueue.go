package io

import (
	"sync"
)

// KEY_QUEUE_CAPACITY is the default capacity of a KeyQueue.
const KEY_QUEUE_CAPACITY = 64

// KeyEvent is a single keypad transition.
type KeyEvent struct {
	Key     uint8
	Pressed bool
}

// KeyQueue is a bounded FIFO of key events, written by host input
// collectors and drained by the emulator between instruction steps.
// It is safe for concurrent use.
type KeyQueue struct {
	Capacity int // Capacity in events, KEY_QUEUE_CAPACITY if zero.

	mutex      sync.Mutex
	readIndex  int
	writeIndex int
	size       int
	data       []KeyEvent
}

// Rewind discards all queued events.
func (kq *KeyQueue) Rewind() {
	kq.mutex.Lock()
	defer kq.mutex.Unlock()

	kq.rewind()
}

func (kq *KeyQueue) rewind() {
	if kq.Capacity == 0 {
		kq.Capacity = KEY_QUEUE_CAPACITY
	}
	kq.readIndex = 0
	kq.writeIndex = 0
	kq.size = 0
	kq.data = make([]KeyEvent, kq.Capacity)
}

// Send queues an event. Returns ErrChannelFull when at capacity.
func (kq *KeyQueue) Send(event KeyEvent) (err error) {
	kq.mutex.Lock()
	defer kq.mutex.Unlock()

	if kq.data == nil {
		kq.rewind()
	}

	if kq.size >= kq.Capacity {
		err = ErrChannelFull
		return
	}

	kq.data[kq.writeIndex] = event
	kq.writeIndex++
	if kq.writeIndex == kq.Capacity {
		kq.writeIndex = 0
	}
	kq.size++

	return
}

// Receive removes the oldest event, if any.
func (kq *KeyQueue) Receive() (event KeyEvent, ok bool) {
	kq.mutex.Lock()
	defer kq.mutex.Unlock()

	if kq.size == 0 {
		return
	}

	event = kq.data[kq.readIndex]
	kq.readIndex++
	if kq.readIndex == kq.Capacity {
		kq.readIndex = 0
	}
	kq.size--
	ok = true

	return
}

// Len returns the number of queued events.
func (kq *KeyQueue) Len() int {
	kq.mutex.Lock()
	defer kq.mutex.Unlock()

	return kq.size
}
