package io

import (
	"fmt"
	"io"
)

// MAX_ROM_SIZE is the largest program image that fits above the
// interpreter area, 4096 - 0x200 bytes.
const MAX_ROM_SIZE = 4096 - 0x200

// ReadRom reads a raw program image. Images longer than MAX_ROM_SIZE
// return ErrRomSize.
func ReadRom(r io.Reader) (data []byte, err error) {
	data, err = io.ReadAll(io.LimitReader(r, MAX_ROM_SIZE+1))
	if err != nil {
		return
	}

	if len(data) > MAX_ROM_SIZE {
		data = nil
		err = fmt.Errorf("%w: more than %d bytes", ErrRomSize, MAX_ROM_SIZE)
		return
	}

	return
}
