package io

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Keymap maps host keys, as lower case runes, to keypad indices.
type Keymap map[rune]uint8

// DefaultKeymap lays the hex keypad over the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
func DefaultKeymap() Keymap {
	return Keymap{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
		'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
	}
}

// ParseKeymap builds a keymap from host key names to hex key digits,
// such as {"q": "4"}. Each host key must be a single character.
func ParseKeymap(table map[string]string) (km Keymap, err error) {
	km = Keymap{}
	for host, pad := range table {
		r, size := utf8.DecodeRuneInString(host)
		if r == utf8.RuneError || size != len(host) {
			err = fmt.Errorf("%w: host key %q", ErrKeymap, host)
			return
		}
		var key uint64
		key, err = strconv.ParseUint(pad, 16, 4)
		if err != nil {
			err = fmt.Errorf("%w: %q = %q", ErrKeymap, host, pad)
			return
		}
		km[unicode.ToLower(r)] = uint8(key)
	}

	return
}

// Lookup returns the keypad index for a host key. Case is ignored.
func (km Keymap) Lookup(r rune) (key uint8, ok bool) {
	key, ok = km[unicode.ToLower(r)]
	return
}
