package mmd

import (
	"fmt"
	"unicode/utf16"
)

// PMX text encodings, declared once in the file header.
const (
	TextEncodingUTF16 byte = 0
	TextEncodingUTF8  byte = 1
)

// readText reads a length-prefixed string. The 4-byte prefix is a byte
// count, not a character count. UTF-16 text with an odd byte length reads
// one extra trailing byte to complete the last code unit.
func (p *binReader) readText(encoding byte) string {
	n := p.readInt()
	if p.err != nil {
		return ""
	}
	if n < 0 {
		p.fail(fmt.Errorf("%w: negative text length %d", ErrFormat, n))
		return ""
	}
	if n == 0 {
		return ""
	}
	if encoding == TextEncodingUTF16 {
		units := make([]uint16, (n+1)/2)
		p.read(&units)
		if p.err != nil {
			return ""
		}
		if err := checkSurrogates(units); err != nil {
			p.fail(err)
			return ""
		}
		return string(utf16.Decode(units))
	}
	data := make([]byte, n)
	p.read(&data)
	return string(data)
}

// checkSurrogates rejects unpaired UTF-16 surrogates. utf16.Decode would
// silently substitute U+FFFD for them, which hides corrupt files.
func checkSurrogates(units []uint16) error {
	for i := 0; i < len(units); i++ {
		c := units[i]
		switch {
		case c >= 0xd800 && c < 0xdc00:
			if i+1 >= len(units) || units[i+1] < 0xdc00 || units[i+1] >= 0xe000 {
				return fmt.Errorf("%w: unpaired high surrogate at %d", ErrEncoding, i)
			}
			i++
		case c >= 0xdc00 && c < 0xe000:
			return fmt.Errorf("%w: unpaired low surrogate at %d", ErrEncoding, i)
		}
	}
	return nil
}
