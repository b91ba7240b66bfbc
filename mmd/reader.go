package mmd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// binReader is a sequential little-endian cursor over an io.Reader.
// The first read error sticks; subsequent reads are no-ops returning zero
// values, so parsers can decode a whole record and check err once.
type binReader struct {
	r   io.Reader
	err error
}

func (p *binReader) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *binReader) read(v interface{}) {
	if p.err != nil {
		return
	}
	if err := binary.Read(p.r, binary.LittleEndian, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		p.err = err
	}
}

func (p *binReader) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *binReader) readUint16() uint16 {
	var v uint16
	p.read(&v)
	return v
}

func (p *binReader) readUint32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

func (p *binReader) readInt() int {
	var v int32
	p.read(&v)
	return int(v)
}

// readCount reads a signed 32-bit element count and rejects negative values.
func (p *binReader) readCount() int {
	n := p.readInt()
	if n < 0 && p.err == nil {
		p.fail(fmt.Errorf("%w: negative count %d", ErrFormat, n))
		return 0
	}
	return n
}

func (p *binReader) readFloat() float32 {
	var v float32
	p.read(&v)
	return v
}

// readVInt reads a signed index of 1, 2 or 4 bytes, sign-extended.
// Used for texture/material/bone/morph/rigid-body indices (-1 = none).
func (p *binReader) readVInt(sz byte) int {
	switch sz {
	case 1:
		var v int8
		p.read(&v)
		return int(v)
	case 2:
		var v int16
		p.read(&v)
		return int(v)
	case 4:
		var v int32
		p.read(&v)
		return int(v)
	}
	p.fail(fmt.Errorf("%w: index size %d", ErrFormat, sz))
	return 0
}

// readVUInt reads a vertex index. 1- and 2-byte indices are unsigned, but
// the 4-byte form is signed, as written by every known PMX exporter.
func (p *binReader) readVUInt(sz byte) int {
	switch sz {
	case 1:
		var v uint8
		p.read(&v)
		return int(v)
	case 2:
		var v uint16
		p.read(&v)
		return int(v)
	case 4:
		var v int32
		p.read(&v)
		return int(v)
	}
	p.fail(fmt.Errorf("%w: index size %d", ErrFormat, sz))
	return 0
}
