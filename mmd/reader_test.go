package mmd

import (
	"bytes"
	"errors"
	"testing"
)

func newTestReader(data []byte) *binReader {
	return &binReader{r: bytes.NewReader(data)}
}

func TestReadVUInt(t *testing.T) {
	// 1- and 2-byte vertex indices are unsigned: 255 is a valid index.
	p := newTestReader([]byte{0xff})
	if got := p.readVUInt(1); got != 255 || p.err != nil {
		t.Errorf("readVUInt(1) = %d, %v; want 255", got, p.err)
	}

	p = newTestReader([]byte{0xff, 0xff})
	if got := p.readVUInt(2); got != 65535 || p.err != nil {
		t.Errorf("readVUInt(2) = %d, %v; want 65535", got, p.err)
	}

	// The 4-byte form is signed: -1 stays -1.
	p = newTestReader([]byte{0xff, 0xff, 0xff, 0xff})
	if got := p.readVUInt(4); got != -1 || p.err != nil {
		t.Errorf("readVUInt(4) = %d, %v; want -1", got, p.err)
	}
}

func TestReadVInt(t *testing.T) {
	p := newTestReader([]byte{0xff})
	if got := p.readVInt(1); got != -1 {
		t.Errorf("readVInt(1) = %d; want -1", got)
	}

	p = newTestReader([]byte{0xfe, 0xff})
	if got := p.readVInt(2); got != -2 {
		t.Errorf("readVInt(2) = %d; want -2", got)
	}

	p = newTestReader([]byte{0x2a, 0x00, 0x00, 0x00})
	if got := p.readVInt(4); got != 42 {
		t.Errorf("readVInt(4) = %d; want 42", got)
	}
}

func TestReadVIntBadSize(t *testing.T) {
	p := newTestReader([]byte{1, 2, 3})
	p.readVInt(3)
	if !errors.Is(p.err, ErrFormat) {
		t.Errorf("err = %v; want ErrFormat", p.err)
	}

	p = newTestReader([]byte{1, 2, 3})
	p.readVUInt(0)
	if !errors.Is(p.err, ErrFormat) {
		t.Errorf("err = %v; want ErrFormat", p.err)
	}
}

func TestReadTruncated(t *testing.T) {
	p := newTestReader([]byte{1, 2})
	p.readFloat()
	if !errors.Is(p.err, ErrTruncated) {
		t.Errorf("err = %v; want ErrTruncated", p.err)
	}

	// The error sticks; later reads stay zero.
	if got := p.readUint16(); got != 0 {
		t.Errorf("read after error = %d; want 0", got)
	}
}

func TestReadCountNegative(t *testing.T) {
	p := newTestReader([]byte{0xff, 0xff, 0xff, 0xff})
	p.readCount()
	if !errors.Is(p.err, ErrFormat) {
		t.Errorf("err = %v; want ErrFormat", p.err)
	}
}
