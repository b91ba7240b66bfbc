package mmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestReadTextUTF8(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(6))
	buf.WriteString("センタ"[:6])

	p := &binReader{r: buf}
	if got := p.readText(TextEncodingUTF8); got != "セン" || p.err != nil {
		t.Errorf("readText = %q, %v", got, p.err)
	}
}

func TestReadTextUTF16(t *testing.T) {
	// "日本" as UTF-16LE
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(4))
	binary.Write(buf, binary.LittleEndian, []uint16{0x65e5, 0x672c})

	p := &binReader{r: buf}
	if got := p.readText(TextEncodingUTF16); got != "日本" || p.err != nil {
		t.Errorf("readText = %q, %v", got, p.err)
	}
}

func TestReadTextUTF16SurrogatePair(t *testing.T) {
	// U+1F600 = D83D DE00
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(4))
	binary.Write(buf, binary.LittleEndian, []uint16{0xd83d, 0xde00})

	p := &binReader{r: buf}
	if got := p.readText(TextEncodingUTF16); got != "\U0001F600" || p.err != nil {
		t.Errorf("readText = %q, %v", got, p.err)
	}
}

func TestReadTextUTF16UnpairedSurrogate(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(4))
	binary.Write(buf, binary.LittleEndian, []uint16{0xd83d, 0x0041})

	p := &binReader{r: buf}
	p.readText(TextEncodingUTF16)
	if !errors.Is(p.err, ErrEncoding) {
		t.Errorf("err = %v; want ErrEncoding", p.err)
	}

	buf = new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(2))
	binary.Write(buf, binary.LittleEndian, []uint16{0xdc00})

	p = &binReader{r: buf}
	p.readText(TextEncodingUTF16)
	if !errors.Is(p.err, ErrEncoding) {
		t.Errorf("err = %v; want ErrEncoding", p.err)
	}
}

func TestReadTextUTF16OddLength(t *testing.T) {
	// An odd byte length still reads a whole trailing code unit.
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(3))
	binary.Write(buf, binary.LittleEndian, []uint16{0x0041, 0x0042})
	buf.WriteByte(0x7f) // next field

	p := &binReader{r: buf}
	if got := p.readText(TextEncodingUTF16); got != "AB" || p.err != nil {
		t.Errorf("readText = %q, %v", got, p.err)
	}
	if got := p.readUint8(); got != 0x7f || p.err != nil {
		t.Errorf("cursor after odd-length text = %d, %v; want 0x7f", got, p.err)
	}
}

func TestReadTextEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(0))

	p := &binReader{r: buf}
	if got := p.readText(TextEncodingUTF16); got != "" || p.err != nil {
		t.Errorf("readText = %q, %v; want empty", got, p.err)
	}
}

func TestReadTextTruncated(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(10))
	buf.WriteString("abc")

	p := &binReader{r: buf}
	p.readText(TextEncodingUTF8)
	if !errors.Is(p.err, ErrTruncated) {
		t.Errorf("err = %v; want ErrTruncated", p.err)
	}
}
