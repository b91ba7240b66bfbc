// Package mmd reads MikuMikuDance model (.pmx) and motion (.vmd) files.
//
// Both loaders follow the same convention: a byte stream whose signature
// (or version) does not match the format yields a nil document and a nil
// error, so callers can try another decoder. Structural problems such as
// truncated input, an unknown discriminant byte, or malformed UTF-16 text
// abort the load with an error and never return a partial document.
package mmd

import (
	"bufio"
	"errors"
	"io"
	"os"
)

var (
	// ErrTruncated is returned when the stream ends before a field is complete.
	ErrTruncated = errors.New("mmd: truncated input")
	// ErrFormat is returned for a discriminant or size selector outside its known set.
	ErrFormat = errors.New("mmd: invalid format")
	// ErrEncoding is returned for malformed UTF-16 text.
	ErrEncoding = errors.New("mmd: invalid text encoding")
)

// ParseModel reads a PMX 2.0 model. Returns (nil, nil) if the stream is not
// a PMX 2.0 file.
func ParseModel(r io.Reader) (*Document, error) {
	return NewPMXParser(r).Parse()
}

// LoadModel reads a PMX 2.0 model from a file.
func LoadModel(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseModel(bufio.NewReader(f))
}

// ParseAnimation reads a VMD motion. Returns (nil, nil) if the stream is not
// a VMD file.
func ParseAnimation(r io.Reader) (*Animation, error) {
	return NewVMDParser(r).Parse()
}

// LoadAnimation reads a VMD motion from a file.
func LoadAnimation(path string) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAnimation(bufio.NewReader(f))
}
