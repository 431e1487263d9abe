// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"encoding/binary"
	"io"
)

// Reader decodes little-endian fields from an underlying io.Reader.
type Reader struct {
	r   io.Reader
	n   int64
	err error
	buf [8]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered, with io.EOF in the middle of a
// field reported as io.ErrUnexpectedEOF.
func (r *Reader) Err() error {
	return r.err
}

// N returns the number of bytes consumed so far.
func (r *Reader) N() int64 {
	return r.n
}

func (r *Reader) fill(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	return true
}

func (r *Reader) U16() uint16 {
	if !r.fill(r.buf[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

func (r *Reader) U32() uint32 {
	if !r.fill(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// Full reads exactly len(p) bytes into p.
func (r *Reader) Full(p []byte) {
	r.fill(p)
}

// Bytes reads n bytes into a newly allocated slice.  Zero-length reads
// return nil.
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil || n == 0 {
		return nil
	}
	p := make([]byte, n)
	if !r.fill(p) {
		return nil
	}
	return p
}
