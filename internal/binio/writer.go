// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"encoding/binary"
	"io"
)

// Writer encodes little-endian fields to an underlying io.Writer.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Err() error {
	return w.err
}

// N returns the number of bytes successfully written so far.
func (w *Writer) N() int64 {
	return w.n
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	_, _ = w.Write(w.buf[:2])
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	_, _ = w.Write(w.buf[:4])
}

func (w *Writer) Bytes(p []byte) {
	if len(p) == 0 {
		return
	}
	_, _ = w.Write(p)
}
