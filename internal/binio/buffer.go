// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"errors"
	"io"
)

var errNegativeOffset = errors.New("binio: negative offset")

// Buffer is an in-memory, growable io.ReadWriteSeeker.  Writing past the
// end extends the buffer; seeking past the end and writing fills the gap
// with zeroes, like a sparse file.
type Buffer struct {
	buf []byte
	off int64
}

func NewBuffer(initial []byte) *Buffer {
	return &Buffer{buf: initial}
}

// Bytes returns the buffer contents.  The slice aliases the buffer until
// the next write.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

func (b *Buffer) Write(p []byte) (int, error) {
	n, err := b.WriteAt(p, b.off)
	b.off += int64(n)
	return n, err
}

func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	end := int(off) + len(p)
	if end > len(b.buf) {
		if end > cap(b.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:end]
		}
	}
	return copy(b.buf[off:end], p), nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.ReadAt(p, b.off)
	b.off += int64(n)
	return n, err
}

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("binio: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	b.off = abs
	return abs, nil
}

var (
	_ io.ReadWriteSeeker = &Buffer{}
	_ io.WriterAt        = &Buffer{}
	_ io.ReaderAt        = &Buffer{}
)
