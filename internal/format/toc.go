// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import (
	"fmt"
	"io"

	"github.com/bpowers/pri/internal/binio"
)

// offset of the (SectionOffset, SectionLength) pair inside a TocEntry
const tocEntryPatchOffset = 24

// TocEntry locates one section.  SectionOffset is relative to the header's
// SectionStartOffset.
type TocEntry struct {
	Identifier    [16]byte
	Flags         uint16
	SectionFlags  uint16
	Qualifier     uint32
	SectionOffset uint32
	SectionLength uint32
}

// TocPatchOffset returns the absolute position of entry i's offset and
// length fields in a file laid out by a writer.
func TocPatchOffset(i int) int64 {
	return TocOffset + TocEntrySize*int64(i) + tocEntryPatchOffset
}

func readTocEntry(br *binio.Reader) TocEntry {
	var e TocEntry
	br.Full(e.Identifier[:])
	e.Flags = br.U16()
	e.SectionFlags = br.U16()
	e.Qualifier = br.U32()
	e.SectionOffset = br.U32()
	e.SectionLength = br.U32()
	return e
}

// ReadToc decodes n contiguous entries from r.
func ReadToc(r io.Reader, n int) ([]TocEntry, error) {
	br := binio.NewReader(r)
	toc := make([]TocEntry, 0, n)
	for i := 0; i < n; i++ {
		e := readTocEntry(br)
		if err := br.Err(); err != nil {
			return nil, fmt.Errorf("read TOC entry %d: %w", i, err)
		}
		toc = append(toc, e)
	}
	return toc, nil
}

func (e *TocEntry) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)
	bw.Bytes(e.Identifier[:])
	bw.U16(e.Flags)
	bw.U16(e.SectionFlags)
	bw.U32(e.Qualifier)
	bw.U32(e.SectionOffset)
	bw.U32(e.SectionLength)
	if err := bw.Err(); err != nil {
		return bw.N(), fmt.Errorf("write TOC entry: %w", err)
	}
	return bw.N(), nil
}
