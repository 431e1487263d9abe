// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import (
	"fmt"
	"io"

	"github.com/bpowers/pri/internal/binio"
)

const (
	SectionHeaderSize = 32
	SectionFooterSize = 8

	// SectionOverhead is the envelope size around every payload.
	SectionOverhead = SectionHeaderSize + SectionFooterSize

	SectionFooterMarker = 0xdef5fade

	// SectionLengthBackOffset is how far before the payload start the
	// section length field sits in the envelope header.
	SectionLengthBackOffset = 8

	offSectionLength   = 24
	offSectionReserved = 28
)

type SectionHeader struct {
	Identifier    [16]byte
	Qualifier     uint32
	Flags         uint16
	SectionFlags  uint16
	SectionLength uint32
}

// ReadSectionHeader decodes the 32-byte envelope header; off is the
// section's absolute position and is only used for error reporting.
func ReadSectionHeader(r io.Reader, off int64) (SectionHeader, error) {
	var h SectionHeader
	br := binio.NewReader(r)
	br.Full(h.Identifier[:])
	h.Qualifier = br.U32()
	h.Flags = br.U16()
	h.SectionFlags = br.U16()
	h.SectionLength = br.U32()
	reserved := br.U32()
	if err := br.Err(); err != nil {
		return h, fmt.Errorf("read section header: %w", err)
	}
	if err := expect(ErrReservedField, "section reserved field", off+offSectionReserved, uint64(reserved), 0); err != nil {
		return h, err
	}
	if h.SectionLength < SectionOverhead {
		return h, &FormatError{
			Field:  "section length",
			Offset: off + offSectionLength,
			Got:    uint64(h.SectionLength),
			Want:   SectionOverhead,
			Err:    ErrSectionLength,
		}
	}
	return h, nil
}

// PayloadLength is the number of payload bytes between the envelope header
// and footer.
func (h *SectionHeader) PayloadLength() uint32 {
	return h.SectionLength - SectionOverhead
}

func (h *SectionHeader) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)
	bw.Bytes(h.Identifier[:])
	bw.U32(h.Qualifier)
	bw.U16(h.Flags)
	bw.U16(h.SectionFlags)
	bw.U32(h.SectionLength)
	bw.U32(0)
	if err := bw.Err(); err != nil {
		return bw.N(), fmt.Errorf("write section header: %w", err)
	}
	return bw.N(), nil
}

type SectionFooter struct {
	SectionLength uint32
}

// ReadSectionFooter decodes the 8-byte envelope footer at absolute offset
// off and checks it against the envelope header.
func ReadSectionFooter(r io.Reader, off int64, h *SectionHeader) (SectionFooter, error) {
	var f SectionFooter
	br := binio.NewReader(r)
	marker := br.U32()
	f.SectionLength = br.U32()
	if err := br.Err(); err != nil {
		return f, fmt.Errorf("read section footer: %w", err)
	}
	if err := expect(ErrFooterMismatch, "section footer marker", off, uint64(marker), SectionFooterMarker); err != nil {
		return f, err
	}
	if err := expect(ErrSectionLength, "section footer length", off+4, uint64(f.SectionLength), uint64(h.SectionLength)); err != nil {
		return f, err
	}
	return f, nil
}

func (f *SectionFooter) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)
	bw.U32(SectionFooterMarker)
	bw.U32(f.SectionLength)
	if err := bw.Err(); err != nil {
		return bw.N(), fmt.Errorf("write section footer: %w", err)
	}
	return bw.N(), nil
}
