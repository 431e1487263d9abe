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
	HeaderSize   = 32
	FooterSize   = 16
	TocEntrySize = 32

	// TocOffset is where writers place the TOC, directly after the header.
	// Readers follow the header's toc_offset field instead; some writers
	// declare 30 there while still emitting the TOC at 32.
	TocOffset = HeaderSize

	// TotalFileSizeOffset is the header field patched once the file is complete.
	TotalFileSizeOffset  = 12
	TocOffsetFieldOffset = 16

	FileFooterMarker = 0xdefffade

	headerReserved0   = 0
	headerReserved1   = 1
	headerSentinel    = 0xffff
	headerReservedEnd = 0

	// MaxSections is the largest section count the u16 header field can hold.
	MaxSections = 1<<16 - 1
)

// header field offsets, for error reporting
const (
	offReserved0     = 8
	offReserved1     = 10
	offSentinel      = 26
	offReservedEnd   = 28
	offFooterSize    = 4
	offFooterVersion = 8
)

type FileHeader struct {
	Version            Version
	TotalFileSize      uint32
	TocOffset          uint32
	SectionStartOffset uint32
	NumSections        uint16
}

// NewFileHeader returns the header a writer emits for n sections, with
// TotalFileSize left as a zero placeholder.
func NewFileHeader(v Version, n int) FileHeader {
	return FileHeader{
		Version:            v,
		TocOffset:          TocOffset,
		SectionStartOffset: SectionStartOffset(n),
		NumSections:        uint16(n),
	}
}

// SectionStartOffset is where the first section begins for a file with n
// sections laid out by a writer.
func SectionStartOffset(n int) uint32 {
	return uint32(TocOffset + TocEntrySize*n)
}

// ReadFileHeader decodes and validates the 32-byte header at the start of r.
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	var h FileHeader
	br := binio.NewReader(r)

	var magic [8]byte
	br.Full(magic[:])
	if err := br.Err(); err != nil {
		return h, fmt.Errorf("read version magic: %w", err)
	}
	v, err := ParseVersion(magic[:])
	if err != nil {
		return h, err
	}
	h.Version = v

	reserved0 := br.U16()
	reserved1 := br.U16()
	h.TotalFileSize = br.U32()
	h.TocOffset = br.U32()
	h.SectionStartOffset = br.U32()
	h.NumSections = br.U16()
	sentinel := br.U16()
	reservedEnd := br.U32()
	if err := br.Err(); err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}

	if err := expect(ErrReservedField, "header reserved field", offReserved0, uint64(reserved0), headerReserved0); err != nil {
		return h, err
	}
	if err := expect(ErrReservedField, "header reserved field", offReserved1, uint64(reserved1), headerReserved1); err != nil {
		return h, err
	}
	if err := expect(ErrReservedField, "header sentinel", offSentinel, uint64(sentinel), headerSentinel); err != nil {
		return h, err
	}
	if err := expect(ErrReservedField, "header reserved field", offReservedEnd, uint64(reservedEnd), headerReservedEnd); err != nil {
		return h, err
	}

	return h, nil
}

func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)
	bw.Bytes(h.Version[:])
	bw.U16(headerReserved0)
	bw.U16(headerReserved1)
	bw.U32(h.TotalFileSize)
	bw.U32(h.TocOffset)
	bw.U32(h.SectionStartOffset)
	bw.U16(h.NumSections)
	bw.U16(headerSentinel)
	bw.U32(headerReservedEnd)
	if err := bw.Err(); err != nil {
		return bw.N(), fmt.Errorf("write header: %w", err)
	}
	return bw.N(), nil
}

// FooterOffset returns where the header says the footer starts.
func (h *FileHeader) FooterOffset() (int64, error) {
	if h.TotalFileSize < HeaderSize+FooterSize {
		return 0, &FormatError{
			Field:  "total file size",
			Offset: TotalFileSizeOffset,
			Got:    uint64(h.TotalFileSize),
			Want:   HeaderSize + FooterSize,
			Err:    ErrFooterMismatch,
		}
	}
	return int64(h.TotalFileSize) - FooterSize, nil
}

// CheckFooter validates the footer and the actual stream length against
// the header.
func (h *FileHeader) CheckFooter(f FileFooter, streamLen int64) error {
	footerOff := int64(h.TotalFileSize) - FooterSize
	if err := expect(ErrFooterMismatch, "stream length", 0, uint64(streamLen), uint64(h.TotalFileSize)); err != nil {
		return err
	}
	if err := expect(ErrFooterMismatch, "footer total file size", footerOff+offFooterSize, uint64(f.TotalFileSize), uint64(h.TotalFileSize)); err != nil {
		return err
	}
	if f.Version != h.Version {
		return fmt.Errorf("%w: footer version %q at offset %d disagrees with header version %q",
			ErrFooterMismatch, f.Version.String(), footerOff+offFooterVersion, h.Version.String())
	}
	return nil
}

type FileFooter struct {
	TotalFileSize uint32
	Version       Version
}

// ReadFileFooter decodes the 16-byte footer; off is its absolute position
// and is only used for error reporting.
func ReadFileFooter(r io.Reader, off int64) (FileFooter, error) {
	var f FileFooter
	br := binio.NewReader(r)
	marker := br.U32()
	f.TotalFileSize = br.U32()
	br.Full(f.Version[:])
	if err := br.Err(); err != nil {
		return f, fmt.Errorf("read footer: %w", err)
	}
	if err := expect(ErrFooterMismatch, "footer marker", off, uint64(marker), FileFooterMarker); err != nil {
		return f, err
	}
	return f, nil
}

func (f *FileFooter) WriteTo(w io.Writer) (int64, error) {
	bw := binio.NewWriter(w)
	bw.U32(FileFooterMarker)
	bw.U32(f.TotalFileSize)
	bw.Bytes(f.Version[:])
	if err := bw.Err(); err != nil {
		return bw.N(), fmt.Errorf("write footer: %w", err)
	}
	return bw.N(), nil
}
