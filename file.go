// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/bpowers/pri/internal/binio"
	"github.com/bpowers/pri/internal/format"
)

// Version is the 8-byte format revision tag.
type Version = format.Version

var (
	VersionPri0 = format.VersionPri0
	VersionPri1 = format.VersionPri1
	VersionPri2 = format.VersionPri2
	VersionPriF = format.VersionPriF
)

// File is an ordered list of sections.  A File is not safe for concurrent
// mutation, but Write may be called concurrently with other Writes.
type File struct {
	sections []Section
	version  Version
}

// New returns an empty File.
func New() *File {
	return &File{version: format.Newest()}
}

// ReadBytes parses a complete file held in memory.
func ReadBytes(b []byte, opts ...Option) (*File, error) {
	return Read(bytes.NewReader(b), opts...)
}

// Read parses a file starting at the current position of r.  All offsets
// in the file are relative to that position.  On failure no File is
// returned.
func Read(r io.ReadSeeker, opts ...Option) (*File, error) {
	o := newOptions(opts)

	base, err := binio.Tell(r)
	if err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	h, err := format.ReadFileHeader(r)
	if err != nil {
		return nil, err
	}

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek to end: %w", err)
	}
	streamLen := end - base
	footerOff, err := h.FooterOffset()
	if err != nil {
		return nil, err
	}
	if streamLen < footerOff+format.FooterSize {
		return nil, &FormatError{
			Field:  "stream length",
			Offset: format.TotalFileSizeOffset,
			Got:    uint64(streamLen),
			Want:   uint64(h.TotalFileSize),
			Err:    ErrFooterMismatch,
		}
	}
	if _, err := r.Seek(base+footerOff, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to footer: %w", err)
	}
	footer, err := format.ReadFileFooter(r, footerOff)
	if err != nil {
		return nil, err
	}
	if err := h.CheckFooter(footer, streamLen); err != nil {
		return nil, err
	}

	n := int(h.NumSections)
	if tocEnd := int64(h.TocOffset) + format.TocEntrySize*int64(n); tocEnd > footerOff {
		return nil, &FormatError{
			Field:  "toc offset",
			Offset: format.TocOffsetFieldOffset,
			Got:    uint64(h.TocOffset),
			Want:   uint64(footerOff - format.TocEntrySize*int64(n)),
			Err:    ErrSectionLength,
		}
	}
	if _, err := r.Seek(base+int64(h.TocOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to TOC: %w", err)
	}
	toc, err := format.ReadToc(r, n)
	if err != nil {
		return nil, err
	}

	f := &File{
		sections: make([]Section, 0, n),
		version:  h.Version,
	}
	for i, e := range toc {
		off := int64(h.SectionStartOffset) + int64(e.SectionOffset)
		s, length, err := readSection(r, base, off, footerOff, o.logger)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		if length != e.SectionLength {
			return nil, &FormatError{
				Field:  fmt.Sprintf("TOC entry %d section length", i),
				Offset: int64(h.TocOffset) + format.TocEntrySize*int64(i) + format.TocEntrySize - 4,
				Got:    uint64(e.SectionLength),
				Want:   uint64(length),
				Err:    ErrSectionLength,
			}
		}
		f.sections = append(f.sections, s)
	}

	if _, err := r.Seek(base+int64(h.TotalFileSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	o.logger.Debug("read file",
		"version", f.version.String(),
		"sections", n,
		"size", h.TotalFileSize)

	return f, nil
}

// Version returns the version the File was read with, or the newest
// version for a File built in memory.
func (f *File) Version() Version {
	return f.version
}

// AddSection appends s to the end of the section list.
func (f *File) AddSection(s Section) {
	f.sections = append(f.sections, s)
}

func (f *File) NumSections() int {
	return len(f.sections)
}

// Section returns the i'th section.  The returned Section aliases the
// File's copy.
func (f *File) Section(i int) (*Section, bool) {
	if i < 0 || i >= len(f.sections) {
		return nil, false
	}
	return &f.sections[i], true
}

// Sections returns a copy of the section list.
func (f *File) Sections() []Section {
	out := make([]Section, len(f.sections))
	copy(out, f.sections)
	return out
}

func (f *File) writeVersion(o options) Version {
	if o.versionPolicy == VersionPreserve && f.version.Valid() {
		return f.version
	}
	return format.Newest()
}

// Write serializes f starting at the current position of w, patching
// lengths and offsets in place as each part is finished.  The cursor is
// left at the end of the written file.  f is not modified.
func (f *File) Write(w io.WriteSeeker, opts ...Option) error {
	o := newOptions(opts)

	n := len(f.sections)
	if n > format.MaxSections {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManySections, n, format.MaxSections)
	}
	for i := range f.sections {
		if !f.sections[i].hasData() {
			return fmt.Errorf("section %d: %w", i, ErrNoSectionData)
		}
	}

	base, err := binio.Tell(w)
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	h := format.NewFileHeader(f.writeVersion(o), n)
	if _, err := h.WriteTo(w); err != nil {
		return err
	}
	for i := range f.sections {
		s := &f.sections[i]
		e := format.TocEntry{
			Identifier:   s.Identifier(),
			Flags:        s.Flags,
			SectionFlags: s.SectionFlags,
			Qualifier:    s.Qualifier,
		}
		if _, err := e.WriteTo(w); err != nil {
			return err
		}
	}

	sectionStart := base + int64(h.SectionStartOffset)
	for i := range f.sections {
		start, err := binio.Tell(w)
		if err != nil {
			return fmt.Errorf("seek: %w", err)
		}
		length, err := f.sections[i].writeTo(w, o.logger)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		if err := binio.PatchU32s(w, base+format.TocPatchOffset(i), uint32(start-sectionStart), length); err != nil {
			return fmt.Errorf("patch TOC entry %d: %w", i, err)
		}
	}

	end, err := binio.Tell(w)
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	total := end - base + format.FooterSize
	if total > math.MaxUint32 {
		return fmt.Errorf("file of %d bytes is too large", total)
	}
	footer := format.FileFooter{TotalFileSize: uint32(total), Version: h.Version}
	if _, err := footer.WriteTo(w); err != nil {
		return err
	}
	if err := binio.PatchU32s(w, base+format.TotalFileSizeOffset, footer.TotalFileSize); err != nil {
		return fmt.Errorf("patch total file size: %w", err)
	}

	o.logger.Debug("wrote file",
		"version", h.Version.String(),
		"sections", n,
		"size", total)

	return nil
}

// Encode returns the serialized file.  It produces the same bytes as
// Write.
func (f *File) Encode(opts ...Option) ([]byte, error) {
	buf := binio.NewBuffer(nil)
	if err := f.Write(buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalBinary implements encoding.BinaryMarshaler with the default
// options.
func (f *File) MarshalBinary() ([]byte, error) {
	return f.Encode()
}

// WriteTo serializes f to an append-only writer by building the file in
// memory first.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
