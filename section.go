// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/pri/internal/binio"
	"github.com/bpowers/pri/internal/format"
)

// Section is one framed unit of a File.  Flags and SectionFlags are
// carried verbatim; their meaning belongs to the payload kind.
type Section struct {
	Qualifier    uint32
	Flags        uint16
	SectionFlags uint16
	Data         SectionData
}

// hasData reports whether Data holds a payload, treating a typed nil
// pointer the same as a nil interface.
func (s *Section) hasData() bool {
	switch d := s.Data.(type) {
	case nil:
		return false
	case *DataItem:
		return d != nil
	case *PriDescriptor:
		return d != nil
	case *ResourceMap:
		return d != nil
	case *DecisionInfo:
		return d != nil
	case *HierarchicalSchema:
		return d != nil
	case *UnknownSection:
		return d != nil
	}
	return true
}

// Identifier returns the tag the section is filed under, or the zero
// Identifier if Data is nil.
func (s *Section) Identifier() Identifier {
	if !s.hasData() {
		return Identifier{}
	}
	return s.Data.Identifier()
}

// Payload returns the encoded payload bytes, without the envelope.
func (s *Section) Payload() ([]byte, error) {
	if !s.hasData() {
		return nil, ErrNoSectionData
	}
	var buf bytes.Buffer
	bw := binio.NewWriter(&buf)
	if err := s.Data.encodePayload(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint is a farm hash of the section's identifier and encoded
// payload.  It is meant for comparing sections across files; it is not
// stored anywhere in the format.
func (s *Section) Fingerprint() (uint64, error) {
	payload, err := s.Payload()
	if err != nil {
		return 0, err
	}
	id := s.Identifier()
	return farm.Fingerprint64(append(id[:], payload...)), nil
}

// Equal reports whether two sections have the same header fields and
// encode to the same payload.
func (s *Section) Equal(o *Section) bool {
	if s.Qualifier != o.Qualifier || s.Flags != o.Flags || s.SectionFlags != o.SectionFlags {
		return false
	}
	if s.Identifier() != o.Identifier() {
		return false
	}
	a, errA := s.Payload()
	b, errB := o.Payload()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// readSection decodes the section at file offset off (relative to base),
// which must end at or before limit.
func readSection(r io.ReadSeeker, base, off, limit int64, logger *slog.Logger) (Section, uint32, error) {
	if _, err := r.Seek(base+off, io.SeekStart); err != nil {
		return Section{}, 0, fmt.Errorf("seek to section at %d: %w", off, err)
	}
	h, err := format.ReadSectionHeader(r, off)
	if err != nil {
		return Section{}, 0, err
	}
	if end := off + int64(h.SectionLength); end > limit {
		return Section{}, 0, &FormatError{
			Field:  "section length",
			Offset: off + format.SectionHeaderSize - format.SectionLengthBackOffset,
			Got:    uint64(h.SectionLength),
			Want:   uint64(limit - off),
			Err:    ErrSectionLength,
		}
	}

	id := Identifier(h.Identifier)
	payloadOff := off + format.SectionHeaderSize
	payloadLen := int64(h.PayloadLength())
	lr := &io.LimitedReader{R: r, N: payloadLen}
	br := binio.NewReader(lr)
	data, err := decodeSectionData(id, int(payloadLen), br)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && lr.N == 0 {
			// the section is known to fit in the file, so running dry means
			// the decoder wanted more than the envelope declared
			return Section{}, 0, &FormatError{
				Field:  fmt.Sprintf("%s payload length", id),
				Offset: payloadOff,
				Got:    uint64(payloadLen) + 1,
				Want:   uint64(payloadLen),
				Err:    ErrSectionLength,
			}
		}
		return Section{}, 0, fmt.Errorf("decode %s payload at %d: %w", id, payloadOff, err)
	}
	if lr.N != 0 {
		return Section{}, 0, &FormatError{
			Field:  fmt.Sprintf("%s payload length", id),
			Offset: payloadOff,
			Got:    uint64(payloadLen - lr.N),
			Want:   uint64(payloadLen),
			Err:    ErrSectionLength,
		}
	}

	// re-seek rather than trusting the decoder's cursor
	footerOff := off + int64(h.SectionLength) - format.SectionFooterSize
	if _, err := r.Seek(base+footerOff, io.SeekStart); err != nil {
		return Section{}, 0, fmt.Errorf("seek to section footer at %d: %w", footerOff, err)
	}
	if _, err := format.ReadSectionFooter(r, footerOff, &h); err != nil {
		return Section{}, 0, err
	}

	logger.Debug("read section",
		"offset", off,
		"identifier", id.String(),
		"kind", Kind(id),
		"length", h.SectionLength)

	return Section{
		Qualifier:    h.Qualifier,
		Flags:        h.Flags,
		SectionFlags: h.SectionFlags,
		Data:         data,
	}, h.SectionLength, nil
}

// writeTo frames the section at the current position of w, returning the
// total section length.  The cursor is left just past the section footer.
func (s *Section) writeTo(w io.WriteSeeker, logger *slog.Logger) (uint32, error) {
	if !s.hasData() {
		return 0, ErrNoSectionData
	}
	id := s.Data.Identifier()

	h := format.SectionHeader{
		Identifier:   id,
		Qualifier:    s.Qualifier,
		Flags:        s.Flags,
		SectionFlags: s.SectionFlags,
	}
	if _, err := h.WriteTo(w); err != nil {
		return 0, err
	}
	payloadStart, err := binio.Tell(w)
	if err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}

	bw := binio.NewWriter(w)
	if err := s.Data.encodePayload(bw); err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", id, err)
	}
	payloadEnd, err := binio.Tell(w)
	if err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}

	length := payloadEnd - payloadStart + format.SectionOverhead
	if length > math.MaxUint32 {
		return 0, fmt.Errorf("%s section of %d bytes is too large", id, length)
	}
	f := format.SectionFooter{SectionLength: uint32(length)}
	if _, err := f.WriteTo(w); err != nil {
		return 0, err
	}
	if err := binio.PatchU32s(w, payloadStart-format.SectionLengthBackOffset, f.SectionLength); err != nil {
		return 0, fmt.Errorf("patch section length: %w", err)
	}

	logger.Debug("wrote section",
		"identifier", id.String(),
		"length", length)

	return f.SectionLength, nil
}
