// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeHeader(t *testing.T, h FileHeader) []byte {
	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(HeaderSize), n)
	require.Equal(t, HeaderSize, buf.Len())
	return buf.Bytes()
}

func TestFileHeader_RoundTrip(t *testing.T) {
	origH := NewFileHeader(VersionPri2, 3)
	origH.TotalFileSize = 1234
	require.Equal(t, uint32(TocOffset), origH.TocOffset)
	require.Equal(t, uint32(32+32*3), origH.SectionStartOffset)

	headerBytes := encodeHeader(t, origH)
	assert.Equal(t, []byte("mrm_pri2"), headerBytes[:8])
	assert.Equal(t, uint32(1234), binary.LittleEndian.Uint32(headerBytes[TotalFileSizeOffset:]))

	newH, err := ReadFileHeader(bytes.NewReader(headerBytes))
	require.NoError(t, err)
	assert.Equal(t, origH, newH)

	// every recognized version parses
	for _, v := range knownVersions {
		h := NewFileHeader(v, 0)
		got, err := ReadFileHeader(bytes.NewReader(encodeHeader(t, h)))
		require.NoError(t, err)
		assert.Equal(t, v, got.Version)
	}
}

func TestFileHeader_Errors(t *testing.T) {
	valid := encodeHeader(t, NewFileHeader(VersionPri1, 1))

	// missing bytes are an I/O error, not a field mismatch
	_, err := ReadFileHeader(bytes.NewReader(valid[:20]))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	_, err = ReadFileHeader(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "mrm_pri9")
	_, err = ReadFileHeader(bytes.NewReader(badMagic))
	assert.True(t, errors.Is(err, ErrUnrecognizedMagic))

	for _, off := range []int{8, 10, 26, 28} {
		corrupt := append([]byte(nil), valid...)
		corrupt[off] ^= 0x01
		_, err := ReadFileHeader(bytes.NewReader(corrupt))
		assert.True(t, errors.Is(err, ErrReservedField), "offset %d: %v", off, err)

		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, int64(off), fe.Offset)
	}
}

func TestFileFooter_Check(t *testing.T) {
	h := NewFileHeader(VersionPri2, 0)
	h.TotalFileSize = HeaderSize + FooterSize

	f := FileFooter{TotalFileSize: h.TotalFileSize, Version: VersionPri2}
	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(FooterSize), n)

	got, err := ReadFileFooter(bytes.NewReader(buf.Bytes()), HeaderSize)
	require.NoError(t, err)
	assert.Equal(t, f, got)
	require.NoError(t, h.CheckFooter(got, int64(h.TotalFileSize)))

	// stream longer than declared
	assert.True(t, errors.Is(h.CheckFooter(got, int64(h.TotalFileSize)+1), ErrFooterMismatch))

	// size disagreement
	wrongSize := got
	wrongSize.TotalFileSize++
	assert.True(t, errors.Is(h.CheckFooter(wrongSize, int64(h.TotalFileSize)), ErrFooterMismatch))

	// version disagreement
	wrongVersion := got
	wrongVersion.Version = VersionPri0
	assert.True(t, errors.Is(h.CheckFooter(wrongVersion, int64(h.TotalFileSize)), ErrFooterMismatch))

	// bad marker
	corrupt := append([]byte(nil), buf.Bytes()...)
	corrupt[0] = 0
	_, err = ReadFileFooter(bytes.NewReader(corrupt), HeaderSize)
	assert.True(t, errors.Is(err, ErrFooterMismatch))

	// truncated
	_, err = ReadFileFooter(bytes.NewReader(buf.Bytes()[:10]), HeaderSize)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestFileHeader_FooterOffset(t *testing.T) {
	h := NewFileHeader(VersionPri2, 0)
	_, err := h.FooterOffset()
	assert.True(t, errors.Is(err, ErrFooterMismatch))

	h.TotalFileSize = 100
	off, err := h.FooterOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(84), off)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion([]byte("mrm_prif"))
	require.NoError(t, err)
	assert.Equal(t, VersionPriF, v)
	assert.Equal(t, "mrm_prif", v.String())
	assert.True(t, v.Valid())

	_, err = ParseVersion([]byte("mrm_pri"))
	assert.True(t, errors.Is(err, ErrUnrecognizedMagic))
	assert.False(t, Version{}.Valid())
	assert.Equal(t, VersionPri2, Newest())
}
