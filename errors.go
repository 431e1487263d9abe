// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"errors"

	"github.com/bpowers/pri/internal/format"
)

var (
	// ErrUnrecognizedMagic is returned when a file doesn't start with one of
	// the known version tags.
	ErrUnrecognizedMagic = format.ErrUnrecognizedMagic
	// ErrReservedField is returned when a field with a fixed value holds
	// anything else.
	ErrReservedField = format.ErrReservedField
	// ErrFooterMismatch is returned when the file or section footers disagree
	// with the header, or with the actual length of the stream.
	ErrFooterMismatch = format.ErrFooterMismatch
	// ErrSectionLength is returned when the redundant section length fields
	// disagree, or a payload codec consumed a different number of bytes than
	// the envelope declared.
	ErrSectionLength = format.ErrSectionLength

	ErrMalformedPayload = errors.New("malformed section payload")
	ErrTooManySections  = errors.New("too many sections")
	ErrNoSectionData    = errors.New("section has no data")
)

// FormatError reports the structural field that failed validation.  It
// unwraps to one of the sentinel errors above.
type FormatError = format.FormatError
