// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedMagic = errors.New("unrecognized PRI version magic")
	ErrReservedField     = errors.New("reserved field mismatch")
	ErrFooterMismatch    = errors.New("footer mismatch")
	ErrSectionLength     = errors.New("section length mismatch")
)

// FormatError describes a structural field whose on-disk value disagrees
// with what the format requires.  It unwraps to one of the sentinel errors
// above.
type FormatError struct {
	Field  string
	Offset int64
	Got    uint64
	Want   uint64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d is %#x, expected %#x", e.Err, e.Field, e.Offset, e.Got, e.Want)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func expect(kind error, field string, off int64, got, want uint64) error {
	if got == want {
		return nil
	}
	return &FormatError{
		Field:  field,
		Offset: off,
		Got:    got,
		Want:   want,
		Err:    kind,
	}
}
