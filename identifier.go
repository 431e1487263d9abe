// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"
)

// Identifier is the 16-byte tag naming a section's payload kind.
type Identifier [16]byte

// ParseIdentifier copies s into an Identifier, padding with NUL bytes or
// truncating to 16 bytes.
func ParseIdentifier(s string) Identifier {
	var id Identifier
	copy(id[:], s)
	return id
}

// String returns the tag with trailing NULs removed, or hex if the tag
// isn't printable ASCII.
func (id Identifier) String() string {
	trimmed := bytes.TrimRight(id[:], "\x00")
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%x", id[:])
		}
	}
	return string(trimmed)
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
