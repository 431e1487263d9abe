// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package format

import "fmt"

// Version is the 8-byte magic at the start and end of every PRI file.
type Version [8]byte

var (
	VersionPri0 = Version{'m', 'r', 'm', '_', 'p', 'r', 'i', '0'}
	VersionPri1 = Version{'m', 'r', 'm', '_', 'p', 'r', 'i', '1'}
	VersionPri2 = Version{'m', 'r', 'm', '_', 'p', 'r', 'i', '2'}
	VersionPriF = Version{'m', 'r', 'm', '_', 'p', 'r', 'i', 'f'}
)

var knownVersions = [...]Version{VersionPri0, VersionPri1, VersionPri2, VersionPriF}

// Newest returns the version emitted when writing unless the caller asks to
// preserve the version a file was read with.
func Newest() Version {
	return VersionPri2
}

// ParseVersion matches b against the recognized version tags.
func ParseVersion(b []byte) (Version, error) {
	for _, v := range knownVersions {
		if string(v[:]) == string(b) {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("%w: %q", ErrUnrecognizedMagic, b)
}

func (v Version) Valid() bool {
	for _, known := range knownVersions {
		if v == known {
			return true
		}
	}
	return false
}

func (v Version) String() string {
	return string(v[:])
}
