// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Tell returns the current position of s.
func Tell(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// PatchU32s overwrites consecutive little-endian uint32 fields starting at
// the absolute offset off, then restores the cursor to where it was.
func PatchU32s(ws io.WriteSeeker, off int64, vals ...uint32) error {
	cur, err := Tell(ws)
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}

	if _, err := ws.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek(%d): %w", off, err)
	}
	if n, err := ws.Write(buf); err != nil {
		return fmt.Errorf("write at %d: %w", off, err)
	} else if n != len(buf) {
		return fmt.Errorf("write at %d: short write of %d (wanted %d)", off, n, len(buf))
	}
	if _, err := ws.Seek(cur, io.SeekStart); err != nil {
		return fmt.Errorf("seek(%d): %w", cur, err)
	}
	return nil
}
