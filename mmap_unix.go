// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

package pri

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// mapFile maps path read-only.  Sections are visited in TOC order, which
// need not match on-disk order, so the mapping is advised as random
// access.
func mapFile(path string) (data []byte, release func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat(%s): %w", path, err)
	}
	size := fi.Size()
	if size == 0 {
		return nil, func() error { return nil }, nil
	}
	if int64(int(size)) != size {
		return nil, nil, fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		// some filesystems can't be mapped; fall back to reading
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		return data, func() error { return nil }, nil
	}
	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, nil, fmt.Errorf("madvise: %w", err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
