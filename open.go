// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"fmt"
	"os"
	"path/filepath"
)

// Open reads the file at path.  Decoded sections own their bytes, so
// nothing refers to the underlying file once Open returns.
func Open(path string, opts ...Option) (*File, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = release()
	}()

	f, err := ReadBytes(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteFile writes f to path.  The file is written to a temporary file in
// the same directory and renamed over path once complete, so readers
// never observe a partial file.
func WriteFile(path string, f *File, opts ...Option) (err error) {
	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "pri.*.tmp")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := f.Write(tmp, opts...); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("os.Chmod(0644): %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}
