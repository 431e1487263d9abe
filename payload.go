// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"

	"github.com/bpowers/pri/internal/binio"
)

// payloads are 8-byte aligned on disk; codecs that know their own length
// accept up to this much trailing zero padding.
const maxPayloadPadding = 7

func malformed(kind string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedPayload, kind, fmt.Sprintf(format, args...))
}

// readPayload slurps the whole payload so typed codecs can parse it with
// random access.
func readPayload(length int, r *binio.Reader) ([]byte, error) {
	buf := r.Bytes(length)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return buf, nil
}

// trailingPadding validates that everything after the parsed structure is
// a short run of zeros, returning its length.
func trailingPadding(kind string, rest []byte) (int, error) {
	if len(rest) > maxPayloadPadding {
		return 0, malformed(kind, "%d unexpected trailing bytes", len(rest))
	}
	if len(bytes.Trim(rest, "\x00")) != 0 {
		return 0, malformed(kind, "non-zero padding")
	}
	return len(rest), nil
}

func writePadding(w *binio.Writer, n int) {
	var zeros [maxPayloadPadding]byte
	w.Bytes(zeros[:n])
}
