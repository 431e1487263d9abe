// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"fmt"
	"io"
	"log/slog"
)

// VersionPolicy selects the version magic written to a file.
type VersionPolicy int

const (
	// VersionNewest always writes mrm_pri2, whatever version a File was
	// read from.
	VersionNewest VersionPolicy = iota
	// VersionPreserve writes the version a File was read from.
	VersionPreserve
)

func ParseVersionPolicy(s string) (VersionPolicy, error) {
	switch s {
	case "", "newest":
		return VersionNewest, nil
	case "preserve":
		return VersionPreserve, nil
	}
	return VersionNewest, fmt.Errorf("unknown version policy %q (want newest or preserve)", s)
}

func (p VersionPolicy) String() string {
	switch p {
	case VersionNewest:
		return "newest"
	case VersionPreserve:
		return "preserve"
	}
	return fmt.Sprintf("VersionPolicy(%d)", int(p))
}

// Option configures reading and writing.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	versionPolicy VersionPolicy
}

// WithLogger sets an optional logger for per-section debug output.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithVersionPolicy controls which version magic Write emits.  It has no
// effect on reading.
func WithVersionPolicy(p VersionPolicy) Option {
	return func(opts *options) {
		opts.versionPolicy = p
	}
}

func newOptions(opts []Option) options {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
