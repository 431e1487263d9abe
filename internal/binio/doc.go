// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package binio contains the little-endian field readers and writers
// shared by every codec in this module, along with the backpatching
// primitive used to fill in offsets and lengths after the bytes they
// describe have been written.
//
// Both Reader and Writer keep the first error they encounter and turn
// every later call into a no-op, so a codec can read or write a run of
// fixed-size fields and check Err once at the end.
package binio
