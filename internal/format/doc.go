// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package format contains the fixed-layout structures of a packaged
// resource index (PRI) file: the file header and footer, table of
// contents entries, and the envelope around every section payload.
//
// A PRI file looks like:
//
//	┌──────────────────────┐ 0
//	│ file header (32)     │
//	├──────────────────────┤ toc_offset (32)
//	│ TOC entry (32) × n   │
//	├──────────────────────┤ section_start_offset (32 + 32n)
//	│ section 0            │
//	│ section 1            │
//	│ ...                  │
//	├──────────────────────┤ total_file_size - 16
//	│ file footer (16)     │
//	└──────────────────────┘ total_file_size
//
// and each section is wrapped in a 40-byte envelope:
//
//	 0                16   20   22   24   28   32
//	+-----------------+----+----+----+----+----+----------+----+----+
//	| identifier      |qual|flg |sflg|len |  0 | payload  |mark|len |
//	+-----------------+----+----+----+----+----+----------+----+----+
//
// All integers are little-endian.  The structures here only encode and
// validate their own fields; orchestrating seeks and backpatches is left to
// the caller.
package format
