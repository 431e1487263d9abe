// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package pri reads and writes packaged resource index (PRI) files, the
// binary container Windows uses to ship an application's resources.
//
// A File is an ordered list of Sections.  Each Section carries one typed
// payload (SectionData): data items, the top-level descriptor, decision
// tables, resource maps, hierarchical schemas, or an UnknownSection for any
// payload kind this package does not recognize.  Unknown payloads are kept
// byte-for-byte, so reading and writing a file never loses information.
//
// Reading needs an io.ReadSeeker: the footer is validated before the table
// of contents is consulted, and each section is located with a seek.
// Writing needs an io.WriteSeeker, because offsets and lengths are written
// as placeholders and patched once the bytes they describe exist.  Use
// (*File).WriteTo or MarshalBinary for sinks that can't seek; the output is
// identical.
//
// The on-disk layout is described in the internal/format package.
package pri
