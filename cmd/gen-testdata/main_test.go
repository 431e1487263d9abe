// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/pri"
)

func TestGeneratedFileRoundTrips(t *testing.T) {
	g := &generator{rng: newRand(42)}
	f, err := g.build(3, 5, 20)
	require.NoError(t, err)
	require.Equal(t, 9, f.NumSections())

	b, err := f.MarshalBinary()
	require.NoError(t, err)
	got, err := pri.ReadBytes(b)
	require.NoError(t, err)
	assert.Equal(t, f.Sections(), got.Sections())

	s, _ := got.Section(0)
	desc, ok := s.Data.(*pri.PriDescriptor)
	require.True(t, ok)
	assert.Equal(t, []uint16{1, 2, 3}, desc.DataItemSections)

	s, _ = got.Section(1)
	items, ok := s.Data.(*pri.DataItem)
	require.True(t, ok)
	assert.Equal(t, 20, items.NumStrings())
	str, ok := items.String(0)
	require.True(t, ok)
	assert.Contains(t, str, prefix)
}

func encodeGenerated(t *testing.T, seed int64, dataItems, unknowns, items int) []byte {
	t.Helper()
	f, err := (&generator{rng: newRand(seed)}).build(dataItems, unknowns, items)
	require.NoError(t, err)
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestSeedIsDeterministic(t *testing.T) {
	assert.Equal(t, encodeGenerated(t, 7, 1, 1, 5), encodeGenerated(t, 7, 1, 1, 5))
}

func TestStringsPrecedeBlobs(t *testing.T) {
	// 2000 strings of len(prefix)+suffixLen bytes stay below 64 KiB only
	// if blobs come after them
	f, err := (&generator{rng: newRand(3)}).build(1, 0, 2000)
	require.NoError(t, err)
	s, _ := f.Section(1)
	items := s.Data.(*pri.DataItem)
	last := items.Strings[len(items.Strings)-1]
	assert.Less(t, last.Offset, items.Blobs[0].Offset)
}
