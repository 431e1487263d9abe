// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePayload(t *testing.T, d SectionData) []byte {
	t.Helper()
	s := Section{Data: d}
	b, err := s.Payload()
	require.NoError(t, err)
	return b
}

func decodePayload(id Identifier, payload []byte) (SectionData, error) {
	return DecodeSectionData(id, payload)
}

func TestDataItemLayout(t *testing.T) {
	d := &DataItem{}
	i, err := d.AddString("hi")
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0, d.AddBlob([]byte{1, 2, 3}))

	want := []byte{
		0, 0, 0, 0, // reserved
		1, 0, // strings
		1, 0, // blobs
		5, 0, 0, 0, // data length
		0, 0, 2, 0, // string 0
		2, 0, 0, 0, 3, 0, 0, 0, // blob 0
		'h', 'i', 1, 2, 3,
	}
	assert.Equal(t, want, encodePayload(t, d))

	got, err := decodePayload(DataItemIdentifier, want)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	s, ok := got.(*DataItem).String(0)
	assert.True(t, ok)
	assert.Equal(t, "hi", s)
	b, ok := got.(*DataItem).Blob(0)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, ok = got.(*DataItem).String(1)
	assert.False(t, ok)
	_, ok = got.(*DataItem).Blob(-1)
	assert.False(t, ok)
}

func TestDataItemPadding(t *testing.T) {
	d := &DataItem{}
	mustAddString(d, "abc")
	payload := append(encodePayload(t, d), 0, 0, 0, 0, 0)

	got, err := decodePayload(DataItemIdentifier, payload)
	require.NoError(t, err)
	assert.Equal(t, 5, got.(*DataItem).padding)
	assert.Equal(t, payload, encodePayload(t, got))

	_, err = decodePayload(DataItemIdentifier, append(encodePayload(t, d), 0, 0, 1))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = decodePayload(DataItemIdentifier, append(encodePayload(t, d), make([]byte, 8)...))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDataItemMalformed(t *testing.T) {
	d := &DataItem{}
	mustAddString(d, "abc")
	good := encodePayload(t, d)

	for _, tc := range []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"reserved", func(b []byte) []byte { b[0] = 1; return b }},
		{"too short", func(b []byte) []byte { return b[:8] }},
		{"counts overflow payload", func(b []byte) []byte { b[4] = 9; return b }},
		{"string out of range", func(b []byte) []byte { b[14] = 9; return b }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.mutate(append([]byte(nil), good...))
			_, err := decodePayload(DataItemIdentifier, b)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}

	bad := &DataItem{Strings: []ItemRef{{Offset: 0, Length: 10}}}
	s := Section{Data: bad}
	_, err := s.Payload()
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDataItemStringLimit(t *testing.T) {
	d := &DataItem{}
	d.AddBlob(make([]byte, 0x10000))
	_, err := d.AddString("x")
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Equal(t, 0, d.NumStrings())
	assert.Len(t, d.Data, 0x10000)

	_, err = (&DataItem{}).AddString(strings.Repeat("x", 0x10000))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	// the last representable offset
	d = &DataItem{}
	d.AddBlob(make([]byte, 0xffff))
	i, err := d.AddString("x")
	require.NoError(t, err)
	got, err := decodePayload(DataItemIdentifier, encodePayload(t, d))
	require.NoError(t, err)
	s, ok := got.(*DataItem).String(i)
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}

func TestPriDescriptorLayout(t *testing.T) {
	d := NewPriDescriptor()
	d.Flags = IsDeploymentMergeResult
	d.DecisionInfoSections = []uint16{2, 5}
	d.DataItemSections = []uint16{7}

	want := []byte{
		4, 0, // flags
		0xff, 0xff, // included file list
		0, 0,
		0, 0, // schemas
		2, 0, // decisions
		0, 0, // resource maps
		0xff, 0xff, // primary resource map
		0, 0, // referenced files
		1, 0, // data items
		0, 0,
		2, 0, 5, 0,
		7, 0,
	}
	assert.Equal(t, want, encodePayload(t, d))

	got, err := decodePayload(PriDescriptorIdentifier, want)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	bad := append([]byte(nil), want...)
	bad[4] = 1
	_, err = decodePayload(PriDescriptorIdentifier, bad)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = decodePayload(PriDescriptorIdentifier, want[:22])
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPriDescriptorFlagsString(t *testing.T) {
	assert.Equal(t, "0", PriDescriptorFlags(0).String())
	assert.Equal(t, "AutoMerge|IsAutomergeMergeResult", (AutoMerge | IsAutomergeMergeResult).String())
	assert.Equal(t, "IsDeploymentMergeable|0x100", (IsDeploymentMergeable | 0x100).String())
}

func TestDecisionInfoLayout(t *testing.T) {
	d := &DecisionInfo{
		Decisions: []Decision{{
			QualifierSets: []QualifierSet{{
				Qualifiers: []Qualifier{{Type: QualifierLanguage, Priority: 700, Value: "en"}},
			}},
		}},
	}

	want := []byte{
		1, 0, // distinct qualifiers
		1, 0, // qualifiers
		1, 0, // qualifier sets
		1, 0, // decisions
		2, 0, // index entries
		3, 0, // string data chars
		1, 0, 1, 0, // decision 0: index[1:2]
		0, 0, 1, 0, // set 0: index[0:1]
		0, 0, 0xbc, 0x02, 0, 0, 0, 0, // qualifier 0
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // distinct 0: Language, offset 0
		0, 0, 0, 0, // index table
		'e', 0, 'n', 0, 0, 0,
	}
	assert.Equal(t, want, encodePayload(t, d))

	got, err := decodePayload(DecisionInfoIdentifier, want)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	// the unnamed distinct qualifier fields are dropped on decode and
	// written back as zero
	withUnnamed := append([]byte(nil), want...)
	withUnnamed[28] = 5
	withUnnamed[32] = 6
	withUnnamed[34] = 7
	got, err = decodePayload(DecisionInfoIdentifier, withUnnamed)
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Equal(t, want, encodePayload(t, got))
}

func TestDecisionInfoSharing(t *testing.T) {
	en := Qualifier{Type: QualifierLanguage, Priority: 700, Value: "en-US"}
	scale := Qualifier{Type: QualifierScale, Priority: 200, FallbackScore: 100, Value: "200"}
	region := Qualifier{Type: QualifierHomeRegion, Priority: 700, Value: "en-US"}
	set := QualifierSet{Qualifiers: []Qualifier{en, scale}}

	d := &DecisionInfo{
		Decisions: []Decision{
			{QualifierSets: []QualifierSet{set}},
			{QualifierSets: []QualifierSet{set, {Qualifiers: []Qualifier{region}}}},
			{},
		},
	}
	tables, err := d.tables()
	require.NoError(t, err)
	assert.Len(t, tables.decisions, 3)
	assert.Len(t, tables.sets, 2)
	assert.Len(t, tables.qualifiers, 3)
	assert.Len(t, tables.distinct, 3)
	// "en-US\0" and "200\0"
	assert.Len(t, tables.data, 2*(6+4))

	got, err := decodePayload(DecisionInfoIdentifier, encodePayload(t, d))
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDecisionInfoUnicode(t *testing.T) {
	d := &DecisionInfo{
		Decisions: []Decision{{
			QualifierSets: []QualifierSet{{
				Qualifiers: []Qualifier{{Type: QualifierCustom, Value: "日本語 🎌"}},
			}},
		}},
	}
	got, err := decodePayload(DecisionInfoIdentifier, encodePayload(t, d))
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDecisionInfoMalformed(t *testing.T) {
	d := &DecisionInfo{
		Decisions: []Decision{{
			QualifierSets: []QualifierSet{{
				Qualifiers: []Qualifier{{Type: QualifierLanguage, Priority: 700, Value: "en"}},
			}},
		}},
	}
	good := encodePayload(t, d)

	for _, tc := range []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"short header", func(b []byte) []byte { return b[:10] }},
		{"counts overflow payload", func(b []byte) []byte { b[8] = 40; return b }},
		{"decision span out of range", func(b []byte) []byte { b[12] = 5; return b }},
		{"set index out of range", func(b []byte) []byte { b[42] = 3; return b }},
		{"qualifier reserved", func(b []byte) []byte { b[26] = 1; return b }},
		{"unterminated string", func(b []byte) []byte { b[len(b)-2] = 'x'; return b }},
		{"string offset out of range", func(b []byte) []byte { b[36] = 9; return b }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.mutate(append([]byte(nil), good...))
			_, err := decodePayload(DecisionInfoIdentifier, b)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}

	nul := &DecisionInfo{Decisions: []Decision{{QualifierSets: []QualifierSet{{
		Qualifiers: []Qualifier{{Value: "a\x00b"}},
	}}}}}
	s := Section{Data: nul}
	_, err := s.Payload()
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestQualifierTypeString(t *testing.T) {
	assert.Equal(t, "Language", QualifierLanguage.String())
	assert.Equal(t, "DeviceFamily", QualifierDeviceFamily.String())
	assert.Equal(t, "QualifierType(42)", QualifierType(42).String())
}

func TestOpaqueKinds(t *testing.T) {
	for _, tc := range []struct {
		data SectionData
		id   Identifier
	}{
		{&ResourceMap{Data: []byte("map")}, ResourceMapIdentifier},
		{&ResourceMap{Version2: true, Data: []byte("map2")}, ResourceMap2Identifier},
		{&HierarchicalSchema{Data: []byte("schema")}, HierarchicalSchemaIdentifier},
		{&HierarchicalSchema{Extended: true, Data: []byte("schemaex")}, HierarchicalSchemaExIdentifier},
	} {
		t.Run(tc.id.String(), func(t *testing.T) {
			assert.Equal(t, tc.id, tc.data.Identifier())
			payload := encodePayload(t, tc.data)
			got, err := decodePayload(tc.id, payload)
			require.NoError(t, err)
			assert.Equal(t, tc.data, got)
		})
	}
}

func TestKnownIdentifiers(t *testing.T) {
	ids := KnownIdentifiers()
	assert.Len(t, ids, 7)
	assert.Contains(t, ids, DataItemIdentifier)
	assert.NotContains(t, ids, testIdentifier)
	assert.Equal(t, "unknown", Kind(testIdentifier))
}

func TestIdentifierString(t *testing.T) {
	assert.Equal(t, "[mrm_dataitem] ", DataItemIdentifier.String())
	assert.Equal(t, "[mrm_hschemaex] ", HierarchicalSchemaExIdentifier.String())
	assert.Equal(t, "00ff", Identifier{0x00, 0xff}.String()[:4])

	text, err := testIdentifier.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "test0000000000", string(text))

	long := ParseIdentifier("0123456789abcdefXYZ")
	assert.Equal(t, "0123456789abcdef", long.String())
}
