// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/bpowers/pri/internal/binio"
)

// QualifierType is the condition a Qualifier tests, such as the user's
// language or the display scale.
type QualifierType uint16

const (
	QualifierLanguage QualifierType = iota
	QualifierContrast
	QualifierScale
	QualifierHomeRegion
	QualifierTargetSize
	QualifierLayoutDirection
	QualifierTheme
	QualifierAlternateForm
	QualifierDXFeatureLevel
	QualifierConfiguration
	QualifierDeviceFamily
	QualifierCustom
)

var qualifierTypeNames = [...]string{
	"Language",
	"Contrast",
	"Scale",
	"HomeRegion",
	"TargetSize",
	"LayoutDirection",
	"Theme",
	"AlternateForm",
	"DXFeatureLevel",
	"Configuration",
	"DeviceFamily",
	"Custom",
}

func (t QualifierType) String() string {
	if int(t) < len(qualifierTypeNames) {
		return qualifierTypeNames[t]
	}
	return fmt.Sprintf("QualifierType(%d)", uint16(t))
}

type Qualifier struct {
	Type          QualifierType
	Priority      uint16
	FallbackScore uint16
	Value         string
}

// QualifierSet matches when all of its qualifiers match.
type QualifierSet struct {
	Qualifiers []Qualifier
}

// Decision is an ordered list of candidate qualifier sets.
type Decision struct {
	QualifierSets []QualifierSet
}

// DecisionInfo holds the decision tables used to pick between resource
// candidates.  On disk qualifiers, sets and strings are shared between
// decisions through index tables; the in-memory form is expanded, and
// encoding produces a deduplicated layout.
//
// Re-encoding is not byte-preserving the way UnknownSection is.  Table
// order and sharing are rebuilt from Decisions, and the two unnamed 16-bit
// fields of each distinct qualifier entry are not kept: they are written
// as zero.  Only the decoded Decisions survive a round trip.
type DecisionInfo struct {
	Decisions []Decision

	padding int
}

func (d *DecisionInfo) Identifier() Identifier {
	return DecisionInfoIdentifier
}

const (
	decisionHeaderSize     = 12
	decisionEntrySize      = 4
	qualifierSetEntrySize  = 4
	qualifierEntrySize     = 8
	distinctQualifierSize  = 12
	decisionIndexEntrySize = 2
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

type span struct {
	first, count uint16
}

type qualifierEntry struct {
	distinct      uint16
	priority      uint16
	fallbackScore uint16
}

type distinctQualifier struct {
	typ         QualifierType
	valueOffset uint32
}

// decisionTables is the normalized on-disk form of a DecisionInfo.
type decisionTables struct {
	decisions  []span
	sets       []span
	qualifiers []qualifierEntry
	distinct   []distinctQualifier
	index      []uint16
	data       []byte // UTF-16LE, NUL terminated strings
}

type decisionBuilder struct {
	decisionTables

	stringOffsets map[string]uint32
	distinctIdx   map[distinctQualifier]int
	qualifierIdx  map[qualifierEntry]int
	setIdx        map[string]int
}

func (b *decisionBuilder) intern(s string) (uint32, error) {
	if off, ok := b.stringOffsets[s]; ok {
		return off, nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return 0, malformed("decision info", "qualifier value %q contains NUL", s)
	}
	enc, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, malformed("decision info", "encode %q: %v", s, err)
	}
	off := uint32(len(b.data) / 2)
	b.data = append(b.data, enc...)
	b.data = append(b.data, 0, 0)
	b.stringOffsets[s] = off
	return off, nil
}

func (b *decisionBuilder) qualifier(q Qualifier) (int, error) {
	off, err := b.intern(q.Value)
	if err != nil {
		return 0, err
	}
	dq := distinctQualifier{typ: q.Type, valueOffset: off}
	di, ok := b.distinctIdx[dq]
	if !ok {
		di = len(b.distinct)
		b.distinct = append(b.distinct, dq)
		b.distinctIdx[dq] = di
	}
	qe := qualifierEntry{distinct: uint16(di), priority: q.Priority, fallbackScore: q.FallbackScore}
	qi, ok := b.qualifierIdx[qe]
	if !ok {
		qi = len(b.qualifiers)
		b.qualifiers = append(b.qualifiers, qe)
		b.qualifierIdx[qe] = qi
	}
	return qi, nil
}

func (b *decisionBuilder) set(s QualifierSet) (int, error) {
	qis := make([]uint16, len(s.Qualifiers))
	for i, q := range s.Qualifiers {
		qi, err := b.qualifier(q)
		if err != nil {
			return 0, err
		}
		qis[i] = uint16(qi)
	}
	key := indexKey(qis)
	if si, ok := b.setIdx[key]; ok {
		return si, nil
	}
	si := len(b.sets)
	b.sets = append(b.sets, b.appendIndex(qis))
	b.setIdx[key] = si
	return si, nil
}

func (b *decisionBuilder) appendIndex(idxs []uint16) span {
	sp := span{first: uint16(len(b.index)), count: uint16(len(idxs))}
	b.index = append(b.index, idxs...)
	return sp
}

func indexKey(idxs []uint16) string {
	buf := make([]byte, 2*len(idxs))
	for i, v := range idxs {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return string(buf)
}

func (d *DecisionInfo) tables() (*decisionTables, error) {
	b := &decisionBuilder{
		stringOffsets: make(map[string]uint32),
		distinctIdx:   make(map[distinctQualifier]int),
		qualifierIdx:  make(map[qualifierEntry]int),
		setIdx:        make(map[string]int),
	}
	for _, dec := range d.Decisions {
		sis := make([]uint16, len(dec.QualifierSets))
		for i, s := range dec.QualifierSets {
			si, err := b.set(s)
			if err != nil {
				return nil, err
			}
			sis[i] = uint16(si)
		}
		b.decisions = append(b.decisions, b.appendIndex(sis))

		// indexes are u16 on disk
		if err := b.checkLimits(); err != nil {
			return nil, err
		}
	}
	return &b.decisionTables, nil
}

func (t *decisionTables) checkLimits() error {
	for _, c := range []struct {
		name string
		n    int
	}{
		{"decisions", len(t.decisions)},
		{"qualifier sets", len(t.sets)},
		{"qualifiers", len(t.qualifiers)},
		{"distinct qualifiers", len(t.distinct)},
		{"index entries", len(t.index)},
		{"string data", len(t.data) / 2},
	} {
		if c.n > 0xffff {
			return malformed("decision info", "%d %s exceeds the 16-bit limit", c.n, c.name)
		}
	}
	return nil
}

func (d *DecisionInfo) encodePayload(w *binio.Writer) error {
	t, err := d.tables()
	if err != nil {
		return err
	}
	w.U16(uint16(len(t.distinct)))
	w.U16(uint16(len(t.qualifiers)))
	w.U16(uint16(len(t.sets)))
	w.U16(uint16(len(t.decisions)))
	w.U16(uint16(len(t.index)))
	w.U16(uint16(len(t.data) / 2))
	for _, sp := range t.decisions {
		w.U16(sp.first)
		w.U16(sp.count)
	}
	for _, sp := range t.sets {
		w.U16(sp.first)
		w.U16(sp.count)
	}
	for _, q := range t.qualifiers {
		w.U16(q.distinct)
		w.U16(q.priority)
		w.U16(q.fallbackScore)
		w.U16(0)
	}
	for _, dq := range t.distinct {
		w.U16(0)
		w.U16(uint16(dq.typ))
		w.U16(0)
		w.U16(0)
		w.U32(dq.valueOffset)
	}
	for _, idx := range t.index {
		w.U16(idx)
	}
	w.Bytes(t.data)
	writePadding(w, d.padding)
	return w.Err()
}

func decodeDecisionInfo(_ Identifier, length int, r *binio.Reader) (SectionData, error) {
	payload, err := readPayload(length, r)
	if err != nil {
		return nil, err
	}
	if len(payload) < decisionHeaderSize {
		return nil, malformed("decision info", "payload of %d bytes is shorter than its header", len(payload))
	}

	br := binio.NewReader(bytes.NewReader(payload))
	numDistinct := int(br.U16())
	numQualifiers := int(br.U16())
	numSets := int(br.U16())
	numDecisions := int(br.U16())
	numIndex := int(br.U16())
	dataChars := int(br.U16())

	need := decisionHeaderSize +
		decisionEntrySize*numDecisions +
		qualifierSetEntrySize*numSets +
		qualifierEntrySize*numQualifiers +
		distinctQualifierSize*numDistinct +
		decisionIndexEntrySize*numIndex +
		2*dataChars
	if need > len(payload) {
		return nil, malformed("decision info", "tables need %d bytes, payload has %d", need, len(payload))
	}

	t := &decisionTables{
		decisions:  make([]span, numDecisions),
		sets:       make([]span, numSets),
		qualifiers: make([]qualifierEntry, numQualifiers),
		distinct:   make([]distinctQualifier, numDistinct),
		index:      make([]uint16, numIndex),
	}
	for i := range t.decisions {
		t.decisions[i] = span{first: br.U16(), count: br.U16()}
	}
	for i := range t.sets {
		t.sets[i] = span{first: br.U16(), count: br.U16()}
	}
	for i := range t.qualifiers {
		q := &t.qualifiers[i]
		q.distinct = br.U16()
		q.priority = br.U16()
		q.fallbackScore = br.U16()
		if reserved := br.U16(); reserved != 0 {
			return nil, malformed("decision info", "qualifier %d reserved field is %#x", i, reserved)
		}
	}
	for i := range t.distinct {
		br.U16()
		t.distinct[i].typ = QualifierType(br.U16())
		br.U16()
		br.U16()
		t.distinct[i].valueOffset = br.U32()
	}
	for i := range t.index {
		t.index[i] = br.U16()
	}
	t.data = br.Bytes(2 * dataChars)
	if err := br.Err(); err != nil {
		return nil, malformed("decision info", "%v", err)
	}

	d := &DecisionInfo{}
	if d.padding, err = trailingPadding("decision info", payload[br.N():]); err != nil {
		return nil, err
	}
	if d.Decisions, err = t.expand(); err != nil {
		return nil, err
	}
	return d, nil
}

func (t *decisionTables) indexes(sp span) ([]uint16, error) {
	end := int(sp.first) + int(sp.count)
	if end > len(t.index) {
		return nil, malformed("decision info", "index span [%d, %d) exceeds %d entries", sp.first, end, len(t.index))
	}
	return t.index[sp.first:end], nil
}

func (t *decisionTables) value(off uint32) (string, error) {
	start := 2 * uint64(off)
	if start > uint64(len(t.data)) {
		return "", malformed("decision info", "string offset %d out of range", off)
	}
	for i := start; i+1 < uint64(len(t.data)); i += 2 {
		if t.data[i] == 0 && t.data[i+1] == 0 {
			s, err := utf16le.NewDecoder().Bytes(t.data[start:i])
			if err != nil {
				return "", malformed("decision info", "string at %d: %v", off, err)
			}
			return string(s), nil
		}
	}
	return "", malformed("decision info", "unterminated string at offset %d", off)
}

func (t *decisionTables) qualifier(i uint16) (Qualifier, error) {
	if int(i) >= len(t.qualifiers) {
		return Qualifier{}, malformed("decision info", "qualifier index %d out of range", i)
	}
	qe := t.qualifiers[i]
	if int(qe.distinct) >= len(t.distinct) {
		return Qualifier{}, malformed("decision info", "distinct qualifier index %d out of range", qe.distinct)
	}
	dq := t.distinct[qe.distinct]
	v, err := t.value(dq.valueOffset)
	if err != nil {
		return Qualifier{}, err
	}
	return Qualifier{
		Type:          dq.typ,
		Priority:      qe.priority,
		FallbackScore: qe.fallbackScore,
		Value:         v,
	}, nil
}

func (t *decisionTables) set(i uint16) (QualifierSet, error) {
	if int(i) >= len(t.sets) {
		return QualifierSet{}, malformed("decision info", "qualifier set index %d out of range", i)
	}
	qis, err := t.indexes(t.sets[i])
	if err != nil {
		return QualifierSet{}, err
	}
	var s QualifierSet
	for _, qi := range qis {
		q, err := t.qualifier(qi)
		if err != nil {
			return QualifierSet{}, err
		}
		s.Qualifiers = append(s.Qualifiers, q)
	}
	return s, nil
}

func (t *decisionTables) expand() ([]Decision, error) {
	var decisions []Decision
	for _, sp := range t.decisions {
		sis, err := t.indexes(sp)
		if err != nil {
			return nil, err
		}
		var dec Decision
		for _, si := range sis {
			s, err := t.set(si)
			if err != nil {
				return nil, err
			}
			dec.QualifierSets = append(dec.QualifierSets, s)
		}
		decisions = append(decisions, dec)
	}
	return decisions, nil
}
