// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bpowers/pri/internal/binio"
)

// NoSection marks an absent section reference in a PriDescriptor.
const NoSection = 0xffff

const priDescriptorHeaderSize = 20

type PriDescriptorFlags uint16

const (
	AutoMerge PriDescriptorFlags = 1 << iota
	IsDeploymentMergeable
	IsDeploymentMergeResult
	IsAutomergeMergeResult
)

var priDescriptorFlagNames = [...]string{
	"AutoMerge",
	"IsDeploymentMergeable",
	"IsDeploymentMergeResult",
	"IsAutomergeMergeResult",
}

func (f PriDescriptorFlags) String() string {
	if f == 0 {
		return "0"
	}
	var names []string
	for i, name := range priDescriptorFlagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := f &^ (1<<len(priDescriptorFlagNames) - 1); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint16(rest)))
	}
	return strings.Join(names, "|")
}

// PriDescriptor is the top-level index of a file: it records which
// sections hold schemas, decision tables, resource maps and data items.
// Section references are indexes into the File's section list.
type PriDescriptor struct {
	Flags                     PriDescriptorFlags
	IncludedFileListSection   uint16
	PrimaryResourceMapSection uint16

	HierarchicalSchemaSections []uint16
	DecisionInfoSections       []uint16
	ResourceMapSections        []uint16
	ReferencedFileSections     []uint16
	DataItemSections           []uint16

	padding int
}

// NewPriDescriptor returns a descriptor with no included file list and no
// primary resource map.
func NewPriDescriptor() *PriDescriptor {
	return &PriDescriptor{
		IncludedFileListSection:   NoSection,
		PrimaryResourceMapSection: NoSection,
	}
}

func (d *PriDescriptor) Identifier() Identifier {
	return PriDescriptorIdentifier
}

func (d *PriDescriptor) lists() [5]*[]uint16 {
	return [5]*[]uint16{
		&d.HierarchicalSchemaSections,
		&d.DecisionInfoSections,
		&d.ResourceMapSections,
		&d.ReferencedFileSections,
		&d.DataItemSections,
	}
}

func (d *PriDescriptor) encodePayload(w *binio.Writer) error {
	for _, l := range d.lists() {
		if len(*l) > 0xffff {
			return malformed("descriptor", "section list of %d entries", len(*l))
		}
	}
	w.U16(uint16(d.Flags))
	w.U16(d.IncludedFileListSection)
	w.U16(0)
	w.U16(uint16(len(d.HierarchicalSchemaSections)))
	w.U16(uint16(len(d.DecisionInfoSections)))
	w.U16(uint16(len(d.ResourceMapSections)))
	w.U16(d.PrimaryResourceMapSection)
	w.U16(uint16(len(d.ReferencedFileSections)))
	w.U16(uint16(len(d.DataItemSections)))
	w.U16(0)
	for _, l := range d.lists() {
		for _, idx := range *l {
			w.U16(idx)
		}
	}
	writePadding(w, d.padding)
	return w.Err()
}

func decodePriDescriptor(_ Identifier, length int, r *binio.Reader) (SectionData, error) {
	payload, err := readPayload(length, r)
	if err != nil {
		return nil, err
	}
	if len(payload) < priDescriptorHeaderSize {
		return nil, malformed("descriptor", "payload of %d bytes is shorter than its header", len(payload))
	}

	br := binio.NewReader(bytes.NewReader(payload))
	d := &PriDescriptor{}
	d.Flags = PriDescriptorFlags(br.U16())
	d.IncludedFileListSection = br.U16()
	reserved0 := br.U16()
	numSchemas := br.U16()
	numDecisions := br.U16()
	numResourceMaps := br.U16()
	d.PrimaryResourceMapSection = br.U16()
	numReferencedFiles := br.U16()
	numDataItems := br.U16()
	reserved1 := br.U16()
	if reserved0 != 0 || reserved1 != 0 {
		return nil, malformed("descriptor", "reserved fields are %#x, %#x", reserved0, reserved1)
	}

	counts := [5]uint16{numSchemas, numDecisions, numResourceMaps, numReferencedFiles, numDataItems}
	total := 0
	for _, n := range counts {
		total += int(n)
	}
	if need := priDescriptorHeaderSize + 2*total; need > len(payload) {
		return nil, malformed("descriptor", "section lists need %d bytes, payload has %d", need, len(payload))
	}
	for i, l := range d.lists() {
		if counts[i] == 0 {
			continue
		}
		*l = make([]uint16, counts[i])
		for j := range *l {
			(*l)[j] = br.U16()
		}
	}
	if err := br.Err(); err != nil {
		return nil, malformed("descriptor", "%v", err)
	}

	if d.padding, err = trailingPadding("descriptor", payload[br.N():]); err != nil {
		return nil, err
	}
	return d, nil
}
