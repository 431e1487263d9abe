// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"

	"github.com/bpowers/pri/internal/binio"
)

// SectionData is the payload of a Section.  The set of implementations is
// closed: *DataItem, *PriDescriptor, *ResourceMap, *DecisionInfo,
// *HierarchicalSchema and *UnknownSection.
type SectionData interface {
	// Identifier is the tag the payload is filed under when written.
	Identifier() Identifier

	// encodePayload writes the payload bytes.  The byte count doesn't need
	// to be known up front: the section envelope measures it afterwards.
	encodePayload(w *binio.Writer) error
}

// A payloadDecoder must consume exactly length bytes from r.
type payloadDecoder func(id Identifier, length int, r *binio.Reader) (SectionData, error)

var (
	DataItemIdentifier             = ParseIdentifier("[mrm_dataitem] \x00")
	PriDescriptorIdentifier        = ParseIdentifier("[mrm_pridescex]\x00")
	ResourceMapIdentifier          = ParseIdentifier("[mrm_res_map__]\x00")
	ResourceMap2Identifier         = ParseIdentifier("[mrm_res_map2_]\x00")
	DecisionInfoIdentifier         = ParseIdentifier("[mrm_decn_info]\x00")
	HierarchicalSchemaIdentifier   = ParseIdentifier("[mrm_hschema]  \x00")
	HierarchicalSchemaExIdentifier = ParseIdentifier("[mrm_hschemaex] ")
)

var registry = [...]struct {
	id     Identifier
	kind   string
	decode payloadDecoder
}{
	{DataItemIdentifier, "data item", decodeDataItem},
	{PriDescriptorIdentifier, "descriptor", decodePriDescriptor},
	{ResourceMapIdentifier, "resource map", decodeResourceMap},
	{ResourceMap2Identifier, "resource map", decodeResourceMap},
	{DecisionInfoIdentifier, "decision info", decodeDecisionInfo},
	{HierarchicalSchemaIdentifier, "hierarchical schema", decodeHierarchicalSchema},
	{HierarchicalSchemaExIdentifier, "hierarchical schema", decodeHierarchicalSchema},
}

// KnownIdentifiers returns the tags with a typed decoder.
func KnownIdentifiers() []Identifier {
	ids := make([]Identifier, 0, len(registry))
	for _, e := range registry {
		ids = append(ids, e.id)
	}
	return ids
}

// Kind returns a short human-readable name for a payload kind, "unknown"
// for tags without a typed decoder.
func Kind(id Identifier) string {
	for _, e := range registry {
		if e.id == id {
			return e.kind
		}
	}
	return "unknown"
}

func lookupDecoder(id Identifier) payloadDecoder {
	for _, e := range registry {
		if e.id == id {
			return e.decode
		}
	}
	return decodeUnknown
}

func decodeSectionData(id Identifier, length int, r *binio.Reader) (SectionData, error) {
	return lookupDecoder(id)(id, length, r)
}

// DecodeSectionData decodes a complete payload as the kind named by id.
// Unrecognized identifiers produce an *UnknownSection.
func DecodeSectionData(id Identifier, payload []byte) (SectionData, error) {
	br := binio.NewReader(bytes.NewReader(payload))
	d, err := decodeSectionData(id, len(payload), br)
	if err != nil {
		return nil, err
	}
	if br.N() != int64(len(payload)) {
		return nil, fmt.Errorf("%w: %s decoder consumed %d of %d bytes", ErrSectionLength, id, br.N(), len(payload))
	}
	return d, nil
}
