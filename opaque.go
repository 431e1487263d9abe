// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"github.com/bpowers/pri/internal/binio"
)

// ResourceMap is a resource name to candidate map.  Its payload is kept
// verbatim.
type ResourceMap struct {
	// Version2 selects the [mrm_res_map2_] tag.
	Version2 bool
	Data     []byte
}

func (m *ResourceMap) Identifier() Identifier {
	if m.Version2 {
		return ResourceMap2Identifier
	}
	return ResourceMapIdentifier
}

func (m *ResourceMap) encodePayload(w *binio.Writer) error {
	w.Bytes(m.Data)
	return w.Err()
}

func decodeResourceMap(id Identifier, length int, r *binio.Reader) (SectionData, error) {
	data, err := readPayload(length, r)
	if err != nil {
		return nil, err
	}
	return &ResourceMap{Version2: id == ResourceMap2Identifier, Data: data}, nil
}

// HierarchicalSchema describes the resource namespace tree.  Its payload is
// kept verbatim.
type HierarchicalSchema struct {
	// Extended selects the [mrm_hschemaex] tag.
	Extended bool
	Data     []byte
}

func (s *HierarchicalSchema) Identifier() Identifier {
	if s.Extended {
		return HierarchicalSchemaExIdentifier
	}
	return HierarchicalSchemaIdentifier
}

func (s *HierarchicalSchema) encodePayload(w *binio.Writer) error {
	w.Bytes(s.Data)
	return w.Err()
}

func decodeHierarchicalSchema(id Identifier, length int, r *binio.Reader) (SectionData, error) {
	data, err := readPayload(length, r)
	if err != nil {
		return nil, err
	}
	return &HierarchicalSchema{Extended: id == HierarchicalSchemaExIdentifier, Data: data}, nil
}
