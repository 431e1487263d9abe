// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bpowers/pri"
)

// Manifest lists the sections of a file to build, in order.
//
//	sections:
//	  - identifier: "[mrm_dataitem] "
//	    strings: [hello, world]
//	  - identifier: "[custom_kind]"
//	    qualifier: 2
//	    payload: custom.bin
type Manifest struct {
	Sections []ManifestSection `yaml:"sections"`

	// payload paths are relative to the manifest
	dir string
}

// ManifestSection describes one section.  Exactly one of Payload, Hex or
// Strings/Blobs supplies the payload bytes.
type ManifestSection struct {
	Identifier   string   `yaml:"identifier"`
	Qualifier    uint32   `yaml:"qualifier"`
	Flags        uint16   `yaml:"flags"`
	SectionFlags uint16   `yaml:"section_flags"`
	Payload      string   `yaml:"payload"`
	Hex          string   `yaml:"hex"`
	Strings      []string `yaml:"strings"`
	Blobs        []string `yaml:"blobs"` // hex encoded
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Build assembles a File.  Payloads for recognized identifiers are decoded,
// so malformed known payloads are rejected here rather than by readers.
func (m *Manifest) Build() (*pri.File, error) {
	f := pri.New()
	for i, ms := range m.Sections {
		data, err := ms.data(m.dir)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		f.AddSection(pri.Section{
			Qualifier:    ms.Qualifier,
			Flags:        ms.Flags,
			SectionFlags: ms.SectionFlags,
			Data:         data,
		})
	}
	return f, nil
}

func (ms *ManifestSection) data(dir string) (pri.SectionData, error) {
	sources := 0
	for _, set := range []bool{ms.Payload != "", ms.Hex != "", len(ms.Strings) > 0 || len(ms.Blobs) > 0} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("payload, hex and strings/blobs are mutually exclusive")
	}

	if len(ms.Strings) > 0 || len(ms.Blobs) > 0 {
		if ms.Identifier != "" && pri.ParseIdentifier(ms.Identifier) != pri.DataItemIdentifier {
			return nil, fmt.Errorf("strings/blobs require identifier %q", pri.DataItemIdentifier.String())
		}
		d := &pri.DataItem{}
		for j, s := range ms.Strings {
			if _, err := d.AddString(s); err != nil {
				return nil, fmt.Errorf("string %d: %w", j, err)
			}
		}
		for j, b := range ms.Blobs {
			blob, err := hex.DecodeString(b)
			if err != nil {
				return nil, fmt.Errorf("blob %d: %w", j, err)
			}
			d.AddBlob(blob)
		}
		return d, nil
	}

	if ms.Identifier == "" {
		return nil, errors.New("identifier is required")
	}
	if len(ms.Identifier) > len(pri.Identifier{}) {
		return nil, fmt.Errorf("identifier %q is longer than 16 bytes", ms.Identifier)
	}

	var payload []byte
	switch {
	case ms.Payload != "":
		path := ms.Payload
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		var err error
		if payload, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	case ms.Hex != "":
		var err error
		if payload, err = hex.DecodeString(ms.Hex); err != nil {
			return nil, fmt.Errorf("hex: %w", err)
		}
	}
	return pri.DecodeSectionData(pri.ParseIdentifier(ms.Identifier), payload)
}
