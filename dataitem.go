// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"bytes"
	"fmt"

	"github.com/bpowers/pri/internal/binio"
)

const (
	dataItemHeaderSize = 12
	maxStringRef       = 0xffff
)

// ItemRef locates one item inside DataItem.Data.
type ItemRef struct {
	Offset uint32
	Length uint32
}

// DataItem is a table of string and blob values packed into one data
// area.  String refs are stored as 16-bit fields on disk.
type DataItem struct {
	Strings []ItemRef
	Blobs   []ItemRef
	Data    []byte

	padding int
}

func (d *DataItem) Identifier() Identifier {
	return DataItemIdentifier
}

func (d *DataItem) NumStrings() int {
	return len(d.Strings)
}

func (d *DataItem) NumBlobs() int {
	return len(d.Blobs)
}

// AddString appends s to the data area and returns its index.  String
// refs are 16 bits on disk, so a string must start within the first 64 KiB
// of the data area and be at most 64 KiB long; add strings before blobs.
func (d *DataItem) AddString(s string) (int, error) {
	if off := len(d.Data); off > maxStringRef || len(s) > maxStringRef {
		return 0, malformed("data item", "string at offset %d of length %d overflows 16-bit refs", off, len(s))
	}
	d.Strings = append(d.Strings, d.add([]byte(s)))
	return len(d.Strings) - 1, nil
}

// AddBlob appends b to the data area and returns its index.
func (d *DataItem) AddBlob(b []byte) int {
	d.Blobs = append(d.Blobs, d.add(b))
	return len(d.Blobs) - 1
}

func (d *DataItem) add(b []byte) ItemRef {
	ref := ItemRef{Offset: uint32(len(d.Data)), Length: uint32(len(b))}
	d.Data = append(d.Data, b...)
	return ref
}

func (d *DataItem) String(i int) (string, bool) {
	if i < 0 || i >= len(d.Strings) {
		return "", false
	}
	b, ok := d.slice(d.Strings[i])
	return string(b), ok
}

func (d *DataItem) Blob(i int) ([]byte, bool) {
	if i < 0 || i >= len(d.Blobs) {
		return nil, false
	}
	return d.slice(d.Blobs[i])
}

func (d *DataItem) slice(ref ItemRef) ([]byte, bool) {
	end := uint64(ref.Offset) + uint64(ref.Length)
	if end > uint64(len(d.Data)) {
		return nil, false
	}
	return d.Data[ref.Offset:end], true
}

func (d *DataItem) validate() error {
	if len(d.Strings) > 0xffff || len(d.Blobs) > 0xffff {
		return malformed("data item", "too many items (%d strings, %d blobs)", len(d.Strings), len(d.Blobs))
	}
	if uint64(len(d.Data)) > 0xffffffff {
		return malformed("data item", "data area too large")
	}
	for i, ref := range d.Strings {
		if ref.Offset > maxStringRef || ref.Length > maxStringRef {
			return malformed("data item", "string %d ref (%d, %d) overflows 16 bits", i, ref.Offset, ref.Length)
		}
		if _, ok := d.slice(ref); !ok {
			return malformed("data item", "string %d out of range", i)
		}
	}
	for i, ref := range d.Blobs {
		if _, ok := d.slice(ref); !ok {
			return malformed("data item", "blob %d out of range", i)
		}
	}
	return nil
}

func (d *DataItem) encodePayload(w *binio.Writer) error {
	if err := d.validate(); err != nil {
		return err
	}
	w.U32(0)
	w.U16(uint16(len(d.Strings)))
	w.U16(uint16(len(d.Blobs)))
	w.U32(uint32(len(d.Data)))
	for _, ref := range d.Strings {
		w.U16(uint16(ref.Offset))
		w.U16(uint16(ref.Length))
	}
	for _, ref := range d.Blobs {
		w.U32(ref.Offset)
		w.U32(ref.Length)
	}
	w.Bytes(d.Data)
	writePadding(w, d.padding)
	return w.Err()
}

func (d *DataItem) GoString() string {
	return fmt.Sprintf("&pri.DataItem{Strings: %d, Blobs: %d, Data: %d bytes}", len(d.Strings), len(d.Blobs), len(d.Data))
}

func decodeDataItem(_ Identifier, length int, r *binio.Reader) (SectionData, error) {
	payload, err := readPayload(length, r)
	if err != nil {
		return nil, err
	}
	if len(payload) < dataItemHeaderSize {
		return nil, malformed("data item", "payload of %d bytes is shorter than its header", len(payload))
	}

	br := binio.NewReader(bytes.NewReader(payload))
	reserved := br.U32()
	numStrings := int(br.U16())
	numBlobs := int(br.U16())
	dataLen := int64(br.U32())
	if reserved != 0 {
		return nil, malformed("data item", "reserved field is %#x", reserved)
	}
	if need := int64(dataItemHeaderSize) + 4*int64(numStrings) + 8*int64(numBlobs) + dataLen; need > int64(len(payload)) {
		return nil, malformed("data item", "tables need %d bytes, payload has %d", need, len(payload))
	}

	d := &DataItem{}
	if numStrings > 0 {
		d.Strings = make([]ItemRef, numStrings)
		for i := range d.Strings {
			d.Strings[i].Offset = uint32(br.U16())
			d.Strings[i].Length = uint32(br.U16())
		}
	}
	if numBlobs > 0 {
		d.Blobs = make([]ItemRef, numBlobs)
		for i := range d.Blobs {
			d.Blobs[i].Offset = br.U32()
			d.Blobs[i].Length = br.U32()
		}
	}
	d.Data = br.Bytes(int(dataLen))
	if err := br.Err(); err != nil {
		return nil, malformed("data item", "%v", err)
	}

	if d.padding, err = trailingPadding("data item", payload[br.N():]); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}
