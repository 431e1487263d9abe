// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package pri

import (
	"fmt"

	"github.com/bpowers/pri/internal/binio"
)

// UnknownSection holds a payload whose identifier has no typed decoder.
// Its bytes are written back exactly as they were read.
//
// An UnknownSection whose ID matches one of KnownIdentifiers will be
// decoded as that kind when the file is read back.
type UnknownSection struct {
	ID   Identifier
	Data []byte
}

func (u *UnknownSection) Identifier() Identifier {
	return u.ID
}

func (u *UnknownSection) String() string {
	return fmt.Sprintf("UnknownSection{ID: %q, len: %d}", u.ID.String(), len(u.Data))
}

func (u *UnknownSection) encodePayload(w *binio.Writer) error {
	w.Bytes(u.Data)
	return w.Err()
}

func decodeUnknown(id Identifier, length int, r *binio.Reader) (SectionData, error) {
	data := r.Bytes(length)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return &UnknownSection{ID: id, Data: data}, nil
}
