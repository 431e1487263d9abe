// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a synthetic .pri file with a descriptor,
// data item sections full of random strings and blobs, and sections of
// kinds the library doesn't recognize.
package main

import (
	"context"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/bpowers/pri"
)

const (
	prefix    = "ms-resource:"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

type generator struct {
	rng *rand.Rand
}

// dataItem returns n strings followed by n blobs, each blob a truncated
// HMAC of the string with the same index.
func (g *generator) dataItem(n int) (*pri.DataItem, error) {
	h := hmac.New(sha256.New, []byte(hmacKey))
	d := &pri.DataItem{}
	values := make([]string, n)
	for i := range values {
		var buf [suffixLen / 2]byte
		_, _ = g.rng.Read(buf[:])
		values[i] = fmt.Sprintf("%s%x", prefix, buf)
		if _, err := d.AddString(values[i]); err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
	}
	for _, value := range values {
		h.Reset()
		h.Write([]byte(value))
		d.AddBlob(h.Sum(nil)[:g.rng.Intn(sha256.Size)+1])
	}
	return d, nil
}

func (g *generator) unknown(i int) *pri.UnknownSection {
	payload := make([]byte, g.rng.Intn(256))
	_, _ = g.rng.Read(payload)
	return &pri.UnknownSection{
		ID:   pri.ParseIdentifier(fmt.Sprintf("[gen_%08x]", i)),
		Data: payload,
	}
}

// build returns a file whose descriptor (section 0) indexes the data item
// sections that follow it.
func (g *generator) build(dataItems, unknowns, items int) (*pri.File, error) {
	desc := pri.NewPriDescriptor()
	desc.Flags = pri.AutoMerge

	f := pri.New()
	f.AddSection(pri.Section{Data: desc})
	for i := 0; i < dataItems; i++ {
		d, err := g.dataItem(items)
		if err != nil {
			return nil, fmt.Errorf("data item %d: %w", i, err)
		}
		desc.DataItemSections = append(desc.DataItemSections, uint16(f.NumSections()))
		f.AddSection(pri.Section{Qualifier: uint32(i), Data: d})
	}
	for i := 0; i < unknowns; i++ {
		f.AddSection(pri.Section{
			Qualifier:    g.rng.Uint32(),
			Flags:        uint16(g.rng.Intn(4)),
			SectionFlags: uint16(g.rng.Intn(4)),
			Data:         g.unknown(i),
		})
	}
	return f, nil
}

func main() {
	app := &cli.Command{
		Name:      "gen-testdata",
		Usage:     "Write a synthetic .pri file",
		ArgsUsage: "OUT",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "data-items", Usage: "number of data item sections", Value: 4},
			&cli.IntFlag{Name: "unknown", Usage: "number of unrecognized sections", Value: 4},
			&cli.IntFlag{Name: "items", Usage: "strings and blobs per data item section", Value: 100},
			&cli.IntFlag{Name: "seed", Usage: "random seed (0 picks one)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.ShowAppHelp(cmd)
			}
			g := &generator{rng: newRand(int64(cmd.Int("seed")))}
			f, err := g.build(int(cmd.Int("data-items")), int(cmd.Int("unknown")), int(cmd.Int("items")))
			if err != nil {
				return err
			}
			if err := pri.WriteFile(cmd.Args().First(), f); err != nil {
				return err
			}
			fmt.Printf("wrote %d sections to %s (descriptor fingerprint %s)\n",
				f.NumSections(), cmd.Args().First(), fingerprint(f))
			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fingerprint(f *pri.File) string {
	s, ok := f.Section(0)
	if !ok {
		return "-"
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return "-"
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], fp)
	return hex.EncodeToString(b[:])
}
