// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/bpowers/pri"
)

type fileInfo struct {
	Path        string `json:"path"`
	Version     string `json:"version"`
	Size        int64  `json:"size"`
	NumSections int    `json:"num_sections"`
}

type sectionInfo struct {
	Index        int    `json:"index"`
	Identifier   string `json:"identifier"`
	Kind         string `json:"kind"`
	Qualifier    uint32 `json:"qualifier"`
	Flags        uint16 `json:"flags"`
	SectionFlags uint16 `json:"section_flags"`
	PayloadSize  int    `json:"payload_size"`
	Fingerprint  string `json:"fingerprint"`
}

func describeSection(i int, s *pri.Section) (sectionInfo, error) {
	payload, err := s.Payload()
	if err != nil {
		return sectionInfo{}, fmt.Errorf("section %d: %w", i, err)
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return sectionInfo{}, fmt.Errorf("section %d: %w", i, err)
	}
	id := s.Identifier()
	return sectionInfo{
		Index:        i,
		Identifier:   id.String(),
		Kind:         pri.Kind(id),
		Qualifier:    s.Qualifier,
		Flags:        s.Flags,
		SectionFlags: s.SectionFlags,
		PayloadSize:  len(payload),
		Fingerprint:  fmt.Sprintf("%016x", fp),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show the version, size and section count of a file",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 1, "FILE")
			if err != nil {
				return err
			}
			path := argv[0]
			f, err := a.open(path)
			if err != nil {
				return err
			}
			st, err := os.Stat(path)
			if err != nil {
				return err
			}

			info := fileInfo{
				Path:        path,
				Version:     f.Version().String(),
				Size:        st.Size(),
				NumSections: f.NumSections(),
			}
			if a.cfg.Output == "json" {
				return writeJSON(a.stdout, info)
			}
			_, err = fmt.Fprintf(a.stdout, "%s\n  version:  %s\n  size:     %s (%d bytes)\n  sections: %d\n",
				info.Path, info.Version, humanize.IBytes(uint64(info.Size)), info.Size, info.NumSections)
			return err
		},
	}
}

func (a *app) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List the sections of a file",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 1, "FILE")
			if err != nil {
				return err
			}
			f, err := a.open(argv[0])
			if err != nil {
				return err
			}

			rows := make([]sectionInfo, 0, f.NumSections())
			for i := 0; i < f.NumSections(); i++ {
				s, _ := f.Section(i)
				row, err := describeSection(i, s)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}

			if a.cfg.Output == "json" {
				return writeJSON(a.stdout, rows)
			}

			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"#", "Identifier", "Kind", "Qualifier", "Flags", "Section Flags", "Size", "Fingerprint"})
			table.SetAutoWrapText(false)
			for _, r := range rows {
				table.Append([]string{
					strconv.Itoa(r.Index),
					strconv.Quote(r.Identifier),
					r.Kind,
					strconv.FormatUint(uint64(r.Qualifier), 10),
					fmt.Sprintf("%#04x", r.Flags),
					fmt.Sprintf("%#04x", r.SectionFlags),
					humanize.IBytes(uint64(r.PayloadSize)),
					r.Fingerprint,
				})
			}
			table.Render()
			return nil
		},
	}
}
