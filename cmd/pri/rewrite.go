// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/bpowers/pri"
)

func (a *app) extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Write one section's payload bytes to a file or stdout",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "section index",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output path (default: stdout)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 1, "--index N [--out PATH] FILE")
			if err != nil {
				return err
			}
			f, err := a.open(argv[0])
			if err != nil {
				return err
			}
			i := int(cmd.Int("index"))
			s, ok := f.Section(i)
			if !ok {
				return fmt.Errorf("section %d out of range (file has %d)", i, f.NumSections())
			}
			payload, err := s.Payload()
			if err != nil {
				return err
			}

			out := cmd.String("out")
			if out == "" || out == "-" {
				_, err = a.stdout.Write(payload)
				return err
			}
			if err := os.WriteFile(out, payload, 0644); err != nil {
				return err
			}
			a.logger.Info("extracted section", "index", i, "identifier", s.Identifier().String(), "bytes", len(payload))
			return nil
		},
	}
}

func versionPolicyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "version-policy",
		Usage: "newest|preserve: version magic to write",
		Value: "newest",
	}
}

func (a *app) writeFile(cmd *cli.Command, path string, f *pri.File) error {
	policy, err := pri.ParseVersionPolicy(a.versionPolicy(cmd))
	if err != nil {
		return err
	}
	if err := pri.WriteFile(path, f, pri.WithVersionPolicy(policy), pri.WithLogger(a.logger)); err != nil {
		return err
	}
	if st, err := os.Stat(path); err == nil {
		_, _ = fmt.Fprintf(a.stdout, "wrote %s: %d sections, %s\n", path, f.NumSections(), humanize.IBytes(uint64(st.Size())))
	}
	return nil
}

func (a *app) repackCmd() *cli.Command {
	return &cli.Command{
		Name:      "repack",
		Usage:     "Read a file and write it back out",
		ArgsUsage: "IN OUT",
		Flags:     []cli.Flag{versionPolicyFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 2, "[--version-policy newest|preserve] IN OUT")
			if err != nil {
				return err
			}
			f, err := a.open(argv[0])
			if err != nil {
				return err
			}
			return a.writeFile(cmd, argv[1], f)
		},
	}
}

func (a *app) packCmd() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Build a file from a YAML manifest",
		ArgsUsage: "MANIFEST OUT",
		Flags:     []cli.Flag{versionPolicyFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 2, "MANIFEST OUT")
			if err != nil {
				return err
			}
			m, err := LoadManifest(argv[0])
			if err != nil {
				return err
			}
			f, err := m.Build()
			if err != nil {
				return fmt.Errorf("%s: %w", argv[0], err)
			}
			return a.writeFile(cmd, argv[1], f)
		},
	}
}
