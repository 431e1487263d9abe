// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/bpowers/pri"
)

var errFilesDiffer = errors.New("files differ")

// diffFiles compares a and b section by section, reporting each difference
// to w, and returns the number of differences.
func diffFiles(w io.Writer, a, b *pri.File) (int, error) {
	added := color.New(color.FgGreen).SprintFunc()
	removed := color.New(color.FgRed).SprintFunc()
	changed := color.New(color.FgYellow).SprintFunc()

	n := max(a.NumSections(), b.NumSections())
	diffs := 0
	for i := 0; i < n; i++ {
		sa, okA := a.Section(i)
		sb, okB := b.Section(i)
		switch {
		case okA && !okB:
			diffs++
			_, _ = fmt.Fprintf(w, "%s %d %q\n", removed("-"), i, sa.Identifier().String())
		case !okA && okB:
			diffs++
			_, _ = fmt.Fprintf(w, "%s %d %q\n", added("+"), i, sb.Identifier().String())
		default:
			ia, err := describeSection(i, sa)
			if err != nil {
				return diffs, err
			}
			ib, err := describeSection(i, sb)
			if err != nil {
				return diffs, err
			}
			if ia == ib {
				continue
			}
			diffs++
			_, _ = fmt.Fprintf(w, "%s %d %q (%s, %d bytes) -> %q (%s, %d bytes)\n", changed("~"), i,
				ia.Identifier, ia.Fingerprint, ia.PayloadSize,
				ib.Identifier, ib.Fingerprint, ib.PayloadSize)
		}
	}
	return diffs, nil
}

func (a *app) diffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare two files section by section",
		ArgsUsage: "A B",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			argv, err := args(cmd, 2, "A B")
			if err != nil {
				return err
			}
			fa, err := a.open(argv[0])
			if err != nil {
				return err
			}
			fb, err := a.open(argv[1])
			if err != nil {
				return err
			}
			if fa.Version() != fb.Version() {
				_, _ = fmt.Fprintf(a.stdout, "version: %s -> %s\n", fa.Version(), fb.Version())
			}
			n, err := diffFiles(a.stdout, fa, fb)
			if err != nil {
				return err
			}
			if n > 0 || fa.Version() != fb.Version() {
				return fmt.Errorf("%w: %d sections", errFilesDiffer, n)
			}
			return nil
		},
	}
}
