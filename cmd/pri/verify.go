// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/pri"
)

var errVerifyFailed = errors.New("verification failed")

type verifyResult struct {
	path     string
	sections int
	err      error
}

// verifyFiles parses each file in parallel.  Per-file failures are
// recorded in the results rather than cancelling the group.
func (a *app) verifyFiles(ctx context.Context, paths []string) []verifyResult {
	results := make([]verifyResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i].path = path
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			f, err := pri.Open(path, pri.WithLogger(a.logger))
			if err != nil {
				results[i].err = err
				return nil
			}
			// re-encoding catches payloads that decode but can't be written
			if _, err := f.MarshalBinary(); err != nil {
				results[i].err = fmt.Errorf("re-encode: %w", err)
				return nil
			}
			results[i].sections = f.NumSections()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check that files parse and satisfy every structural invariant",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New("usage: pri verify FILE...")
			}

			ok := color.New(color.FgGreen).SprintFunc()
			fail := color.New(color.FgRed, color.Bold).SprintFunc()

			failed := 0
			for _, r := range a.verifyFiles(ctx, cmd.Args().Slice()) {
				if r.err != nil {
					failed++
					_, _ = fmt.Fprintf(a.stdout, "%s %s: %v\n", fail("FAIL"), r.path, r.err)
					continue
				}
				_, _ = fmt.Fprintf(a.stdout, "%s   %s (%d sections)\n", ok("OK"), r.path, r.sections)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errVerifyFailed, failed, cmd.Args().Len())
			}
			return nil
		},
	}
}
