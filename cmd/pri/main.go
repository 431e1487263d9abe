// Copyright 2024 The pri Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command pri inspects, verifies and rewrites packaged resource index
// files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/bpowers/pri"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg    Config
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "pri",
		Usage:     "Inspect and rewrite packaged resource index (.pri) files",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config file (default: $XDG_CONFIG_HOME/pri/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug|info|warn|error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "table|json",
				Value:   "table",
			},
		},
		Before: a.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			a.infoCmd(),
			a.lsCmd(),
			a.verifyCmd(),
			a.extractCmd(),
			a.repackCmd(),
			a.packCmd(),
			a.diffCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return ctx, err
	}
	applyGlobalConfig(cmd, &cfg)
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return ctx, fmt.Errorf("--log-level: %w", err)
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("loaded config", "path", path, "output", a.cfg.Output, "version_policy", a.cfg.VersionPolicy)

	switch a.cfg.Output {
	case "table", "json":
	default:
		return ctx, fmt.Errorf("unknown output format %q (want table or json)", a.cfg.Output)
	}
	return ctx, nil
}

func (a *app) open(path string) (*pri.File, error) {
	return pri.Open(path, pri.WithLogger(a.logger))
}

// args returns exactly n positional arguments.
func args(cmd *cli.Command, n int, usage string) ([]string, error) {
	if cmd.Args().Len() != n {
		return nil, fmt.Errorf("usage: pri %s %s", cmd.Name, usage)
	}
	return cmd.Args().Slice(), nil
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
