// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command dicomctl decodes, inspects, indexes and synthesizes DICOM files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/mtuann/aipac-dicom/internal/config"
	"github.com/mtuann/aipac-dicom/internal/logging"
)

const version = "0.4.0"

// CLI defines the command-line interface for dicomctl.
type CLI struct {
	Config    string `name:"config" short:"c" help:"Path to a YAML configuration file" type:"path" env:"DICOMCTL_CONFIG"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: json, console"`

	Dump    DumpCmd    `cmd:"" help:"Decode a file and print its elements"`
	Get     GetCmd     `cmd:"" help:"Print one attribute of a file"`
	Index   IndexCmd   `cmd:"" help:"Decode files and record them in the catalog"`
	Lookup  LookupCmd  `cmd:"" help:"Print the catalog record of a SOP instance"`
	List    ListCmd    `cmd:"" help:"List catalog records"`
	Synth   SynthCmd   `cmd:"" help:"Write a synthetic DICOM file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Env is bound into every command's Run method.
type Env struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
	Logger zerolog.Logger
}

// exitError carries the process exit code of a command. err may be nil when the command already
// reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line args and returns the exit code: 0 on success, 2 when a file was
// only partially decoded and 1 on any other failure.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("dicomctl"),
		kong.Description("Decode, inspect and index DICOM files"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "dicomctl: %v\n", err)
		return 1
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "dicomctl: %v\n", err)
		return 1
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "dicomctl: %v\n", err)
		return 1
	}

	err = kctx.Run(&Env{Ctx: ctx, Stdout: stdout, Stderr: stderr, Config: cfg, Logger: logger})
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "dicomctl: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "dicomctl: %v\n", err)
	return 1
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	fmt.Fprintf(env.Stdout, "dicomctl version %s\n", version)
	return nil
}
