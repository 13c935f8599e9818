// Command ppmfilter convolves a plain-text PPM image with a kernel file.
//
// Usage:
//
//	ppmfilter [flags] <input-image> <kernel-file> <output-image>
//
// Exit status is 0 on success, 2 on bad usage, 3 when the input image
// cannot be read, 4 when the kernel file cannot be read or is invalid,
// 5 when the output cannot be written and 1 for anything else.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/ppmfilter"
	"github.com/gogpu/ppmfilter/internal/cliflag"
	"github.com/gogpu/ppmfilter/internal/config"
)

const (
	exitOK = iota
	exitInternal
	exitUsage
	exitImage
	exitKernel
	exitOutput
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks failures caused by the command line itself.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "ppmfilter: %v\n", err)
	code := exitCode(err)
	if code == exitUsage {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return code
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}

	if stage, ok := ppmfilter.StageOf(err); ok {
		switch stage {
		case ppmfilter.StageImage:
			return exitImage
		case ppmfilter.StageKernel:
			return exitKernel
		case ppmfilter.StageOutput:
			return exitOutput
		}
	}
	return exitInternal
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	var (
		configPath string
		workers    int
		debug      bool
	)
	defaults := config.Default()
	layout := defaults.KernelLayout
	clamp := defaults.Clamp

	cmd := &cobra.Command{
		Use:           "ppmfilter [flags] <input-image> <kernel-file> <output-image>",
		Short:         "Apply a convolution kernel to a P3 PPM image",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 3 {
				return &usageError{fmt.Errorf("expected 3 arguments, got %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("workers") {
				if workers < 0 {
					return &usageError{fmt.Errorf("--workers must be >= 0, got %d", workers)}
				}
				cfg.Workers = workers
			}
			if flags.Changed("kernel-layout") {
				cfg.KernelLayout = layout
			}
			if flags.Changed("clamp") {
				cfg.Clamp = clamp
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}

			ppmfilter.SetLogger(newLogger(stderr, cfg.Debug))
			defer ppmfilter.SetLogger(nil)

			return ppmfilter.Run(args[0], args[1], args[2],
				ppmfilter.WithWorkers(cfg.Workers),
				ppmfilter.WithKernelLayout(cfg.KernelLayout),
				ppmfilter.WithClampPolicy(cfg.Clamp))
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML file with default settings")
	flags.IntVar(&workers, "workers", defaults.Workers, "convolution workers (0 = GOMAXPROCS, 1 = sequential)")
	flags.Var(cliflag.Layout(&layout), "kernel-layout", "kernel coefficient layout: transposed or row-major")
	flags.Var(cliflag.Clamp(&clamp), "clamp", "channel clamp policy: red-gated or per-channel")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}))
}
