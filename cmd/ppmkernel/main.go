// Command ppmkernel writes a preset convolution kernel in the kernel file
// format read by ppmfilter.
//
// Usage:
//
//	ppmkernel <identity|sharpen|edge|box|mean|gaussian> [--radius R] [--layout L] [-o file]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/ppmfilter/internal/cliflag"
	"github.com/gogpu/ppmfilter/internal/filter"
)

var presets = []string{"identity", "sharpen", "edge", "box", "mean", "gaussian"}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "ppmkernel: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		radius float64
		output string
	)
	layout := filter.LayoutTransposed

	cmd := &cobra.Command{
		Use:           "ppmkernel <preset>",
		Short:         "Write a preset convolution kernel file",
		Long:          "Presets: identity, sharpen, edge, box, mean, gaussian. --radius applies to box, mean and gaussian.",
		ValidArgs:     presets,
		Args:          cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := filter.Preset(args[0], radius)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return filter.WriteKernel(cmd.OutOrStdout(), k, layout)
			}
			return writeFile(output, k, layout)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&radius, "radius", 1, "blur radius for box, mean and gaussian")
	flags.Var(cliflag.Layout(&layout), "layout", "coefficient layout: transposed or row-major")
	flags.StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func writeFile(path string, k *filter.Kernel, layout filter.Layout) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := filter.WriteKernel(f, k, layout); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
