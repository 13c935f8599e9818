package ppmfilter

import (
	"time"

	"github.com/gogpu/ppmfilter/internal/filter"
	"github.com/gogpu/ppmfilter/internal/grid"
	"github.com/gogpu/ppmfilter/internal/parallel"
	"github.com/gogpu/ppmfilter/internal/ppm"
)

// Run reads the P3 image at input and the kernel file at kernel, convolves
// them, and writes the result to output.
//
// Every failure is returned as a *StageError. The output file is created
// only after the whole image has been encoded successfully.
func Run(input, kernel, output string, opts ...Option) error {
	o := newOptions(opts)
	log := Logger()

	src, err := ppm.Load(input)
	if err != nil {
		return stageError(StageImage, err)
	}
	log.Debug("ppmfilter.decoded",
		"path", input,
		"width", src.Width(),
		"height", src.Height(),
		"max_color", src.MaxColor())

	k, err := filter.LoadKernel(kernel, o.layout)
	if err != nil {
		return stageError(StageKernel, err)
	}
	log.Debug("ppmfilter.kernel_loaded",
		"path", kernel,
		"size", k.Size(),
		"scale", k.Scale(),
		"layout", o.layout.String())

	dst, err := filterGrid(src, k, o)
	if err != nil {
		return stageError(StageKernel, err)
	}

	if err := ppm.Save(output, dst); err != nil {
		return stageError(StageOutput, err)
	}
	log.Info("ppmfilter.written", "path", output)

	return nil
}

// Filter convolves src with k and returns a new grid. src is not modified.
func Filter(src *grid.Grid, k *filter.Kernel, opts ...Option) (*grid.Grid, error) {
	return filterGrid(src, k, newOptions(opts))
}

func filterGrid(src *grid.Grid, k *filter.Kernel, o options) (*grid.Grid, error) {
	cvOpts := []filter.Option{filter.WithClampPolicy(o.clamp)}

	workers := 1
	if o.workers != 1 {
		pool := parallel.NewWorkerPool(o.workers)
		defer pool.Close()
		workers = pool.Workers()
		cvOpts = append(cvOpts, filter.WithPool(pool))
	}

	start := time.Now()
	dst, err := filter.NewConvolver(cvOpts...).Convolve(src, k)
	if err != nil {
		return nil, err
	}

	Logger().Info("ppmfilter.convolved",
		"width", dst.Width(),
		"height", dst.Height(),
		"kernel", k.Size(),
		"clamp", o.clamp.String(),
		"workers", workers,
		"duration", time.Since(start))

	return dst, nil
}
