package ppmfilter

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/filter"
	"github.com/gogpu/ppmfilter/internal/grid"
	"github.com/gogpu/ppmfilter/internal/ppm"
)

// canonical is in the exact form Encode writes, so an identity run must
// reproduce it byte for byte. No red sample reaches 255; a red of 255
// saturates the whole pixel even under the identity kernel.
const canonical = "P3\n3 2\n255\n254 0 0 0 255 0 0 0 255\n10 20 30 40 50 60 70 80 90\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s should not exist, Stat() = %v", path, err)
	}
}

func TestRunIdentity(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.ppm", canonical)
	kernel := writeFile(t, dir, "identity.txt", "1\n1\n1\n")
	out := filepath.Join(dir, "out.ppm")

	if err := Run(in, kernel, out); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != canonical {
		t.Errorf("identity output = %q, want %q", got, canonical)
	}
}

func TestRunIdentityRed255Saturates(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.ppm", "P3\n2 1\n255\n255 0 0 254 0 0\n")
	kernel := writeFile(t, dir, "identity.txt", "1\n1\n1\n")
	out := filepath.Join(dir, "out.ppm")

	if err := Run(in, kernel, out); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "P3\n2 1\n255\n255 255 255 254 0 0\n"; string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunSinglePixelWrap(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.ppm", "P3 1 1 255 10 20 30")
	kernel := writeFile(t, dir, "box.txt", "3 9 1 1 1 1 1 1 1 1 1")
	out := filepath.Join(dir, "out.ppm")

	if err := Run(in, kernel, out); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	g, err := ppm.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if p := g.Pixel(0, 0); p != (grid.Pixel{R: 10, G: 20, B: 30}) {
		t.Errorf("pixel = %v, want {10 20 30}", p)
	}
}

func TestRunClampPolicies(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.ppm", "P3 1 1 255 200 10 10")
	kernel := writeFile(t, dir, "double.txt", "1 0.5 1")

	tests := []struct {
		policy ClampPolicy
		want   grid.Pixel
	}{
		{ClampRedGated, grid.Pixel{R: 255, G: 255, B: 255}},
		{ClampPerChannel, grid.Pixel{R: 255, G: 20, B: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			out := filepath.Join(dir, tt.policy.String()+".ppm")
			if err := Run(in, kernel, out, WithClampPolicy(tt.policy)); err != nil {
				t.Fatalf("Run() = %v", err)
			}
			g, err := ppm.Load(out)
			if err != nil {
				t.Fatal(err)
			}
			if p := g.Pixel(0, 0); p != tt.want {
				t.Errorf("pixel = %v, want %v", p, tt.want)
			}
		})
	}
}

func TestRunKernelLayout(t *testing.T) {
	dir := t.TempDir()
	// One bright pixel in a 3x3 image. The kernel file's only non-zero
	// coefficient sits at row 0, col 1 of the flattened list.
	in := writeFile(t, dir, "in.ppm", "P3 3 3 255  0 0 0 0 0 0 0 0 0  0 0 0 90 90 90 0 0 0  0 0 0 0 0 0 0 0 0")
	kernel := writeFile(t, dir, "shift.txt", "3 1  0 1 0  0 0 0  0 0 0")

	tests := []struct {
		layout KernelLayout
		bright [2]int
	}{
		// Transposed: matrix [1][0] weights (x-1, y), so the bright pixel
		// moves right.
		{LayoutTransposed, [2]int{2, 1}},
		// Row-major: matrix [0][1] weights (x, y-1), so it moves down.
		{LayoutRowMajor, [2]int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			out := filepath.Join(dir, tt.layout.String()+".ppm")
			if err := Run(in, kernel, out, WithKernelLayout(tt.layout)); err != nil {
				t.Fatalf("Run() = %v", err)
			}
			g, err := ppm.Load(out)
			if err != nil {
				t.Fatal(err)
			}
			for y := range 3 {
				for x := range 3 {
					want := grid.Pixel{}
					if x == tt.bright[0] && y == tt.bright[1] {
						want = grid.Pixel{R: 90, G: 90, B: 90}
					}
					if p := g.Pixel(x, y); p != want {
						t.Errorf("pixel(%d,%d) = %v, want %v", x, y, p, want)
					}
				}
			}
		})
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()

	src, err := grid.New(37, 41, 255)
	if err != nil {
		t.Fatal(err)
	}
	for y := range 41 {
		for x := range 37 {
			_ = src.Set(x, y, grid.Pixel{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x ^ y)})
		}
	}
	in := filepath.Join(dir, "in.ppm")
	if err := ppm.Save(in, src); err != nil {
		t.Fatal(err)
	}
	kernel := writeFile(t, dir, "sharpen.txt", "3 1  0 -1 0  -1 5 -1  0 -1 0")

	seq := filepath.Join(dir, "seq.ppm")
	par := filepath.Join(dir, "par.ppm")
	if err := Run(in, kernel, seq, WithWorkers(1)); err != nil {
		t.Fatal(err)
	}
	if err := Run(in, kernel, par, WithWorkers(4)); err != nil {
		t.Fatal(err)
	}

	a, _ := os.ReadFile(seq)
	b, _ := os.ReadFile(par)
	if !bytes.Equal(a, b) {
		t.Error("parallel output differs from sequential output")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	goodImage := writeFile(t, dir, "in.ppm", canonical)
	goodKernel := writeFile(t, dir, "k.txt", "1 1 1")

	tests := []struct {
		name      string
		input     string
		kernel    string
		output    string
		wantStage Stage
		wantKind  errs.Kind
		wantErr   error
	}{
		{
			name:      "missing image",
			input:     filepath.Join(dir, "nope.ppm"),
			kernel:    goodKernel,
			wantStage: StageImage,
			wantKind:  errs.KindIO,
			wantErr:   os.ErrNotExist,
		},
		{
			name:      "bad magic",
			input:     writeFile(t, dir, "p6.ppm", "P6 1 1 255 0 0 0"),
			kernel:    goodKernel,
			wantStage: StageImage,
			wantKind:  errs.KindFormat,
			wantErr:   ppm.ErrBadMagic,
		},
		{
			name:      "missing kernel",
			input:     goodImage,
			kernel:    filepath.Join(dir, "nope.txt"),
			wantStage: StageKernel,
			wantKind:  errs.KindIO,
			wantErr:   os.ErrNotExist,
		},
		{
			name:      "truncated kernel",
			input:     goodImage,
			kernel:    writeFile(t, dir, "short.txt", "3 1 1 2 3 4 5"),
			wantStage: StageKernel,
			wantKind:  errs.KindFormat,
			wantErr:   filter.ErrCoefficientCount,
		},
		{
			name:      "zero scale",
			input:     goodImage,
			kernel:    writeFile(t, dir, "zero.txt", "1 0 1"),
			wantStage: StageKernel,
			wantKind:  errs.KindDomain,
			wantErr:   filter.ErrZeroScale,
		},
		{
			name:      "unwritable output",
			input:     goodImage,
			kernel:    goodKernel,
			output:    filepath.Join(dir, "no", "such", "dir", "out.ppm"),
			wantStage: StageOutput,
			wantKind:  errs.KindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.output
			if out == "" {
				out = filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".ppm")
			}

			err := Run(tt.input, tt.kernel, out)
			if err == nil {
				t.Fatal("Run() succeeded, want error")
			}

			stage, ok := StageOf(err)
			if !ok || stage != tt.wantStage {
				t.Errorf("StageOf() = %q, %v; want %q", stage, ok, tt.wantStage)
			}
			if got := errs.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %q, want %q", got, tt.wantKind)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantErr)
			}
			assertNoFile(t, out)
		})
	}
}

func TestRunLogsStages(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	dir := t.TempDir()
	in := writeFile(t, dir, "in.ppm", canonical)
	kernel := writeFile(t, dir, "k.txt", "1 1 1")
	if err := Run(in, kernel, filepath.Join(dir, "out.ppm")); err != nil {
		t.Fatal(err)
	}

	for _, event := range []string{
		"ppmfilter.decoded",
		"ppmfilter.kernel_loaded",
		"ppmfilter.convolved",
		"ppmfilter.written",
	} {
		if !strings.Contains(buf.String(), event) {
			t.Errorf("log output missing %s:\n%s", event, buf.String())
		}
	}
	if !strings.Contains(buf.String(), "duration=") {
		t.Error("convolved event should carry a duration")
	}
}

func TestFilter(t *testing.T) {
	src, err := grid.FromRows(255, [][]grid.Pixel{
		{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}},
	})
	if err != nil {
		t.Fatal(err)
	}
	before := src.Clone()

	dst, err := Filter(src, filter.Identity(), WithWorkers(0))
	if err != nil {
		t.Fatalf("Filter() = %v", err)
	}
	if !dst.Equal(src) {
		t.Error("identity Filter() should reproduce the input")
	}
	if !src.Equal(before) {
		t.Error("Filter() modified its input")
	}

	if _, err := Filter(nil, filter.Identity()); !errors.Is(err, filter.ErrNilInput) {
		t.Errorf("Filter(nil) error = %v, want ErrNilInput", err)
	}
}

func TestStageError(t *testing.T) {
	inner := errors.New("boom")
	err := stageError(StageOutput, inner)

	if err.Error() != "output: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("StageError should unwrap to the inner error")
	}
	if stageError(StageImage, nil) != nil {
		t.Error("stageError(nil) should be nil")
	}
	if _, ok := StageOf(inner); ok {
		t.Error("StageOf() on a plain error should report false")
	}

	var nilErr *StageError
	if nilErr.Error() != "<nil>" || nilErr.Unwrap() != nil {
		t.Error("nil *StageError should be safe to use")
	}
}

func TestOptions(t *testing.T) {
	o := newOptions(nil)
	if o.workers != 1 || o.layout != LayoutTransposed || o.clamp != ClampRedGated {
		t.Errorf("default options = %+v", o)
	}

	o = newOptions([]Option{WithWorkers(-3), WithKernelLayout(LayoutRowMajor), WithClampPolicy(ClampPerChannel)})
	if o.workers != 0 || o.layout != LayoutRowMajor || o.clamp != ClampPerChannel {
		t.Errorf("options = %+v", o)
	}

	if l, err := ParseKernelLayout("row-major"); err != nil || l != LayoutRowMajor {
		t.Errorf("ParseKernelLayout() = %v, %v", l, err)
	}
	if p, err := ParseClampPolicy("per-channel"); err != nil || p != ClampPerChannel {
		t.Errorf("ParseClampPolicy() = %v, %v", p, err)
	}
}
