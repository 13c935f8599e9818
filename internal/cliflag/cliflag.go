// Package cliflag provides pflag values for the filter's enum settings.
package cliflag

import (
	"github.com/spf13/pflag"

	"github.com/gogpu/ppmfilter/internal/filter"
)

var (
	_ pflag.Value = (*layoutValue)(nil)
	_ pflag.Value = (*clampValue)(nil)
)

type layoutValue filter.Layout

// Layout returns a flag value that parses a kernel layout into p.
func Layout(p *filter.Layout) pflag.Value {
	return (*layoutValue)(p)
}

func (v *layoutValue) String() string { return filter.Layout(*v).String() }
func (v *layoutValue) Type() string   { return "layout" }

func (v *layoutValue) Set(s string) error {
	l, err := filter.ParseLayout(s)
	if err != nil {
		return err
	}
	*v = layoutValue(l)
	return nil
}

type clampValue filter.ClampPolicy

// Clamp returns a flag value that parses a clamp policy into p.
func Clamp(p *filter.ClampPolicy) pflag.Value {
	return (*clampValue)(p)
}

func (v *clampValue) String() string { return filter.ClampPolicy(*v).String() }
func (v *clampValue) Type() string   { return "policy" }

func (v *clampValue) Set(s string) error {
	p, err := filter.ParseClampPolicy(s)
	if err != nil {
		return err
	}
	*v = clampValue(p)
	return nil
}
