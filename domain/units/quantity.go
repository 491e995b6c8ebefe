// Package units provides the value-with-unit abstraction used throughout
// the validation pipeline. It is intentionally small: a unit tag, a table of
// linear conversions between tags, and arithmetic that refuses to mix units.
package units

import (
	"fmt"
	"math"
)

// Unit is a physical unit tag. Tags are compared with ==.
type Unit string

const (
	Dimensionless Unit = ""
	Ohm           Unit = "ohm"
	Megaohm       Unit = "Mohm"
	Millivolt     Unit = "mV"
	Volt          Unit = "V"
	Nanoampere    Unit = "nA"
	Picoampere    Unit = "pA"
	Millisecond   Unit = "ms"
	Celsius       Unit = "degC"
)

// dimension groups units that convert into each other by a scale factor.
type dimension string

type unitInfo struct {
	dim    dimension
	factor float64 // multiplier to the base unit of the dimension
}

var registry = map[Unit]unitInfo{
	Dimensionless: {dim: "none", factor: 1},
	Ohm:           {dim: "resistance", factor: 1},
	Megaohm:       {dim: "resistance", factor: 1e6},
	Volt:          {dim: "voltage", factor: 1},
	Millivolt:     {dim: "voltage", factor: 1e-3},
	Nanoampere:    {dim: "current", factor: 1e-9},
	Picoampere:    {dim: "current", factor: 1e-12},
	Millisecond:   {dim: "time", factor: 1e-3},
	Celsius:       {dim: "temperature", factor: 1},
}

// Known reports whether the unit is in the conversion table.
func (u Unit) Known() bool {
	_, ok := registry[u]
	return ok
}

// String returns the unit tag
func (u Unit) String() string {
	if u == Dimensionless {
		return "dimensionless"
	}
	return string(u)
}

// Factor returns the multiplier that converts a magnitude in `from` into `to`.
func Factor(from, to Unit) (float64, error) {
	if from == to {
		return 1, nil
	}
	fi, ok := registry[from]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", from)
	}
	ti, ok := registry[to]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", to)
	}
	if fi.dim != ti.dim {
		return 0, fmt.Errorf("cannot convert %s to %s: incompatible dimensions", from, to)
	}
	return fi.factor / ti.factor, nil
}

// Quantity is a scalar magnitude tagged with a unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// New creates a quantity
func New(value float64, unit Unit) Quantity {
	return Quantity{Value: value, Unit: unit}
}

// ConvertTo rescales q into the target unit.
func (q Quantity) ConvertTo(target Unit) (Quantity, error) {
	f, err := Factor(q.Unit, target)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value * f, Unit: target}, nil
}

// Sub returns q - other. other is converted into q's unit first.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	o, err := other.ConvertTo(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value - o.Value, Unit: q.Unit}, nil
}

// Ratio divides q by other after bringing both into q's unit; the result is
// dimensionless.
func (q Quantity) Ratio(other Quantity) (float64, error) {
	o, err := other.ConvertTo(q.Unit)
	if err != nil {
		return 0, err
	}
	return q.Value / o.Value, nil
}

// Scale multiplies the magnitude, keeping the unit.
func (q Quantity) Scale(k float64) Quantity {
	return Quantity{Value: q.Value * k, Unit: q.Unit}
}

// IsFinite reports whether the magnitude is neither NaN nor infinite.
func (q Quantity) IsFinite() bool {
	return !math.IsNaN(q.Value) && !math.IsInf(q.Value, 0)
}

func (q Quantity) String() string {
	if q.Unit == Dimensionless {
		return fmt.Sprintf("%g", q.Value)
	}
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}

// Series is an ordered sequence of magnitudes sharing one unit.
type Series struct {
	Values []float64 `json:"values"`
	Unit   Unit      `json:"unit"`
}

// NewSeries copies values into a series
func NewSeries(values []float64, unit Unit) Series {
	out := make([]float64, len(values))
	copy(out, values)
	return Series{Values: out, Unit: unit}
}

// Len returns the number of elements
func (s Series) Len() int {
	return len(s.Values)
}

// ConvertTo rescales every element into the target unit.
func (s Series) ConvertTo(target Unit) (Series, error) {
	f, err := Factor(s.Unit, target)
	if err != nil {
		return Series{}, err
	}
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		out[i] = v * f
	}
	return Series{Values: out, Unit: target}, nil
}

// Sub subtracts other elementwise. Both series must have the same length.
func (s Series) Sub(other Series) (Series, error) {
	if len(s.Values) != len(other.Values) {
		return Series{}, fmt.Errorf("length mismatch: %d vs %d", len(s.Values), len(other.Values))
	}
	o, err := other.ConvertTo(s.Unit)
	if err != nil {
		return Series{}, err
	}
	out := make([]float64, len(s.Values))
	for i := range s.Values {
		out[i] = s.Values[i] - o.Values[i]
	}
	return Series{Values: out, Unit: s.Unit}, nil
}

// At returns element i as a quantity
func (s Series) At(i int) Quantity {
	return Quantity{Value: s.Values[i], Unit: s.Unit}
}
