// Package paramspace generates the candidate grid of kernel build
// configurations for a sweep. A Space is the Cartesian product of named
// parameter axes filtered by composable prune predicates; enumeration order
// is deterministic (first axis outermost, last axis fastest) so progress
// logs and optimal-point reports are reproducible across runs.
package paramspace

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Binding is one concrete assignment of values to the swept parameters.
// Values are int or float64. A Binding is immutable once constructed.
type Binding struct {
	names  []string
	values map[string]any
}

// NewBinding builds a Binding from parallel name/value slices. It copies
// both inputs.
func NewBinding(names []string, values []any) Binding {
	n := make([]string, len(names))
	copy(n, names)
	m := make(map[string]any, len(names))
	for i, name := range names {
		m[name] = values[i]
	}
	return Binding{names: n, values: m}
}

// Names returns the parameter names in enumeration order.
func (b Binding) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Value returns the raw value for name and whether it is present.
func (b Binding) Value(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Int returns the value for name as an int, or 0 if absent.
func (b Binding) Int(name string) int {
	switch v := b.values[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Float returns the value for name as a float64, or 0 if absent.
func (b Binding) Float(name string) float64 {
	switch v := b.values[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Format renders the value for name as the integer or decimal text that is
// injected into the build configuration.
func (b Binding) Format(name string) string {
	switch v := b.values[name].(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return ""
}

// String renders the binding as "NAME=value" pairs in enumeration order.
func (b Binding) String() string {
	parts := make([]string, 0, len(b.names))
	for _, name := range b.names {
		parts = append(parts, name+"="+b.Format(name))
	}
	return strings.Join(parts, " ")
}

// Axis is one named parameter dimension with its candidate values.
type Axis struct {
	Name   string
	values []any
}

// Ints builds an axis from explicit integer values.
func Ints(name string, vals ...int) Axis {
	values := make([]any, len(vals))
	for i, v := range vals {
		values[i] = v
	}
	return Axis{Name: name, values: values}
}

// IntRange builds an axis covering min..max inclusive, stepping by step.
// A non-positive step yields an empty axis.
func IntRange(name string, min, max, step int) Axis {
	if step <= 0 {
		return Axis{Name: name}
	}
	var values []any
	for v := min; v <= max; v += step {
		values = append(values, v)
	}
	return Axis{Name: name, values: values}
}

// Floats builds an axis from explicit float values.
func Floats(name string, vals ...float64) Axis {
	values := make([]any, len(vals))
	for i, v := range vals {
		values[i] = v
	}
	return Axis{Name: name, values: values}
}

// Len returns the number of candidate values on the axis.
func (a Axis) Len() int { return len(a.values) }

// Predicate is a named prune rule over a candidate Binding. A point is
// retained only if every predicate on the Space keeps it.
type Predicate struct {
	Name string
	Keep func(Binding) bool
}

// Divisible keeps points where the dividend parameter is an integer
// multiple of the divisor parameter. Points with a zero divisor are dropped.
func Divisible(dividend, divisor string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s %% %s == 0", dividend, divisor),
		Keep: func(b Binding) bool {
			d := b.Int(divisor)
			return d != 0 && b.Int(dividend)%d == 0
		},
	}
}

// Ordered keeps points where the hi parameter is >= the lo parameter.
func Ordered(lo, hi string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s >= %s", hi, lo),
		Keep: func(b Binding) bool {
			return b.Int(hi) >= b.Int(lo)
		},
	}
}

// DividesSize keeps points where the fixed problem size is evenly divisible
// by the parameter value. Zero-valued parameters are dropped.
func DividesSize(name string, size int) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%d %% %s == 0", size, name),
		Keep: func(b Binding) bool {
			v := b.Int(name)
			return v != 0 && size%v == 0
		},
	}
}

// Space is the pruned Cartesian product of its axes.
type Space struct {
	axes   []Axis
	prunes []Predicate
}

// New creates a Space over the given axes, declared outermost first.
func New(axes ...Axis) *Space {
	return &Space{axes: axes}
}

// Prune appends predicates to the space and returns it for chaining.
// Predicates combine with logical AND.
func (s *Space) Prune(preds ...Predicate) *Space {
	s.prunes = append(s.prunes, preds...)
	return s
}

// Points returns a lazy, restartable sequence of the retained bindings in
// deterministic order: the first axis varies slowest, the last fastest.
func (s *Space) Points() iter.Seq[Binding] {
	return func(yield func(Binding) bool) {
		if len(s.axes) == 0 {
			return
		}
		for _, a := range s.axes {
			if len(a.values) == 0 {
				return
			}
		}

		names := make([]string, len(s.axes))
		for i, a := range s.axes {
			names[i] = a.Name
		}

		idx := make([]int, len(s.axes))
		values := make([]any, len(s.axes))
		for {
			for i, a := range s.axes {
				values[i] = a.values[idx[i]]
			}
			b := NewBinding(names, values)
			if s.keep(b) && !yield(b) {
				return
			}

			// Odometer increment, last axis fastest.
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(s.axes[i].values) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Bindings materializes the retained points in enumeration order.
func (s *Space) Bindings() []Binding {
	var out []Binding
	for b := range s.Points() {
		out = append(out, b)
	}
	return out
}

// Count returns the number of retained points.
func (s *Space) Count() int {
	n := 0
	for range s.Points() {
		n++
	}
	return n
}

func (s *Space) keep(b Binding) bool {
	for _, p := range s.prunes {
		if !p.Keep(b) {
			return false
		}
	}
	return true
}
