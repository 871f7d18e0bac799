// Package filter describes catalog pre-filters pushed down to the store.
// Every expression is a conjunction; the zero value matches everything.
package filter

import (
	"errors"
	"fmt"
	"math"
)

// Kind distinguishes condition shapes.
type Kind int

// Condition kinds.
const (
	KindTag    Kind = iota // field equals one value
	KindTagAny             // field equals any of the values
	KindRange              // numeric field within inclusive bounds
)

// Condition constrains a single indexed field.
type Condition struct {
	kind   Kind
	field  string
	values []string
	min    *float64
	max    *float64
}

// Tag matches records whose field equals value.
func Tag(field, value string) (Condition, error) {
	if field == "" {
		return Condition{}, errors.New("filter field is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("filter %s: empty value", field)
	}
	return Condition{kind: KindTag, field: field, values: []string{value}}, nil
}

// TagAny matches records whose field equals any of values.
func TagAny(field string, values ...string) (Condition, error) {
	if field == "" {
		return Condition{}, errors.New("filter field is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("filter %s: no values", field)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("filter %s: empty value", field)
		}
	}
	return Condition{kind: KindTagAny, field: field, values: append([]string(nil), values...)}, nil
}

// Between matches records whose numeric field lies in [lo, hi]. A nil bound is open.
func Between(field string, lo, hi *float64) (Condition, error) {
	if field == "" {
		return Condition{}, errors.New("filter field is required")
	}
	if lo == nil && hi == nil {
		return Condition{}, fmt.Errorf("filter %s: at least one bound is required", field)
	}
	if (lo != nil && math.IsNaN(*lo)) || (hi != nil && math.IsNaN(*hi)) {
		return Condition{}, fmt.Errorf("filter %s: NaN bound", field)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return Condition{}, fmt.Errorf("filter %s: lower bound %g exceeds upper bound %g", field, *lo, *hi)
	}
	return Condition{kind: KindRange, field: field, min: clone(lo), max: clone(hi)}, nil
}

// Kind returns the condition shape.
func (c Condition) Kind() Kind { return c.kind }

// Field returns the constrained field.
func (c Condition) Field() string { return c.field }

// Values returns the accepted tag values.
func (c Condition) Values() []string { return c.values }

// Bounds returns the inclusive range bounds; nil is open.
func (c Condition) Bounds() (lo, hi *float64) { return c.min, c.max }

// Expression is a conjunction of conditions.
type Expression struct {
	conds []Condition
}

// And combines conditions into an expression.
func And(conds ...Condition) Expression {
	return Expression{conds: append([]Condition(nil), conds...)}
}

// Conditions returns the conjuncts in insertion order.
func (e Expression) Conditions() []Condition { return e.conds }

// IsEmpty reports whether the expression constrains nothing.
func (e Expression) IsEmpty() bool { return len(e.conds) == 0 }

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
