package graphcbo

import "fmt"

// ResultOpt is the path-expand result option attached to an element.
// The estimators never interpret it; rewrites carry it over unchanged.
type ResultOpt string

// PathOpt is the path-expand uniqueness option attached to an element.
// Opaque to the estimators, like ResultOpt.
type PathOpt string

const (
	ResultEndV    ResultOpt = "END_V"
	ResultAllV    ResultOpt = "ALL_V"
	ResultAllVE   ResultOpt = "ALL_V_E"
	PathArbitrary PathOpt   = "ARBITRARY"
	PathSimple    PathOpt   = "SIMPLE"
	PathTrail     PathOpt   = "TRAIL"
)

// CountRange is a hop-count hint for path-expand edges (lower inclusive,
// upper exclusive).
type CountRange struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// ElementDetails is the metadata shared by pattern vertices and edges.
// The zero value is not valid; use NewElementDetails.
type ElementDetails struct {
	selectivity float64
	countRange  *CountRange
	resultOpt   ResultOpt
	pathOpt     PathOpt
	optional    bool
}

// DetailOption customizes ElementDetails at construction.
type DetailOption func(*ElementDetails)

// WithSelectivity sets the fraction of rows surviving the element's predicate.
func WithSelectivity(s float64) DetailOption {
	return func(d *ElementDetails) { d.selectivity = s }
}

// WithCountRange attaches a hop-count hint.
func WithCountRange(lower, upper int) DetailOption {
	return func(d *ElementDetails) { d.countRange = &CountRange{Lower: lower, Upper: upper} }
}

// WithResultOpt sets the opaque result option.
func WithResultOpt(o ResultOpt) DetailOption {
	return func(d *ElementDetails) { d.resultOpt = o }
}

// WithPathOpt sets the opaque path option.
func WithPathOpt(o PathOpt) DetailOption {
	return func(d *ElementDetails) { d.pathOpt = o }
}

// AsOptional marks the element as optional (OPTIONAL MATCH semantics).
func AsOptional() DetailOption {
	return func(d *ElementDetails) { d.optional = true }
}

// NewElementDetails returns details with selectivity 1.0 and the given options
// applied. It panics if the resulting selectivity is outside (0,1].
func NewElementDetails(opts ...DetailOption) ElementDetails {
	d := ElementDetails{selectivity: 1.0}
	for _, opt := range opts {
		opt(&d)
	}
	checkSelectivity(d.selectivity)
	return d
}

func checkSelectivity(s float64) {
	precondition(s > 0 && s <= 1, "graphcbo: selectivity %v outside (0,1]", s)
}

// Selectivity returns the predicate selectivity in (0,1].
func (d ElementDetails) Selectivity() float64 {
	if d.selectivity == 0 {
		// Zero-value details carry no predicate.
		return 1.0
	}
	return d.selectivity
}

// CountRange returns the hop-count hint, if any.
func (d ElementDetails) CountRange() (CountRange, bool) {
	if d.countRange == nil {
		return CountRange{}, false
	}
	return *d.countRange, true
}

func (d ElementDetails) ResultOpt() ResultOpt { return d.resultOpt }
func (d ElementDetails) PathOpt() PathOpt     { return d.pathOpt }
func (d ElementDetails) Optional() bool       { return d.optional }

// HasPredicate reports whether a predicate narrows the element.
func (d ElementDetails) HasPredicate() bool { return d.Selectivity() < 1.0 }

// WithSelectivity returns a copy with the selectivity replaced and every
// other field preserved.
func (d ElementDetails) WithSelectivity(s float64) ElementDetails {
	checkSelectivity(s)
	out := d
	out.selectivity = s
	if d.countRange != nil {
		r := *d.countRange
		out.countRange = &r
	}
	return out
}

func (d ElementDetails) String() string {
	s := fmt.Sprintf("sel=%g", d.Selectivity())
	if d.countRange != nil {
		s += fmt.Sprintf(" range=[%d,%d)", d.countRange.Lower, d.countRange.Upper)
	}
	if d.optional {
		s += " optional"
	}
	return s
}
