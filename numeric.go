package graphcbo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// minRows is the floor applied to every reported extend cost. A traversal
// estimated below one row is reported as exactly one row.
const minRows = 1.0

// floorRows clamps an estimated row count at minRows.
func floorRows(v float64) float64 {
	return math.Max(v, minRows)
}

// floorCost clamps every field of c at minRows.
func floorCost(c DetailedExpandCost) DetailedExpandCost {
	return DetailedExpandCost{
		ExpandRows:          floorRows(c.ExpandRows),
		ExpandFilteringRows: floorRows(c.ExpandFilteringRows),
		GetVRows:            floorRows(c.GetVRows),
		GetVFilteringRows:   floorRows(c.GetVFilteringRows),
	}
}

// scaleCost multiplies every field of c by f.
func scaleCost(c DetailedExpandCost, f float64) DetailedExpandCost {
	v := []float64{c.ExpandRows, c.ExpandFilteringRows, c.GetVRows, c.GetVFilteringRows}
	scaled := make([]float64, len(v))
	floats.ScaleTo(scaled, f, v)
	return DetailedExpandCost{
		ExpandRows:          scaled[0],
		ExpandFilteringRows: scaled[1],
		GetVRows:            scaled[2],
		GetVFilteringRows:   scaled[3],
	}
}

// product returns the product of vs; 1 for an empty slice.
func product(vs []float64) float64 {
	if len(vs) == 0 {
		return 1
	}
	return floats.Prod(vs)
}

// sum returns the sum of vs; 0 for an empty slice.
func sum(vs []float64) float64 {
	return floats.Sum(vs)
}

// powInt raises base to a non-negative integer exponent. pow(x, 0) is 1 for
// every x, so a one-edge star divides by nothing.
func powInt(base float64, exp int) float64 {
	if exp == 0 {
		return 1
	}
	return math.Pow(base, float64(exp))
}
