package graphcbo

import (
	"log/slog"
	"runtime"
)

// TypeID identifies a vertex type or an edge type in the statistics catalog.
type TypeID int32

// VertexID identifies a vertex within one pattern.
type VertexID int

// EdgeID identifies an edge within one pattern.
type EdgeID int

// EdgeTypeTriple is one admissible (source type, destination type, edge type)
// combination of a pattern edge.
type EdgeTypeTriple struct {
	Src  TypeID `json:"src"`
	Dst  TypeID `json:"dst"`
	Edge TypeID `json:"edge"`
}

// flip returns the triple as seen from the other endpoint.
func (t EdgeTypeTriple) flip() EdgeTypeTriple {
	return EdgeTypeTriple{Src: t.Dst, Dst: t.Src, Edge: t.Edge}
}

func tripleLess(a, b EdgeTypeTriple) bool {
	if a.Src != b.Src {
		return a.Src < b.Src
	}
	if a.Dst != b.Dst {
		return a.Dst < b.Dst
	}
	return a.Edge < b.Edge
}

// DetailedExpandCost is the four-stage cost of one extend step: expand along
// the edge, filter on the edge predicate, materialize the landed vertex and
// filter on the vertex predicate.
type DetailedExpandCost struct {
	ExpandRows          float64 `json:"expand_rows"`
	ExpandFilteringRows float64 `json:"expand_filtering_rows"`
	GetVRows            float64 `json:"get_v_rows"`
	GetVFilteringRows   float64 `json:"get_v_filtering_rows"`
}

// Options configures an Estimator.
type Options struct {
	// MaxPatternSizeOverride lowers the catalog's direct-lookup bound.
	// Zero keeps Catalog.MaxPatternSize(). Values above the catalog bound are ignored.
	MaxPatternSizeOverride int
	// CacheCapacity wraps the catalog in a CachedCatalog with this many entries.
	// Zero disables the cache.
	CacheCapacity int
	// DisableLabelDelta forces the label-constraint correction term to zero,
	// giving the uncorrected baseline for expand costs.
	DisableLabelDelta bool
	// Parallelism bounds the number of goroutines used by WeighAll.
	Parallelism int
	// Logger receives estimator diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics records estimator counters. May be nil.
	Metrics *Metrics
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		CacheCapacity: defaultCatalogCacheCapacity,
		Parallelism:   runtime.GOMAXPROCS(0),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
