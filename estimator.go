package graphcbo

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Estimator bundles the count, cost and weight estimators over one catalog.
//
// Concurrency model:
//   - Every method is a pure function of its arguments and the catalog.
//   - Nothing is shared between calls except the catalog (and its cache),
//     which must tolerate concurrent reads.
//   - Estimators never block; WeighAll only fans calls out.
type Estimator struct {
	opts    Options
	catalog Catalog
	cache   *CachedCatalog // nil when caching is disabled
	counts  *CountEstimator
	extend  *ExtendCostEstimator
	join    *JoinCostEstimator
	weights *WeightEstimator
	log     *slog.Logger
	metrics *Metrics
}

// New returns an Estimator over catalog configured by opts.
func New(catalog Catalog, opts Options) *Estimator {
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultOptions().Parallelism
	}
	e := &Estimator{
		opts:    opts,
		catalog: catalog,
		log:     opts.logger(),
		metrics: opts.Metrics,
	}
	if opts.CacheCapacity > 0 {
		e.cache = NewCachedCatalog(catalog, opts.CacheCapacity, opts.Metrics)
		e.catalog = e.cache
	}
	e.counts = NewCountEstimator(e.catalog, opts)
	e.extend = NewExtendCostEstimator(e.counts, opts)
	e.join = &JoinCostEstimator{}
	e.weights = NewWeightEstimator(e.counts, e.extend)

	e.log.Debug("estimator created",
		"max_pattern_size", e.counts.MaxPatternSize(),
		"cache_capacity", opts.CacheCapacity,
		"label_delta", !opts.DisableLabelDelta,
	)
	return e
}

func (e *Estimator) Counts() *CountEstimator      { return e.counts }
func (e *Estimator) Extend() *ExtendCostEstimator { return e.extend }
func (e *Estimator) Join() *JoinCostEstimator     { return e.join }
func (e *Estimator) Weights() *WeightEstimator    { return e.weights }
func (e *Estimator) Catalog() Catalog             { return e.catalog }

// CostEstimator returns the estimator for kind. It panics on a kind outside
// the declared constants.
func (e *Estimator) CostEstimator(kind CostKind) CostEstimator {
	switch kind {
	case KindExtend:
		return e.extend
	case KindJoin:
		return e.join
	}
	precondition(false, "graphcbo: unknown cost kind %d", int(kind))
	return nil
}

// CacheStats returns catalog cache statistics; zero when caching is disabled.
func (e *Estimator) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Guard runs fn under Safe and counts recovered caller defects.
func (e *Estimator) Guard(fn func() error) error {
	err := Safe(fn)
	if err != nil && IsPreconditionViolation(err) {
		e.metrics.preconditionViolation()
		e.log.Warn("estimator precondition violated", "error", err.Error())
	}
	return err
}

// ---------------------------------------------------------------------------
// Batch evaluation of candidate extensions.
// ---------------------------------------------------------------------------

// ExtendCandidate is one way of adding Target to the matched pattern Src
// (nil for a fresh match) through Edges.
type ExtendCandidate struct {
	Src    *Pattern
	Edges  []PatternEdge
	Target PatternVertex
}

// CandidateWeight is the evaluation of one ExtendCandidate.
type CandidateWeight struct {
	Index  int
	Order  []PatternEdge       // edges in application order
	Weight float64             // total weight of the intersect extension
	Cost   *DetailedExpandCost // detailed cost when the candidate has a single edge
	Err    error               // ErrCostUnavailable or a recovered precondition violation
}

// WeighAll evaluates every candidate concurrently with at most
// Options.Parallelism goroutines. Per-candidate failures are reported in
// CandidateWeight.Err and never abort the batch; the returned error is
// non-nil only when ctx is done before every candidate was scheduled.
func (e *Estimator) WeighAll(ctx context.Context, candidates []ExtendCandidate) ([]CandidateWeight, error) {
	results := make([]CandidateWeight, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)

	scheduled := 0
	for i := range candidates {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			results[i] = e.weighOne(i, candidates[i])
			return nil
		})
		scheduled++
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if scheduled < len(candidates) {
		return results, ctx.Err()
	}
	return results, nil
}

func (e *Estimator) weighOne(i int, c ExtendCandidate) CandidateWeight {
	res := CandidateWeight{Index: i}
	res.Err = e.Guard(func() error {
		res.Order = e.weights.Order(c.Edges, c.Target)
		w, err := e.weights.Weight(c.Edges, c.Target)
		if err != nil {
			return err
		}
		res.Weight = w
		if len(c.Edges) == 1 {
			cost, err := e.extend.Estimate(c.Src, c.Edges[0], c.Target)
			if err != nil {
				return err
			}
			res.Cost = &cost
		}
		return nil
	})
	return res
}
