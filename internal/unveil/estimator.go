package unveil

import (
	"context"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gounveil/internal/collector"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Counter counts the records of a content type. *sampler.Sampler implements it.
type Counter interface {
	Count(ctx context.Context, d types.Descriptor) int64
}

// TypeEstimate is the instance count of one content type.
type TypeEstimate struct {
	Descriptor types.Descriptor
	Instances  int64
	Sampled    int64 // instances a discovery run would visit
	URLs       int64 // upper bound of entries emitted for the type
}

// EstimateResult holds the content type inventory grouped by kind.
type EstimateResult struct {
	MaxInstances int
	ByKind       *orderedmap.OrderedMap[types.Kind, []TypeEstimate]
}

// Types returns the number of content types across all kinds.
func (r *EstimateResult) Types() int {
	n := 0
	for _, k := range r.ByKind.Keys() {
		est, _ := r.ByKind.Get(k)
		n += len(est)
	}
	return n
}

// EstimatedURLs sums the per-type URL bounds. Site and settings entries are
// not included.
func (r *EstimateResult) EstimatedURLs() int64 {
	var n int64
	for _, k := range r.ByKind.Keys() {
		est, _ := r.ByKind.Get(k)
		for _, e := range est {
			n += e.URLs
		}
	}
	return n
}

// Estimator counts the instances behind every discovered content type
// without building URLs.
type Estimator struct {
	registry     collector.Registry
	media        *collector.MediaResolver
	counter      Counter
	maxInstances int
	logger       *logger.Logger
}

// NewEstimator creates a new estimator. media may be nil to skip the image
// and document types.
func NewEstimator(reg collector.Registry, media *collector.MediaResolver, counter Counter, maxInstances int, log *logger.Logger) *Estimator {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Estimator{
		registry:     reg,
		media:        media,
		counter:      counter,
		maxInstances: maxInstances,
		logger:       log,
	}
}

type kindSource struct {
	kind types.Kind
	list func(context.Context) []types.Descriptor
}

// Estimate counts instances per content type, kinds in collector order.
func (e *Estimator) Estimate(ctx context.Context) (*EstimateResult, error) {
	if e.registry == nil || e.counter == nil {
		return nil, fmt.Errorf("estimator requires a registry and a counter")
	}

	result := &EstimateResult{
		MaxInstances: e.maxInstances,
		ByKind:       orderedmap.NewOrderedMap[types.Kind, []TypeEstimate](),
	}

	groups := []kindSource{
		{types.KindPage, e.registry.PageTypes},
		{types.KindSnippet, e.registry.Snippets},
		{types.KindModelAdmin, e.registry.ModelAdmins},
		{types.KindViewSet, e.registry.ViewSets},
	}
	if e.media != nil {
		groups = append(groups,
			kindSource{types.KindImage, e.mediaType(types.KindImage)},
			kindSource{types.KindDocument, e.mediaType(types.KindDocument)},
		)
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("estimate cancelled: %w", err)
		}
		var estimates []TypeEstimate
		for _, d := range g.list(ctx) {
			estimates = append(estimates, e.estimateType(ctx, d))
		}
		result.ByKind.Set(g.kind, estimates)
	}

	e.logger.Infow("Estimate completed",
		"types", result.Types(),
		"estimated_urls", result.EstimatedURLs(),
	)
	return result, nil
}

func (e *Estimator) mediaType(kind types.Kind) func(context.Context) []types.Descriptor {
	return func(ctx context.Context) []types.Descriptor {
		return []types.Descriptor{e.media.Active(ctx, kind)}
	}
}

func (e *Estimator) estimateType(ctx context.Context, d types.Descriptor) TypeEstimate {
	est := TypeEstimate{Descriptor: d, Instances: e.counter.Count(ctx, d)}

	est.Sampled = est.Instances
	if e.maxInstances > 0 && est.Sampled > int64(e.maxInstances) {
		est.Sampled = int64(e.maxInstances)
	}

	switch {
	case est.Sampled == 0:
		est.URLs = 1
	case d.Kind == types.KindPage:
		// edit, delete and at most one frontend URL; no list entry
		est.URLs = 3 * est.Sampled
	default:
		est.URLs = 1 + 2*est.Sampled
	}
	return est
}
