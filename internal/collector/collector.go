// Package collector turns discovered content types into URL entries.
//
// Each collector covers one registration convention and is stateless across
// calls: every Collect builds a fresh slice. Failures inside a collector are
// logged and degrade the affected type to its fallback output.
package collector

import (
	"context"

	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Collector emits the URL entries of one content kind.
type Collector interface {
	Name() string
	Collect(ctx context.Context) []types.URLEntry
}

// InstanceSource samples records of a content type. *sampler.Sampler implements it.
type InstanceSource interface {
	HasInstances(ctx context.Context, d types.Descriptor) bool
	Sample(ctx context.Context, d types.Descriptor, maxInstances int) []types.Instance
}

// Registry lists discovered content types. *registry.Registry implements it.
type Registry interface {
	PageTypes(ctx context.Context) []types.Descriptor
	Snippets(ctx context.Context) []types.Descriptor
	ModelAdmins(ctx context.Context) []types.Descriptor
	ViewSets(ctx context.Context) []types.Descriptor
	Resolve(ctx context.Context, key string, kind types.Kind) (types.Descriptor, bool)
}

// SiteSource reads the CMS site tree. *cms.Store implements it.
type SiteSource interface {
	Sites(ctx context.Context) ([]cms.Site, error)
	PageTitles(ctx context.Context, ids []int64) (map[int64]string, error)
	FirstPageTitle(ctx context.Context, depth int) (string, bool, error)
	FirstSearchPromotion(ctx context.Context) (*cms.SearchPromotion, error)
}

// URLResolver maps a page url_path to the URL the page is served at.
// *cms.PageRouter implements it.
type URLResolver interface {
	URL(urlPath string) string
}

// Env is what every collector shares.
type Env struct {
	Builder      *Builder
	Instances    InstanceSource
	MaxInstances int // 0 = unlimited
	Log          *logger.Logger
}

func (e Env) logger(name string) *logger.Logger {
	log := e.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return log.WithCollector(name)
}

// recordURLs describes the list/edit/delete URL shapes of one content type.
type recordURLs struct {
	list   string
	edit   func(id int64) string
	delete func(id int64) string
}

// collectRecords emits the list entry of d followed by edit and delete entries
// per sampled instance, or the NO-INSTANCES list entry when d has no records.
func (e Env) collectRecords(ctx context.Context, log *logger.Logger, d types.Descriptor, urls recordURLs) []types.URLEntry {
	name := d.Key()
	b := e.Builder

	if !e.Instances.HasInstances(ctx, d) {
		log.WithContentType(name).Infof("%s has no instances", name)
		return []types.URLEntry{b.NoInstances(name, urls.list)}
	}

	out := []types.URLEntry{b.List(name, urls.list)}
	for _, inst := range e.Instances.Sample(ctx, d, e.MaxInstances) {
		out = append(out,
			b.Edit(name, inst.Label, urls.edit(inst.ID)),
			b.Delete(name, inst.Label, urls.delete(inst.ID)),
		)
	}
	return out
}
