package collector

import (
	"context"
	"fmt"

	"github.com/dbsmedya/gounveil/internal/types"
)

// RouteLoader loads the resolver used for page frontend URLs.
type RouteLoader func(ctx context.Context) (URLResolver, error)

// PageCollector emits edit, delete and frontend entries for every page type.
type PageCollector struct {
	env    Env
	reg    Registry
	routes RouteLoader
}

// NewPageCollector creates a PageCollector. routes may be nil, in which case
// no frontend entries are emitted.
func NewPageCollector(env Env, reg Registry, routes RouteLoader) *PageCollector {
	return &PageCollector{env: env, reg: reg, routes: routes}
}

func (c *PageCollector) Name() string { return "pages" }

func (c *PageCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	b := c.env.Builder

	var resolver URLResolver
	if c.routes != nil {
		r, err := c.routes(ctx)
		if err != nil {
			log.Warnw("page routing unavailable, skipping frontend URLs", "error", err)
		} else {
			resolver = r
		}
	}

	var out []types.URLEntry
	for _, d := range c.reg.PageTypes(ctx) {
		name := d.Key()

		var instances []types.Instance
		if c.env.Instances.HasInstances(ctx, d) {
			instances = c.env.Instances.Sample(ctx, d, c.env.MaxInstances)
		}
		if len(instances) == 0 {
			log.WithContentType(name).Infof("%s has no instances", name)
			out = append(out, b.NoInstances(name, b.AdminURL("pages/")))
			continue
		}

		for _, inst := range instances {
			out = append(out,
				b.Edit(name, inst.Label, b.AdminURL(fmt.Sprintf("pages/%d/edit/", inst.ID))),
				b.Delete(name, inst.Label, b.AdminURL(fmt.Sprintf("pages/%d/delete/", inst.ID))),
			)
			if resolver == nil || inst.Path == "" {
				continue
			}
			if pageURL := resolver.URL(inst.Path); pageURL != "" {
				out = append(out, b.Frontend(name, inst.Label, b.FrontendURL(pageURL)))
			}
		}
	}
	return out
}
