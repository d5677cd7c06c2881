package collector

import (
	"context"
	"fmt"

	"github.com/dbsmedya/gounveil/internal/registry"
	"github.com/dbsmedya/gounveil/internal/types"
)

// SnippetCollector emits entries for generically registered records.
type SnippetCollector struct {
	env Env
	reg Registry
}

// NewSnippetCollector creates a SnippetCollector.
func NewSnippetCollector(env Env, reg Registry) *SnippetCollector {
	return &SnippetCollector{env: env, reg: reg}
}

func (c *SnippetCollector) Name() string { return "snippets" }

func (c *SnippetCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	b := c.env.Builder

	var out []types.URLEntry
	for _, d := range c.reg.Snippets(ctx) {
		base := b.AdminURL(fmt.Sprintf("snippets/%s/%s/", d.Namespace, d.Name))
		out = append(out, c.env.collectRecords(ctx, log, d, recordURLs{
			list:   base,
			edit:   func(id int64) string { return fmt.Sprintf("%s%d/", base, id) },
			delete: func(id int64) string { return fmt.Sprintf("%s%d/delete/", base, id) },
		})...)
	}
	return out
}

// AdminRecordCollector emits entries for models registered through either
// ModelAdmin API, rooted at the custom URL path when one is declared.
type AdminRecordCollector struct {
	env Env
	reg Registry
}

// NewAdminRecordCollector creates an AdminRecordCollector.
func NewAdminRecordCollector(env Env, reg Registry) *AdminRecordCollector {
	return &AdminRecordCollector{env: env, reg: reg}
}

func (c *AdminRecordCollector) Name() string { return "modeladmin" }

// AdminRecordBase returns the list URL path of an admin record, relative to /admin/.
func AdminRecordBase(d types.Descriptor) string {
	if d.URLPath != "" {
		return d.URLPath + "/"
	}
	return fmt.Sprintf("modeladmin/%s/%s/", d.Namespace, d.Name)
}

func (c *AdminRecordCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	b := c.env.Builder

	var out []types.URLEntry
	for _, d := range c.reg.ModelAdmins(ctx) {
		base := b.AdminURL(AdminRecordBase(d))
		out = append(out, c.env.collectRecords(ctx, log, d, recordURLs{
			list:   base,
			edit:   func(id int64) string { return fmt.Sprintf("%sedit/%d/", base, id) },
			delete: func(id int64) string { return fmt.Sprintf("%sdelete/%d/", base, id) },
		})...)
	}
	return out
}

// ViewSetCollector emits entries for ModelViewSet registrations.
type ViewSetCollector struct {
	env Env
	reg Registry
}

// NewViewSetCollector creates a ViewSetCollector.
func NewViewSetCollector(env Env, reg Registry) *ViewSetCollector {
	return &ViewSetCollector{env: env, reg: reg}
}

func (c *ViewSetCollector) Name() string { return "viewsets" }

// ViewSetBase returns the list URL path of a view-set, relative to /admin/.
// Only the bare model name is used; locales are the one plural exception.
func ViewSetBase(d types.Descriptor) string {
	if d.Key() == "wagtailcore.locale" {
		return "locales/"
	}
	return d.Name + "/"
}

func (c *ViewSetCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	b := c.env.Builder

	var out []types.URLEntry
	for _, d := range c.reg.ViewSets(ctx) {
		if registry.IsExcluded(d.Key()) {
			log.WithContentType(d.Key()).Infof("skipping duplicate %s URLs, already included in settings section", d.Key())
			continue
		}
		base := b.AdminURL(ViewSetBase(d))
		out = append(out, c.env.collectRecords(ctx, log, d, recordURLs{
			list:   base,
			edit:   func(id int64) string { return fmt.Sprintf("%s%d/", base, id) },
			delete: func(id int64) string { return fmt.Sprintf("%s%d/delete/", base, id) },
		})...)
	}
	return out
}
