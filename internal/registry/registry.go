// Package registry discovers the CMS content types that have admin URLs.
//
// A Go binary cannot introspect the CMS's Python hook modules, so each
// installed app registers what its hooks module declares (usually from the
// apps section of the config). The database then supplies content-type ids
// and the page types that actually have instances.
package registry

import (
	"context"
	"sort"
	"strings"

	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Capability and base-class markers recognised on hook members.
const (
	CapabilityLegacyAdmin = "get_admin_urls_for_registration" // wagtail.contrib.modeladmin
	CapabilityModernAdmin = "get_admin_urls"                  // wagtail_modeladmin
	ViewSetMarker         = "ModelViewSet"
)

// BasePageType is always treated as a page type.
const BasePageType = "wagtailcore.page"

// excluded types are covered by the settings section collector.
var excluded = map[string]bool{
	"wagtailcore.locale": true,
	"wagtailcore.site":   true,
}

// IsExcluded reports whether key is handled by the settings section instead of
// the admin-record and view-set paths.
func IsExcluded(key string) bool {
	return excluded[key]
}

// HookMember is one object declared in an app's admin hooks module.
type HookMember struct {
	Name         string
	Model        string // "app_label.model", empty when the member has no model
	Capabilities []string
	Bases        []string
	BaseURLPath  string
	LabelColumn  string
	Table        string
}

func (m HookMember) has(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func (m HookMember) isViewSet() bool {
	for _, b := range m.Bases {
		if strings.Contains(b, ViewSetMarker) {
			return true
		}
	}
	return false
}

// SnippetDecl declares a model registered as a snippet.
type SnippetDecl struct {
	Model       string
	LabelColumn string
	Table       string
}

// App is what one installed app contributes to the admin.
type App struct {
	Name      string
	Requires  []string
	HasHooks  bool // false when the app has no hooks module
	Members   []HookMember
	PageTypes []string
	Snippets  []SnippetDecl
}

// ContentTypeSource resolves content types from the database. *cms.Store implements it.
type ContentTypeSource interface {
	ContentTypes(ctx context.Context) (map[string]cms.ContentTypeRow, error)
	PageContentTypes(ctx context.Context) ([]cms.ContentTypeRow, error)
}

// Registry holds registered apps and resolves them into descriptors.
type Registry struct {
	apps      []App
	installed map[string]bool
	source    ContentTypeSource
	log       *logger.Logger

	ctLoaded bool
	ctByKey  map[string]cms.ContentTypeRow
}

// New creates an empty Registry. source may be nil, in which case only
// registered declarations are used.
func New(installedApps []string, source ContentTypeSource, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault()
	}
	installed := make(map[string]bool, len(installedApps))
	for _, a := range installedApps {
		installed[a] = true
	}
	return &Registry{installed: installed, source: source, log: log}
}

// FromConfig creates a Registry and registers every app declared in cfg.Apps.
func FromConfig(cfg *config.Config, source ContentTypeSource, log *logger.Logger) *Registry {
	r := New(cfg.InstalledApps, source, log)
	for _, ac := range cfg.Apps {
		app := App{
			Name:      ac.Name,
			Requires:  ac.Requires,
			HasHooks:  len(ac.Hooks) > 0,
			PageTypes: ac.PageTypes,
		}
		for _, h := range ac.Hooks {
			app.Members = append(app.Members, HookMember{
				Name:         h.Name,
				Model:        h.Model,
				Capabilities: h.Capabilities,
				Bases:        h.Bases,
				BaseURLPath:  h.BaseURLPath,
				LabelColumn:  h.LabelColumn,
				Table:        h.Table,
			})
		}
		for _, s := range ac.Snippets {
			app.Snippets = append(app.Snippets, SnippetDecl{Model: s.Model, LabelColumn: s.LabelColumn, Table: s.Table})
		}
		r.RegisterApp(app)
	}
	return r
}

// RegisterApp adds an app in declaration order.
func (r *Registry) RegisterApp(app App) {
	r.apps = append(r.apps, app)
}

// hookApps returns apps whose hooks module can be loaded.
func (r *Registry) hookApps() []App {
	var out []App
	for _, app := range r.apps {
		if !app.HasHooks {
			continue
		}
		if missing := r.missingRequirement(app); missing != "" {
			r.log.Debugw("skipping hooks module with missing dependency", "app", app.Name, "requires", missing)
			continue
		}
		out = append(out, app)
	}
	return out
}

// declaringApps returns apps whose declarations apply, hooks or not.
func (r *Registry) declaringApps() []App {
	var out []App
	for _, app := range r.apps {
		if missing := r.missingRequirement(app); missing != "" {
			r.log.Debugw("skipping app with missing dependency", "app", app.Name, "requires", missing)
			continue
		}
		out = append(out, app)
	}
	return out
}

func (r *Registry) missingRequirement(app App) string {
	for _, req := range app.Requires {
		if !r.installed[req] {
			return req
		}
	}
	return ""
}

// contentTypes loads django_content_type once. Failures degrade to an empty map.
func (r *Registry) contentTypes(ctx context.Context) map[string]cms.ContentTypeRow {
	if r.ctLoaded {
		return r.ctByKey
	}
	r.ctLoaded = true
	r.ctByKey = map[string]cms.ContentTypeRow{}
	if r.source == nil {
		return r.ctByKey
	}

	byKey, err := r.source.ContentTypes(ctx)
	if err != nil {
		r.log.Warnw("content type lookup failed, using declared types only", "error", err)
		return r.ctByKey
	}
	r.ctByKey = byKey
	return r.ctByKey
}

// Resolve builds a descriptor for an "app_label.model" key. The namespace and
// name come from django_content_type when the type is known there, so URL
// tokens never depend on display names. ok is false for malformed keys.
func (r *Registry) Resolve(ctx context.Context, key string, kind types.Kind) (types.Descriptor, bool) {
	ct, ok := types.ParseKey(key, kind)
	if !ok {
		return types.Descriptor{}, false
	}
	if row, found := r.contentTypes(ctx)[ct.Key()]; found {
		ct.ID = row.ID
		ct.Namespace = row.AppLabel
		ct.Name = row.Model
	}
	return types.Descriptor{
		ContentType: ct,
		Source:      types.TableSource{Table: ct.TableName()},
	}, true
}

func (r *Registry) resolveWithSource(ctx context.Context, key string, kind types.Kind, table, labelColumn string) (types.Descriptor, bool) {
	d, ok := r.Resolve(ctx, key, kind)
	if !ok {
		r.log.Warnw("ignoring malformed model key", "model", key, "kind", kind)
		return d, false
	}
	if table != "" {
		d.Source.Table = table
	}
	d.Source.LabelColumn = labelColumn
	return d, true
}

// PageTypes returns declared page types in declaration order followed by the
// page types found in the database (sorted), always including the base page type.
func (r *Registry) PageTypes(ctx context.Context) []types.Descriptor {
	seen := map[string]bool{}
	var keys []string
	add := func(key string) {
		key = strings.ToLower(key)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for _, app := range r.declaringApps() {
		for _, pt := range app.PageTypes {
			add(pt)
		}
	}

	if r.source != nil {
		rows, err := r.source.PageContentTypes(ctx)
		if err != nil {
			r.log.Warnw("page type discovery failed, using declared page types only", "error", err)
		}
		var found []string
		for _, row := range rows {
			found = append(found, row.Key())
		}
		sort.Strings(found)
		for _, k := range found {
			add(k)
		}
	}
	add(BasePageType)

	var out []types.Descriptor
	for _, key := range keys {
		d, ok := r.resolveWithSource(ctx, key, types.KindPage, "wagtailcore_page", "title")
		if !ok {
			continue
		}
		d.Source.PathColumn = "url_path"
		// The base type's manager returns every page; subclasses only their own rows.
		if d.Key() != BasePageType {
			d.Source.Filter = "content_type_id = ?"
			d.Source.FilterArgs = []any{d.ID}
		}
		out = append(out, d)
	}
	return out
}

// Snippets returns registered snippet models in declaration order, without duplicates.
func (r *Registry) Snippets(ctx context.Context) []types.Descriptor {
	seen := map[string]bool{}
	var out []types.Descriptor
	for _, app := range r.declaringApps() {
		for _, s := range app.Snippets {
			d, ok := r.resolveWithSource(ctx, s.Model, types.KindSnippet, s.Table, s.LabelColumn)
			if !ok || seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			out = append(out, d)
		}
	}
	return out
}

// ViewSets returns models of hook members deriving from a ModelViewSet,
// including the excluded types; callers decide whether to skip them.
// Members without a model are dropped.
func (r *Registry) ViewSets(ctx context.Context) []types.Descriptor {
	seen := map[string]bool{}
	var out []types.Descriptor
	for _, app := range r.hookApps() {
		for _, m := range app.Members {
			if !m.isViewSet() || m.Model == "" {
				continue
			}
			d, ok := r.resolveWithSource(ctx, m.Model, types.KindViewSet, m.Table, m.LabelColumn)
			if !ok || seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			out = append(out, d)
		}
	}
	return out
}

// Discover returns every registered content type: pages, snippets, admin
// records and view-sets, in that order. Database failures degrade to the
// declared set; only context cancellation is returned as an error.
func (r *Registry) Discover(ctx context.Context) ([]types.Descriptor, error) {
	var out []types.Descriptor
	out = append(out, r.PageTypes(ctx)...)
	out = append(out, r.Snippets(ctx)...)
	out = append(out, r.ModelAdmins(ctx)...)
	for _, d := range r.ViewSets(ctx) {
		if !IsExcluded(d.Key()) {
			out = append(out, d)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
