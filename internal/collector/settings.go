package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// maxFormPages bounds the form submission listings emitted.
const maxFormPages = 5

// Features tells the settings collector which optional subsystems are installed.
type Features struct {
	Auth             bool // django.contrib.auth
	Redirects        bool // wagtail.contrib.redirects
	Locales          bool // wagtail.locales
	SearchPromotions bool // wagtail.contrib.search_promotions
	Settings         bool // wagtail.contrib.settings
	Forms            bool // wagtail.contrib.forms
	Workflows        bool
}

// FeaturesFor derives Features from an installed-app predicate.
func FeaturesFor(installed func(app string) bool, workflows bool) Features {
	return Features{
		Auth:             installed("django.contrib.auth"),
		Redirects:        installed("wagtail.contrib.redirects"),
		Locales:          installed("wagtail.locales"),
		SearchPromotions: installed("wagtail.contrib.search_promotions"),
		Settings:         installed("wagtail.contrib.settings"),
		Forms:            installed("wagtail.contrib.forms"),
		Workflows:        workflows,
	}
}

// SettingsOptions holds schema details of the settings catalogue.
type SettingsOptions struct {
	UserTable     string
	FormPageTypes []string
}

// SettingsCollector emits the fixed catalogue of admin settings sections.
type SettingsCollector struct {
	env      Env
	features Features
	opts     SettingsOptions
	sites    SiteSource
	reg      Registry
}

// NewSettingsCollector creates a SettingsCollector.
func NewSettingsCollector(env Env, features Features, opts SettingsOptions, sites SiteSource, reg Registry) *SettingsCollector {
	if opts.UserTable == "" {
		opts.UserTable = "auth_user"
	}
	return &SettingsCollector{env: env, features: features, opts: opts, sites: sites, reg: reg}
}

func (c *SettingsCollector) Name() string { return "settings" }

// settingsRun accumulates the entries of one Collect call.
type settingsRun struct {
	*SettingsCollector
	ctx context.Context
	log *logger.Logger
	out []types.URLEntry
}

func (c *SettingsCollector) Collect(ctx context.Context) []types.URLEntry {
	r := &settingsRun{SettingsCollector: c, ctx: ctx, log: c.env.logger(c.Name())}

	site := r.defaultSite()
	r.siteSection(site)
	r.sectionLists()
	r.users()
	if c.features.Auth {
		r.groups()
	}
	r.collections()
	if c.features.Redirects {
		r.redirects()
	}
	if c.features.Workflows {
		r.workflows()
	}
	if c.features.Locales {
		r.locales()
	}
	r.searchPromotions()
	if c.features.Settings {
		r.settings(site)
	}
	if c.features.Forms {
		r.forms()
	}
	return r.out
}

func (r *settingsRun) add(entries ...types.URLEntry) {
	r.out = append(r.out, entries...)
}

func (r *settingsRun) defaultSite() *cms.Site {
	sites, err := r.sites.Sites(r.ctx)
	if err != nil {
		r.log.Warnw("could not load sites", "error", err)
		return nil
	}
	for i := range sites {
		if sites[i].IsDefault {
			return &sites[i]
		}
	}
	return nil
}

// editDelete emits the edit and delete entries of one representative record.
func (r *settingsRun) editDelete(section, label, editPath, deletePath string) {
	b := r.env.Builder
	name := "Settings > " + section
	r.add(
		b.Edit(name, label, b.AdminURL(editPath)),
		b.Delete(name, label, b.AdminURL(deletePath)),
	)
}

// sample reads up to limit representatives from table, labelled by labelColumn.
func (r *settingsRun) sample(key, table, labelColumn string, limit int, filter string, args ...any) []types.Instance {
	ct, _ := types.ParseKey(key, types.KindSettings)
	d := types.Descriptor{
		ContentType: ct,
		Source: types.TableSource{
			Table:       table,
			LabelColumn: labelColumn,
			Filter:      filter,
			FilterArgs:  args,
		},
	}
	return r.env.Instances.Sample(r.ctx, d, limit)
}

func (r *settingsRun) siteSection(site *cms.Site) {
	b := r.env.Builder
	r.add(b.List("Settings > Sites", b.AdminURL("sites/")))
	if site != nil {
		r.editDelete("Sites", site.Hostname,
			fmt.Sprintf("sites/%d/", site.ID),
			fmt.Sprintf("sites/%d/delete/", site.ID))
	}
}

func (r *settingsRun) sectionLists() {
	b := r.env.Builder
	sections := []struct{ name, path string }{
		{"Collections", "collections"},
		{"Users", "users"},
		{"Groups", "groups"},
		{"Redirects", "redirects"},
		{"Workflows", "workflows/list"},
		{"Workflow tasks", "workflows/tasks/index"},
	}
	if r.features.Locales {
		sections = append(sections, struct{ name, path string }{"Locales", "locales"})
	}
	for _, s := range sections {
		r.add(b.List("Settings > "+s.name, b.AdminURL(s.path+"/")))
	}
}

func (r *settingsRun) users() {
	for _, u := range r.sample("auth.user", r.opts.UserTable, "username", 1, "is_superuser = ?", true) {
		r.editDelete("Users", u.Label, fmt.Sprintf("users/%d/", u.ID), fmt.Sprintf("users/%d/delete/", u.ID))
	}
}

func (r *settingsRun) groups() {
	for _, g := range r.sample("auth.group", "auth_group", "name", 1, "") {
		r.editDelete("Groups", g.Label, fmt.Sprintf("groups/%d/", g.ID), fmt.Sprintf("groups/%d/delete/", g.ID))
	}
}

// collections skips the root collection.
func (r *settingsRun) collections() {
	for _, c := range r.sample("wagtailcore.collection", "wagtailcore_collection", "name", r.env.MaxInstances, "depth > ?", 1) {
		r.editDelete("Collections", c.Label, fmt.Sprintf("collections/%d/", c.ID), fmt.Sprintf("collections/%d/delete/", c.ID))
	}
}

func (r *settingsRun) redirects() {
	for _, rd := range r.sample("wagtailredirects.redirect", "wagtailredirects_redirect", "old_path", 1, "") {
		r.editDelete("Redirects", rd.Label, fmt.Sprintf("redirects/%d/", rd.ID), fmt.Sprintf("redirects/%d/delete/", rd.ID))
	}
}

// workflows and tasks are disabled rather than deleted; the "delete" entries
// point at the disable views.
func (r *settingsRun) workflows() {
	for _, w := range r.sample("wagtailcore.workflow", "wagtailcore_workflow", "name", 1, "") {
		r.editDelete("Workflows", w.Label,
			fmt.Sprintf("workflows/edit/%d/", w.ID),
			fmt.Sprintf("workflows/disable/%d/", w.ID))
	}
	for _, t := range r.sample("wagtailcore.task", "wagtailcore_task", "name", 1, "") {
		r.editDelete("Workflow tasks", t.Label,
			fmt.Sprintf("workflows/tasks/edit/%d/", t.ID),
			fmt.Sprintf("workflows/tasks/disable/%d/", t.ID))
	}
}

func (r *settingsRun) locales() {
	b := r.env.Builder
	locales := r.sample("wagtailcore.locale", "wagtailcore_locale", "language_code", r.env.MaxInstances, "")
	if len(locales) == 0 {
		r.log.Info("Locale has no instances")
		r.add(b.NoInstances("Settings > Locales > Example", b.AdminURL("locales/edit/1/")))
		return
	}
	for _, l := range locales {
		r.editDelete("Locales", l.Label, fmt.Sprintf("locales/edit/%d/", l.ID), fmt.Sprintf("locales/delete/%d/", l.ID))
	}
}

// searchPromotions lists the section even when the app is not installed.
func (r *settingsRun) searchPromotions() {
	b := r.env.Builder
	const name = "Settings > Search promotions"
	list := b.AdminURL("searchpicks/")
	if !r.features.SearchPromotions {
		r.add(b.List(name, list))
		return
	}

	promo, err := r.sites.FirstSearchPromotion(r.ctx)
	if err != nil {
		r.log.Warnw("could not load search promotions", "error", err)
	}
	if promo == nil {
		r.log.Info("SearchPromotion has no instances")
		r.add(b.NoInstances(name, list))
		return
	}

	label := promo.QueryString
	if label == "" {
		label = "Example"
	}
	r.add(b.List(name, list))
	r.editDelete("Search promotions", label,
		fmt.Sprintf("searchpicks/%d/", promo.ID),
		fmt.Sprintf("searchpicks/%d/delete/", promo.ID))
}

func (r *settingsRun) settings(site *cms.Site) {
	b := r.env.Builder
	r.add(b.Edit("Settings", "GenericSettings", b.AdminURL("settings/base/genericsettings/")))

	id, label := int64(1), "Example"
	if site != nil {
		id, label = site.ID, site.Hostname
	}
	r.add(b.Edit("Settings > SiteSettings", label, b.AdminURL(fmt.Sprintf("settings/base/sitesettings/%d/", id))))
}

func (r *settingsRun) forms() {
	b := r.env.Builder
	r.add(b.List("Forms Listing", b.AdminURL("forms/")))

	var ids []any
	for _, key := range r.opts.FormPageTypes {
		d, ok := r.reg.Resolve(r.ctx, key, types.KindPage)
		if !ok || d.ID == 0 {
			r.log.Debugw("form page type not found", "model", key)
			continue
		}
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return
	}

	filter := "content_type_id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
	for _, p := range r.sample("wagtailcore.page", "wagtailcore_page", "title", maxFormPages, filter, ids...) {
		r.add(b.List("Form Submissions > "+p.Label, b.AdminURL(fmt.Sprintf("forms/submissions/%d/", p.ID))))
	}
}
