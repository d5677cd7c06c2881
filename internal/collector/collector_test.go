package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gounveil/internal/cms"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// ============================================================================
// Test Fakes
// ============================================================================

type fakeInstances struct {
	byTable map[string][]types.Instance
	queries []types.Descriptor
}

func (f *fakeInstances) HasInstances(ctx context.Context, d types.Descriptor) bool {
	return len(f.byTable[d.Source.Table]) > 0
}

func (f *fakeInstances) Sample(ctx context.Context, d types.Descriptor, maxInstances int) []types.Instance {
	f.queries = append(f.queries, d)
	all := f.byTable[d.Source.Table]
	if maxInstances > 0 && len(all) > maxInstances {
		return all[:maxInstances]
	}
	return all
}

type fakeRegistry struct {
	pages, snippets, admins, viewsets []types.Descriptor
	known                             map[string]int64
}

func (f *fakeRegistry) PageTypes(ctx context.Context) []types.Descriptor   { return f.pages }
func (f *fakeRegistry) Snippets(ctx context.Context) []types.Descriptor    { return f.snippets }
func (f *fakeRegistry) ModelAdmins(ctx context.Context) []types.Descriptor { return f.admins }
func (f *fakeRegistry) ViewSets(ctx context.Context) []types.Descriptor    { return f.viewsets }

func (f *fakeRegistry) Resolve(ctx context.Context, key string, kind types.Kind) (types.Descriptor, bool) {
	ct, ok := types.ParseKey(key, kind)
	if !ok {
		return types.Descriptor{}, false
	}
	ct.ID = f.known[ct.Key()]
	return types.Descriptor{ContentType: ct, Source: types.TableSource{Table: ct.TableName()}}, true
}

type fakeSites struct {
	sites     []cms.Site
	sitesErr  error
	titles    map[int64]string
	title     string
	titleOK   bool
	titleErr  error
	promotion *cms.SearchPromotion
}

func (f *fakeSites) Sites(ctx context.Context) ([]cms.Site, error) { return f.sites, f.sitesErr }

func (f *fakeSites) PageTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	return f.titles, nil
}

func (f *fakeSites) FirstPageTitle(ctx context.Context, depth int) (string, bool, error) {
	return f.title, f.titleOK, f.titleErr
}

func (f *fakeSites) FirstSearchPromotion(ctx context.Context) (*cms.SearchPromotion, error) {
	return f.promotion, nil
}

type mapResolver map[string]string

func (m mapResolver) URL(urlPath string) string { return m[urlPath] }

func descriptor(key string, kind types.Kind) types.Descriptor {
	ct, _ := types.ParseKey(key, kind)
	return types.Descriptor{ContentType: ct, Source: types.TableSource{Table: ct.TableName()}}
}

func newEnv(base string, instances *fakeInstances, maxInstances int) Env {
	return Env{
		Builder:      NewBuilder(base),
		Instances:    instances,
		MaxInstances: maxInstances,
		Log:          logger.NewNop(),
	}
}

func urls(entries []types.URLEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.URL
	}
	return out
}

func assertRoundTrip(t *testing.T, entries []types.URLEntry) {
	t.Helper()
	for _, e := range entries {
		if e.InstanceLabel == nil {
			continue
		}
		assert.Equal(t, e.BaseName()+" ("+*e.InstanceLabel+")", e.DisplayName)
		assert.NotEqual(t, e.DisplayName, e.BaseName())
	}
}

// ============================================================================
// Page collector
// ============================================================================

func TestPageCollector_FrontendURLs(t *testing.T) {
	page := descriptor("home.homepage", types.KindPage)
	page.Source.Table = "wagtailcore_page"
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"wagtailcore_page": {
			{ID: 1, Label: "Instance 1", Path: "/home/page1/"},
			{ID: 2, Label: "Instance 2", Path: "/home/page2/"},
		},
	}}
	routes := func(ctx context.Context) (URLResolver, error) {
		return mapResolver{
			"/home/page1/": "/page1/",
			"/home/page2/": "http://external-site.com/page2/",
		}, nil
	}

	c := NewPageCollector(newEnv("http://testserver", instances, 0), &fakeRegistry{pages: []types.Descriptor{page}}, routes)
	entries := c.Collect(context.Background())

	require.Len(t, entries, 6)
	assert.Equal(t, []string{
		"http://testserver/admin/pages/1/edit/",
		"http://testserver/admin/pages/1/delete/",
		"http://testserver/page1/",
		"http://testserver/admin/pages/2/edit/",
		"http://testserver/admin/pages/2/delete/",
		"http://external-site.com/page2/",
	}, urls(entries))
	assert.Equal(t, types.URLFrontend, entries[2].Kind)
	assert.Equal(t, "home.homepage (Instance 1)", entries[0].DisplayName)
	assertRoundTrip(t, entries)
}

func TestPageCollector_NoInstances(t *testing.T) {
	reg := &fakeRegistry{pages: []types.Descriptor{descriptor("wagtailcore.page", types.KindPage)}}
	c := NewPageCollector(newEnv("http://testserver/", &fakeInstances{}, 1), reg, nil)

	entries := c.Collect(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, types.URLEntry{
		DisplayName: "wagtailcore.page (NO INSTANCES)",
		Kind:        types.URLList,
		URL:         "http://testserver/admin/pages/",
	}, entries[0])
}

func TestPageCollector_RoutingFailure(t *testing.T) {
	page := descriptor("home.homepage", types.KindPage)
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		page.Source.Table: {{ID: 3, Label: "Home", Path: "/home/"}},
	}}
	routes := func(ctx context.Context) (URLResolver, error) { return nil, errors.New("no sites table") }

	c := NewPageCollector(newEnv("http://testserver", instances, 1), &fakeRegistry{pages: []types.Descriptor{page}}, routes)
	entries := c.Collect(context.Background())

	require.Len(t, entries, 2)
	assert.Equal(t, types.URLEdit, entries[0].Kind)
	assert.Equal(t, types.URLDelete, entries[1].Kind)
}

func TestPageCollector_PageOutsideSites(t *testing.T) {
	page := descriptor("home.homepage", types.KindPage)
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		page.Source.Table: {{ID: 4, Label: "Orphan", Path: "/orphan/"}},
	}}
	routes := func(ctx context.Context) (URLResolver, error) { return mapResolver{}, nil }

	c := NewPageCollector(newEnv("http://testserver", instances, 1), &fakeRegistry{pages: []types.Descriptor{page}}, routes)
	assert.Len(t, c.Collect(context.Background()), 2)
}

// ============================================================================
// Snippet, admin record and view-set collectors
// ============================================================================

func TestSnippetCollector_NoInstancesTrailingSlashBase(t *testing.T) {
	reg := &fakeRegistry{snippets: []types.Descriptor{descriptor("home.category", types.KindSnippet)}}
	c := NewSnippetCollector(newEnv("http://testserver/", &fakeInstances{}, 1), reg)

	entries := c.Collect(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "home.category (NO INSTANCES)", entries[0].DisplayName)
	assert.Equal(t, types.URLList, entries[0].Kind)
	assert.Equal(t, "http://testserver/admin/snippets/home/category/", entries[0].URL)
	assert.NotContains(t, strings.TrimPrefix(entries[0].URL, "http://"), "//")
	assert.True(t, strings.HasSuffix(entries[0].DisplayName, "(NO INSTANCES)"))
}

func TestSnippetCollector_Instances(t *testing.T) {
	reg := &fakeRegistry{snippets: []types.Descriptor{descriptor("home.category", types.KindSnippet)}}
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"home_category": {{ID: 7, Label: "News"}},
	}}
	c := NewSnippetCollector(newEnv("http://testserver", instances, 1), reg)

	entries := c.Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/snippets/home/category/",
		"http://testserver/admin/snippets/home/category/7/",
		"http://testserver/admin/snippets/home/category/7/delete/",
	}, urls(entries))
	assert.Equal(t, "home.category", entries[0].DisplayName)
	assert.Equal(t, "home.category (News)", entries[1].DisplayName)
}

func TestAdminRecordCollector_CustomPath(t *testing.T) {
	d := descriptor("home.event", types.KindModelAdmin)
	d.URLPath = "custom/path"
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"home_event": {{ID: 5, Label: "Launch"}},
	}}
	c := NewAdminRecordCollector(newEnv("http://testserver", instances, 1), &fakeRegistry{admins: []types.Descriptor{d}})

	entries := c.Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/custom/path/",
		"http://testserver/admin/custom/path/edit/5/",
		"http://testserver/admin/custom/path/delete/5/",
	}, urls(entries))
	assert.Equal(t, []types.URLKind{types.URLList, types.URLEdit, types.URLDelete},
		[]types.URLKind{entries[0].Kind, entries[1].Kind, entries[2].Kind})
}

func TestAdminRecordCollector_DefaultPath(t *testing.T) {
	d := descriptor("home.event", types.KindModelAdmin)
	c := NewAdminRecordCollector(newEnv("http://testserver", &fakeInstances{}, 1), &fakeRegistry{admins: []types.Descriptor{d}})

	entries := c.Collect(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "http://testserver/admin/modeladmin/home/event/", entries[0].URL)
}

func TestViewSetCollector(t *testing.T) {
	reg := &fakeRegistry{viewsets: []types.Descriptor{
		descriptor("home.person", types.KindViewSet),
		descriptor("wagtailcore.locale", types.KindViewSet),
		descriptor("wagtailcore.site", types.KindViewSet),
	}}
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"home_person": {{ID: 2, Label: "Ada"}},
	}}
	c := NewViewSetCollector(newEnv("http://testserver", instances, 1), reg)

	entries := c.Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/person/",
		"http://testserver/admin/person/2/",
		"http://testserver/admin/person/2/delete/",
	}, urls(entries))
}

func TestViewSetBase(t *testing.T) {
	assert.Equal(t, "locales/", ViewSetBase(descriptor("wagtailcore.locale", types.KindViewSet)))
	assert.Equal(t, "person/", ViewSetBase(descriptor("home.person", types.KindViewSet)))

	// A declared URL path does not change the view-set route.
	d := descriptor("home.person", types.KindViewSet)
	d.URLPath = "people"
	assert.Equal(t, "person/", ViewSetBase(d))
}

// ============================================================================
// Bounds and statelessness
// ============================================================================

func TestInstanceBounds(t *testing.T) {
	var many []types.Instance
	for i := int64(1); i <= 4; i++ {
		many = append(many, types.Instance{ID: i, Label: "Item"})
	}
	reg := &fakeRegistry{snippets: []types.Descriptor{descriptor("home.item", types.KindSnippet)}}

	tests := []struct {
		name         string
		maxInstances int
		expected     int
	}{
		{"bounded", 2, 1 + 2*2},
		{"bound above count", 10, 1 + 4*2},
		{"unlimited", 0, 1 + 4*2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances := &fakeInstances{byTable: map[string][]types.Instance{"home_item": many}}
			c := NewSnippetCollector(newEnv("http://testserver", instances, tt.maxInstances), reg)
			assert.Len(t, c.Collect(context.Background()), tt.expected)
		})
	}
}

func TestCollectIsRepeatable(t *testing.T) {
	reg := &fakeRegistry{snippets: []types.Descriptor{descriptor("home.item", types.KindSnippet)}}
	instances := &fakeInstances{byTable: map[string][]types.Instance{"home_item": {{ID: 1}}}}
	c := NewSnippetCollector(newEnv("http://testserver", instances, 1), reg)

	first := c.Collect(context.Background())
	second := c.Collect(context.Background())
	assert.Equal(t, first, second)
}

// ============================================================================
// Media collectors
// ============================================================================

func TestMediaCollectors(t *testing.T) {
	reg := &fakeRegistry{}
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"wagtailimages_image":  {{ID: 3, Label: "Logo"}},
		"wagtaildocs_document": {{ID: 8, Label: "Report"}},
	}}
	env := newEnv("http://testserver", instances, 1)
	resolver := NewMediaResolver(reg, "", "", logger.NewNop())

	images := NewImageCollector(env, resolver).Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/images/",
		"http://testserver/admin/images/3/",
		"http://testserver/admin/images/3/delete/",
	}, urls(images))
	assert.Equal(t, "wagtailimages.image (Logo)", images[1].DisplayName)

	docs := NewDocumentCollector(env, resolver).Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/documents/",
		"http://testserver/admin/documents/edit/8/",
		"http://testserver/admin/documents/delete/8/",
	}, urls(docs))
}

func TestMediaResolver(t *testing.T) {
	reg := &fakeRegistry{known: map[string]int64{"custom.image": 40}}

	tests := []struct {
		name     string
		override string
		expected string
	}{
		{"no override", "", DefaultImageModel},
		{"known override", "custom.Image", "custom.image"},
		{"unknown override", "custom.picture", DefaultImageModel},
		{"malformed override", "customimage", DefaultImageModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewMediaResolver(reg, tt.override, "", logger.NewNop()).Active(context.Background(), types.KindImage)
			assert.Equal(t, tt.expected, d.Key())
			assert.Equal(t, "title", d.Source.LabelColumn)
			assert.Equal(t, types.KindImage, d.Kind)
		})
	}
}

// ============================================================================
// Site collector
// ============================================================================

func TestSiteCollector(t *testing.T) {
	sites := &fakeSites{
		sites: []cms.Site{
			{ID: 1, Hostname: "localhost", Port: 80, RootPageID: 3, IsDefault: true},
			{ID: 2, Hostname: "blog.localhost", Port: 80, RootPageID: 9},
		},
		titles:  map[int64]string{3: "Root Page", 9: "Blog"},
		title:   "Welcome to Wagtail",
		titleOK: true,
	}
	c := NewSiteCollector(newEnv("http://testserver/", &fakeInstances{}, 1), sites)

	entries := c.Collect(context.Background())
	require.Len(t, entries, 3+5+3)

	assert.Equal(t, "All Pages Listing", entries[0].DisplayName)
	assert.Equal(t, "http://testserver/admin/pages/search/?q=xyznonexistentsearchterm123", entries[1].URL)
	assert.Equal(t, "Page Search (With Results - 'Welcome')", entries[2].DisplayName)
	assert.Equal(t, "http://testserver/admin/pages/search/?q=Welcome", entries[2].URL)

	assert.Equal(t, types.URLEntry{DisplayName: "Site default page", Kind: types.URLFrontend, URL: "http://testserver/"}, entries[3])
	assert.Equal(t, "Site default page (Root Page)", entries[4].DisplayName)
	assert.Equal(t, "http://testserver/admin/pages/3/edit/", entries[4].URL)
	assert.Equal(t, "http://testserver/admin/pages/3/delete/", entries[5].URL)
	assert.Equal(t, "Site default page explorer (Root Page)", entries[6].DisplayName)
	assert.Equal(t, types.URLList, entries[6].Kind)
	assert.Equal(t, types.URLEntry{DisplayName: "Admin dashboard", Kind: types.URLAdmin, URL: "http://testserver/admin/"}, entries[7])

	// The second site shares the base URL: no second frontend entry, no dashboard.
	assert.Equal(t, "http://testserver/admin/pages/9/edit/", entries[8].URL)

	frontends := 0
	for _, e := range entries {
		if e.Kind == types.URLFrontend {
			frontends++
		}
	}
	assert.Equal(t, 1, frontends)
	assertRoundTrip(t, entries)
}

func TestSiteCollector_SearchFallbacks(t *testing.T) {
	t.Run("no top-level page", func(t *testing.T) {
		c := NewSiteCollector(newEnv("http://testserver", &fakeInstances{}, 1), &fakeSites{})
		entries := c.Collect(context.Background())
		assert.Equal(t, "Page Search (With Results - 'page')", entries[2].DisplayName)
		assert.Equal(t, "http://testserver/admin/pages/search/?q=page", entries[2].URL)
	})

	t.Run("lookup failure", func(t *testing.T) {
		c := NewSiteCollector(newEnv("http://testserver", &fakeInstances{}, 1), &fakeSites{titleErr: errors.New("db down")})
		entries := c.Collect(context.Background())
		assert.Equal(t, "Page Search (With Results - 'the') (Error: db down)", entries[2].DisplayName)
		assert.Equal(t, "http://testserver/admin/pages/search/?q=the", entries[2].URL)
	})

	t.Run("sites failure keeps global entries", func(t *testing.T) {
		c := NewSiteCollector(newEnv("http://testserver", &fakeInstances{}, 1), &fakeSites{sitesErr: errors.New("db down")})
		assert.Len(t, c.Collect(context.Background()), 3)
	})
}

// ============================================================================
// Settings collector
// ============================================================================

func TestSettingsCollector_Minimal(t *testing.T) {
	c := NewSettingsCollector(newEnv("http://testserver", &fakeInstances{}, 1), Features{}, SettingsOptions{}, &fakeSites{}, &fakeRegistry{})

	entries := c.Collect(context.Background())
	assert.Equal(t, []string{
		"http://testserver/admin/sites/",
		"http://testserver/admin/collections/",
		"http://testserver/admin/users/",
		"http://testserver/admin/groups/",
		"http://testserver/admin/redirects/",
		"http://testserver/admin/workflows/list/",
		"http://testserver/admin/workflows/tasks/index/",
		"http://testserver/admin/searchpicks/",
	}, urls(entries))
	for _, e := range entries {
		assert.Equal(t, types.URLList, e.Kind)
	}
}

func TestSettingsCollector_Full(t *testing.T) {
	instances := &fakeInstances{byTable: map[string][]types.Instance{
		"auth_user":                 {{ID: 1, Label: "admin"}},
		"auth_group":                {{ID: 2, Label: "Editors"}},
		"wagtailcore_collection":    {{ID: 4, Label: "Photos"}, {ID: 5, Label: "Logos"}},
		"wagtailredirects_redirect": {{ID: 6, Label: "/old-path"}},
		"wagtailcore_workflow":      {{ID: 7, Label: "Moderators approval"}},
		"wagtailcore_task":          {{ID: 8, Label: "Moderators approval"}},
		"wagtailcore_locale":        {{ID: 1, Label: "en"}},
		"wagtailcore_page":          {{ID: 12, Label: "Contact us"}},
	}}
	sites := &fakeSites{
		sites:     []cms.Site{{ID: 1, Hostname: "localhost", Port: 80, RootPageID: 3, IsDefault: true}},
		promotion: &cms.SearchPromotion{ID: 9, QueryString: "opening hours"},
	}
	features := Features{
		Auth: true, Redirects: true, Locales: true, SearchPromotions: true,
		Settings: true, Forms: true, Workflows: true,
	}
	reg := &fakeRegistry{known: map[string]int64{"home.formpage": 30}}
	opts := SettingsOptions{FormPageTypes: []string{"home.formpage", "home.missingpage"}}

	c := NewSettingsCollector(newEnv("http://testserver", instances, 1), features, opts, sites, reg)
	entries := c.Collect(context.Background())

	byURL := map[string]types.URLEntry{}
	for _, e := range entries {
		byURL[e.URL] = e
	}

	expected := map[string]string{
		"http://testserver/admin/sites/1/":                       "Settings > Sites (localhost)",
		"http://testserver/admin/sites/1/delete/":                "Settings > Sites (localhost)",
		"http://testserver/admin/locales/":                       "Settings > Locales",
		"http://testserver/admin/users/1/":                       "Settings > Users (admin)",
		"http://testserver/admin/groups/2/delete/":               "Settings > Groups (Editors)",
		"http://testserver/admin/collections/4/":                 "Settings > Collections (Photos)",
		"http://testserver/admin/redirects/6/":                   "Settings > Redirects (/old-path)",
		"http://testserver/admin/workflows/edit/7/":              "Settings > Workflows (Moderators approval)",
		"http://testserver/admin/workflows/disable/7/":           "Settings > Workflows (Moderators approval)",
		"http://testserver/admin/workflows/tasks/edit/8/":        "Settings > Workflow tasks (Moderators approval)",
		"http://testserver/admin/workflows/tasks/disable/8/":     "Settings > Workflow tasks (Moderators approval)",
		"http://testserver/admin/locales/edit/1/":                "Settings > Locales (en)",
		"http://testserver/admin/locales/delete/1/":              "Settings > Locales (en)",
		"http://testserver/admin/searchpicks/9/":                 "Settings > Search promotions (opening hours)",
		"http://testserver/admin/settings/base/genericsettings/": "Settings (GenericSettings)",
		"http://testserver/admin/settings/base/sitesettings/1/":  "Settings > SiteSettings (localhost)",
		"http://testserver/admin/forms/":                         "Forms Listing",
		"http://testserver/admin/forms/submissions/12/":          "Form Submissions > Contact us",
	}
	for url, name := range expected {
		e, ok := byURL[url]
		if assert.True(t, ok, "missing %s", url) {
			assert.Equal(t, name, e.DisplayName, url)
		}
	}

	assert.Equal(t, types.URLDelete, byURL["http://testserver/admin/workflows/disable/7/"].Kind)
	assert.NotContains(t, byURL, "http://testserver/admin/collections/5/", "collections are bounded by maxInstances")
	assertRoundTrip(t, entries)

	// The form page query is restricted to known form page types.
	last := instances.queries[len(instances.queries)-1]
	assert.Equal(t, "content_type_id IN (?)", last.Source.Filter)
	assert.Equal(t, []any{int64(30)}, last.Source.FilterArgs)

	for _, q := range instances.queries {
		assert.Equal(t, types.KindSettings, q.Kind, q.Key())
	}
}

func TestSettingsCollector_FallbackExamples(t *testing.T) {
	features := Features{Locales: true, SearchPromotions: true, Settings: true}
	c := NewSettingsCollector(newEnv("http://testserver", &fakeInstances{}, 1), features, SettingsOptions{}, &fakeSites{}, &fakeRegistry{})

	entries := c.Collect(context.Background())
	byURL := map[string]types.URLEntry{}
	for _, e := range entries {
		byURL[e.URL] = e
	}

	assert.Equal(t, "Settings > Locales > Example (NO INSTANCES)", byURL["http://testserver/admin/locales/edit/1/"].DisplayName)
	assert.Equal(t, "Settings > Search promotions (NO INSTANCES)", byURL["http://testserver/admin/searchpicks/"].DisplayName)
	assert.Equal(t, "Settings > SiteSettings (Example)", byURL["http://testserver/admin/settings/base/sitesettings/1/"].DisplayName)
}

func TestFeaturesFor(t *testing.T) {
	installed := map[string]bool{"django.contrib.auth": true, "wagtail.contrib.forms": true}
	f := FeaturesFor(func(app string) bool { return installed[app] }, true)

	assert.Equal(t, Features{Auth: true, Forms: true, Workflows: true}, f)
}
