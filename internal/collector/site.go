package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dbsmedya/gounveil/internal/types"
)

// emptySearchTerm is a query no page title should ever match.
const emptySearchTerm = "xyznonexistentsearchterm123"

// SiteCollector emits the page explorer, page search and per-site root entries.
type SiteCollector struct {
	env   Env
	sites SiteSource
}

// NewSiteCollector creates a SiteCollector.
func NewSiteCollector(env Env, sites SiteSource) *SiteCollector {
	return &SiteCollector{env: env, sites: sites}
}

func (c *SiteCollector) Name() string { return "sites" }

func (c *SiteCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	b := c.env.Builder

	out := []types.URLEntry{
		b.List("All Pages Listing", b.AdminURL("pages/")),
		b.List("Page Search (No Results)", b.AdminURL("pages/search/?q="+emptySearchTerm)),
		c.searchWithResults(ctx),
	}

	sites, err := c.sites.Sites(ctx)
	if err != nil {
		log.Warnw("error getting site URLs", "error", err)
		return out
	}

	ids := make([]int64, len(sites))
	for i, s := range sites {
		ids[i] = s.RootPageID
	}
	titles, err := c.sites.PageTitles(ctx, ids)
	if err != nil {
		log.Warnw("could not load root page titles", "error", err)
		titles = map[int64]string{}
	}

	seen := map[string]bool{}
	for _, site := range sites {
		// Every site's homepage is the base URL itself.
		frontend := b.Base() + "/"
		if !seen[frontend] {
			seen[frontend] = true
			out = append(out, b.Frontend("Site default page", "", frontend))
		}

		id := site.RootPageID
		title := titles[id]
		out = append(out,
			b.Edit("Site default page", title, b.AdminURL(fmt.Sprintf("pages/%d/edit/", id))),
			b.Delete("Site default page", title, b.AdminURL(fmt.Sprintf("pages/%d/delete/", id))),
			b.Instance("Site default page explorer", title, types.URLList, b.AdminURL(fmt.Sprintf("pages/%d/", id))),
		)
		if site.IsDefault {
			out = append(out, b.Admin("Admin dashboard", b.AdminURL("")))
		}
	}
	return out
}

// searchWithResults searches for the first word of a top-level page title,
// falling back to "page" when there is none and "the" when the lookup fails.
func (c *SiteCollector) searchWithResults(ctx context.Context) types.URLEntry {
	b := c.env.Builder
	entry := func(term, suffix string) types.URLEntry {
		name := fmt.Sprintf("Page Search (With Results - '%s')%s", term, suffix)
		return b.List(name, b.AdminURL("pages/search/?q="+url.QueryEscape(term)))
	}

	title, found, err := c.sites.FirstPageTitle(ctx, 2)
	if err != nil {
		c.env.logger(c.Name()).Warnw("page title lookup failed", "error", err)
		return entry("the", fmt.Sprintf(" (Error: %s)", err))
	}
	words := strings.Fields(title)
	if !found || len(words) == 0 {
		return entry("page", "")
	}
	return entry(words[0], "")
}
