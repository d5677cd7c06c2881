package cms

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PageRouter resolves a page's url_path to the URL Wagtail would serve it at.
type PageRouter struct {
	roots []siteRoot // longest root path first
}

type siteRoot struct {
	site     Site
	rootPath string
}

// PageRouter loads the site roots needed to resolve page URLs.
func (s *Store) PageRouter(ctx context.Context) (*PageRouter, error) {
	sites, err := s.Sites(ctx)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return &PageRouter{}, nil
	}

	ids := make([]int64, len(sites))
	for i, site := range sites {
		ids[i] = site.RootPageID
	}

	query, args, err := sqlx.In("SELECT id, url_path FROM wagtailcore_page WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build root page query: %w", err)
	}

	var rows []struct {
		ID      int64  `db:"id"`
		URLPath string `db:"url_path"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query site root pages: %w", err)
	}

	paths := make(map[int64]string, len(rows))
	for _, r := range rows {
		paths[r.ID] = r.URLPath
	}

	return NewPageRouter(sites, paths), nil
}

// NewPageRouter builds a router from sites and their root pages' url_path values.
// Sites whose root page is unknown are ignored.
func NewPageRouter(sites []Site, rootPaths map[int64]string) *PageRouter {
	r := &PageRouter{}
	for _, site := range sites {
		p, ok := rootPaths[site.RootPageID]
		if !ok {
			continue
		}
		r.roots = append(r.roots, siteRoot{site: site, rootPath: p})
	}
	// Longest root wins; among sites sharing a root, the default site wins.
	sort.SliceStable(r.roots, func(i, j int) bool {
		a, b := r.roots[i], r.roots[j]
		if len(a.rootPath) != len(b.rootPath) {
			return len(a.rootPath) > len(b.rootPath)
		}
		return a.site.IsDefault && !b.site.IsDefault
	})
	return r
}

// URL returns the page URL for urlPath: relative ("/about/") when the
// installation has a single site, absolute under the owning site otherwise,
// and "" for pages that belong to no site.
func (r *PageRouter) URL(urlPath string) string {
	if r == nil || urlPath == "" {
		return ""
	}
	for _, root := range r.roots {
		if !strings.HasPrefix(urlPath, root.rootPath) {
			continue
		}
		pagePath := "/" + strings.TrimPrefix(urlPath[len(root.rootPath):], "/")
		if len(r.roots) == 1 {
			return pagePath
		}
		return root.site.RootURL() + pagePath
	}
	return ""
}

// PageTitles returns the titles of the given pages keyed by id. Unknown ids are absent.
func (s *Store) PageTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	query, args, err := sqlx.In("SELECT id, title FROM wagtailcore_page WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build page title query: %w", err)
	}

	var rows []struct {
		ID    int64  `db:"id"`
		Title string `db:"title"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query page titles: %w", err)
	}

	titles := make(map[int64]string, len(rows))
	for _, r := range rows {
		titles[r.ID] = r.Title
	}
	return titles, nil
}
