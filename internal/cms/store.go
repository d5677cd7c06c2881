// Package cms reads the Wagtail schema: sites, content types, page routing
// and a handful of representative records used by the collectors.
package cms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/gounveil/internal/logger"
)

// DefaultBaseURL is used when no base URL is configured and no default site exists.
const DefaultBaseURL = "http://localhost:8000"

// Store runs read-only queries against the CMS database.
type Store struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewStore creates a Store. A nil logger falls back to the default logger.
func NewStore(db *sqlx.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Store{db: db, log: log}
}

// Site is a row of wagtailcore_site.
type Site struct {
	ID         int64  `db:"id"`
	Hostname   string `db:"hostname"`
	Port       int    `db:"port"`
	RootPageID int64  `db:"root_page_id"`
	IsDefault  bool   `db:"is_default_site"`
}

// RootURL renders the site's scheme://host[:port], the way Wagtail does.
func (s Site) RootURL() string {
	switch s.Port {
	case 80:
		return "http://" + s.Hostname
	case 443:
		return "https://" + s.Hostname
	default:
		return fmt.Sprintf("http://%s:%d", s.Hostname, s.Port)
	}
}

// Sites returns every configured site ordered by id.
func (s *Store) Sites(ctx context.Context) ([]Site, error) {
	var sites []Site
	err := s.db.SelectContext(ctx, &sites,
		"SELECT id, hostname, port, root_page_id, is_default_site FROM wagtailcore_site ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	return sites, nil
}

// DefaultSite returns the site flagged is_default_site, or nil when there is none.
func (s *Store) DefaultSite(ctx context.Context) (*Site, error) {
	sites, err := s.Sites(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sites {
		if sites[i].IsDefault {
			return &sites[i], nil
		}
	}
	return nil, nil
}

// DetectBaseURL derives the base URL from the default site, falling back to
// DefaultBaseURL when the lookup fails or there is no default site.
func (s *Store) DetectBaseURL(ctx context.Context) string {
	site, err := s.DefaultSite(ctx)
	if err != nil {
		s.log.Warnw("could not detect base URL from default site", "error", err, "fallback", DefaultBaseURL)
		return DefaultBaseURL
	}
	if site == nil || site.Hostname == "" {
		return DefaultBaseURL
	}
	return site.RootURL()
}

// FirstPageTitle returns the title of any page at the given tree depth.
// found is false when no page sits at that depth.
func (s *Store) FirstPageTitle(ctx context.Context, depth int) (title string, found bool, err error) {
	query := s.db.Rebind("SELECT title FROM wagtailcore_page WHERE depth = ? LIMIT 1")
	err = s.db.QueryRowxContext(ctx, query, depth).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query page title: %w", err)
	}
	return title, true, nil
}

// ContentTypeRow is a row of django_content_type.
type ContentTypeRow struct {
	ID       int64  `db:"id"`
	AppLabel string `db:"app_label"`
	Model    string `db:"model"`
}

// Key returns "app_label.model".
func (r ContentTypeRow) Key() string {
	return r.AppLabel + "." + r.Model
}

// ContentTypes returns every django_content_type row keyed by "app_label.model".
func (s *Store) ContentTypes(ctx context.Context) (map[string]ContentTypeRow, error) {
	var rows []ContentTypeRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, app_label, model FROM django_content_type"); err != nil {
		return nil, fmt.Errorf("failed to query content types: %w", err)
	}

	byKey := make(map[string]ContentTypeRow, len(rows))
	for _, r := range rows {
		byKey[strings.ToLower(r.Key())] = r
	}
	return byKey, nil
}

// PageContentTypes returns the content types referenced by at least one page,
// sorted by app_label then model.
func (s *Store) PageContentTypes(ctx context.Context) ([]ContentTypeRow, error) {
	const query = `
		SELECT ct.id, ct.app_label, ct.model
		FROM django_content_type ct
		WHERE ct.id IN (SELECT DISTINCT content_type_id FROM wagtailcore_page)
		ORDER BY ct.app_label, ct.model`

	var rows []ContentTypeRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query page content types: %w", err)
	}
	return rows, nil
}

// SearchPromotion is a promoted search result with the query it is attached to.
type SearchPromotion struct {
	ID          int64  `db:"id"`
	QueryString string `db:"query_string"`
}

// FirstSearchPromotion returns one search promotion, or nil when there are none.
func (s *Store) FirstSearchPromotion(ctx context.Context) (*SearchPromotion, error) {
	const query = `
		SELECT p.id, q.query_string
		FROM wagtailsearchpromotions_searchpromotion p
		JOIN wagtailsearchpromotions_query q ON q.id = p.query_id
		LIMIT 1`

	var promo SearchPromotion
	err := s.db.GetContext(ctx, &promo, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query search promotions: %w", err)
	}
	return &promo, nil
}
