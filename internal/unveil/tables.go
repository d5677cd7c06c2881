package unveil

import (
	"github.com/dbsmedya/gounveil/internal/collector"
	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/types"
)

// OptionalTables lists the tables a run reads beyond the core Wagtail schema:
// media, the settings catalogue for installed features, and every table
// declared in the registration manifest. Duplicates are removed; order is
// stable.
func OptionalTables(cfg *config.Config) []string {
	features := collector.FeaturesFor(cfg.IsInstalled, cfg.Settings.Workflows)

	var tables []string
	seen := map[string]bool{}
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}

	for _, key := range []string{
		orDefault(cfg.Media.ImageModel, collector.DefaultImageModel),
		orDefault(cfg.Media.DocumentModel, collector.DefaultDocumentModel),
	} {
		if ct, ok := types.ParseKey(key, types.KindImage); ok {
			add(ct.TableName())
		}
	}

	if features.Auth {
		add(orDefault(cfg.Settings.UserTable, "auth_user"))
		add("auth_group")
	}
	if features.Redirects {
		add("wagtailredirects_redirect")
	}
	if features.Workflows {
		add("wagtailcore_workflow")
		add("wagtailcore_task")
	}
	if features.Locales {
		add("wagtailcore_locale")
	}
	if features.SearchPromotions {
		add("wagtailsearchpromotions_searchpromotion")
	}

	for _, app := range cfg.Apps {
		for _, s := range app.Snippets {
			add(declaredTable(s.Model, s.Table))
		}
		for _, h := range app.Hooks {
			add(declaredTable(h.Model, h.Table))
		}
	}
	return tables
}

func declaredTable(model, table string) string {
	if table != "" {
		return table
	}
	if ct, ok := types.ParseKey(model, types.KindSnippet); ok {
		return ct.TableName()
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
