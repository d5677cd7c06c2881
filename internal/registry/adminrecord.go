package registry

import (
	"context"
	"strings"

	"github.com/dbsmedya/gounveil/internal/types"
)

// AdminRecord is a model registered through one of the two ModelAdmin APIs.
// It is either Legacy or Modern; both normalise to a single descriptor.
type AdminRecord interface {
	Descriptor() types.Descriptor
	isAdminRecord()
}

// Legacy is a member exposing get_admin_urls_for_registration.
type Legacy struct {
	Member HookMember
	desc   types.Descriptor
}

// Modern is a member exposing get_admin_urls.
type Modern struct {
	Member HookMember
	desc   types.Descriptor
}

func (l Legacy) Descriptor() types.Descriptor { return l.desc }
func (m Modern) Descriptor() types.Descriptor { return m.desc }
func (Legacy) isAdminRecord()                 {}
func (Modern) isAdminRecord()                 {}

// NormalizeURLPath trims surrounding slashes and whitespace from a base_url_path.
func NormalizeURLPath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// AdminRecords scans hook members for either admin capability and merges the
// results in discovery order without duplicates. The first declaration of a
// model wins; the first non-empty base_url_path declared by any member with
// that model becomes its URL path. Excluded types are dropped.
func (r *Registry) AdminRecords(ctx context.Context) []AdminRecord {
	apps := r.hookApps()

	// URL paths may come from any member carrying the model, admin or not.
	paths := map[string]string{}
	for _, app := range apps {
		for _, m := range app.Members {
			p := NormalizeURLPath(m.BaseURLPath)
			if m.Model == "" || p == "" {
				continue
			}
			key := modelKey(m.Model)
			if _, ok := paths[key]; !ok {
				paths[key] = p
			}
		}
	}

	seen := map[string]bool{}
	var out []AdminRecord
	for _, app := range apps {
		for _, m := range app.Members {
			if m.Model == "" {
				continue
			}
			legacy := m.has(CapabilityLegacyAdmin)
			if !legacy && !m.has(CapabilityModernAdmin) {
				continue
			}

			d, ok := r.resolveWithSource(ctx, m.Model, types.KindModelAdmin, m.Table, m.LabelColumn)
			if !ok || seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			if IsExcluded(d.Key()) {
				r.log.WithContentType(d.Key()).Debug("admin record covered by settings section, skipping")
				continue
			}
			d.URLPath = paths[modelKey(m.Model)]

			if legacy {
				out = append(out, Legacy{Member: m, desc: d})
			} else {
				out = append(out, Modern{Member: m, desc: d})
			}
		}
	}
	return out
}

// ModelAdmins returns the normalised descriptors of AdminRecords.
func (r *Registry) ModelAdmins(ctx context.Context) []types.Descriptor {
	records := r.AdminRecords(ctx)
	out := make([]types.Descriptor, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Descriptor())
	}
	return out
}

func modelKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
