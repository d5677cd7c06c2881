package collector

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gounveil/internal/types"
)

// MaxLabelWidth is the widest instance label kept in a display name, in terminal cells.
const MaxLabelWidth = 50

// NoInstancesSuffix marks the list entry of a content type without records.
const NoInstancesSuffix = " (NO INSTANCES)"

// Builder constructs URL entries rooted at one base URL. It holds no per-run
// state and is shared by every collector.
type Builder struct {
	base string
}

// NewBuilder creates a Builder. Trailing slashes are stripped from baseURL.
func NewBuilder(baseURL string) *Builder {
	return &Builder{base: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Base returns the normalised base URL.
func (b *Builder) Base() string {
	return b.base
}

// URL joins path to the base URL with exactly one slash between them.
func (b *Builder) URL(path string) string {
	return b.base + "/" + strings.TrimLeft(path, "/")
}

// AdminURL returns {base}/admin/{path}.
func (b *Builder) AdminURL(path string) string {
	return b.URL("admin/" + strings.TrimLeft(path, "/"))
}

// FrontendURL resolves a page URL: absolute URLs are returned verbatim,
// anything else is joined to the base URL.
func (b *Builder) FrontendURL(pageURL string) string {
	if strings.HasPrefix(pageURL, "http") {
		return pageURL
	}
	if strings.HasPrefix(pageURL, "/") {
		return b.base + pageURL
	}
	return b.base + "/" + pageURL
}

// Truncate shortens label to MaxLabelWidth cells, ending it with "...".
func Truncate(label string) string {
	return runewidth.Truncate(label, MaxLabelWidth, "...")
}

// List returns a list entry.
func (b *Builder) List(name, url string) types.URLEntry {
	return types.URLEntry{DisplayName: name, Kind: types.URLList, URL: url}
}

// NoInstances returns the list entry emitted for a type without records.
func (b *Builder) NoInstances(name, url string) types.URLEntry {
	return b.List(name+NoInstancesSuffix, url)
}

// Admin returns an admin entry.
func (b *Builder) Admin(name, url string) types.URLEntry {
	return types.URLEntry{DisplayName: name, Kind: types.URLAdmin, URL: url}
}

// Edit returns an edit entry for one instance.
func (b *Builder) Edit(name, label, url string) types.URLEntry {
	return b.Instance(name, label, types.URLEdit, url)
}

// Delete returns a delete entry for one instance.
func (b *Builder) Delete(name, label, url string) types.URLEntry {
	return b.Instance(name, label, types.URLDelete, url)
}

// Frontend returns a frontend entry for one instance.
func (b *Builder) Frontend(name, label, url string) types.URLEntry {
	return b.Instance(name, label, types.URLFrontend, url)
}

// Instance returns an entry whose display name carries the truncated label
// as "name (label)". An empty label leaves the display name untouched.
func (b *Builder) Instance(name, label string, kind types.URLKind, url string) types.URLEntry {
	e := types.URLEntry{DisplayName: name, Kind: kind, URL: url}
	if label == "" {
		return e
	}
	label = Truncate(label)
	e.InstanceLabel = &label
	e.DisplayName = name + " (" + label + ")"
	return e
}
