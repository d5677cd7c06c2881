// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "strings"

// Kind tags the registration convention a content type was discovered under.
type Kind string

const (
	KindPage       Kind = "page"
	KindSnippet    Kind = "snippet"
	KindModelAdmin Kind = "modeladmin"
	KindViewSet    Kind = "viewset"
	KindImage      Kind = "image"
	KindDocument   Kind = "document"
	// KindSettings marks records sampled for the settings section; they are
	// not registered content types.
	KindSettings Kind = "settings"
)

// ContentType identifies a CMS model as namespace.name (Django app_label.model).
type ContentType struct {
	Namespace string
	Name      string
	Kind      Kind
	ID        int64 // django_content_type.id, 0 when unknown
}

// Key returns "namespace.name".
func (c ContentType) Key() string {
	return c.Namespace + "." + c.Name
}

// ParseKey splits an "app_label.model" key into a ContentType of the given kind.
// Both halves are lower-cased. ok is false when key is malformed.
func ParseKey(key string, kind Kind) (ContentType, bool) {
	ns, name, found := strings.Cut(strings.TrimSpace(key), ".")
	if !found || ns == "" || name == "" || strings.Contains(name, ".") {
		return ContentType{}, false
	}
	return ContentType{
		Namespace: strings.ToLower(ns),
		Name:      strings.ToLower(name),
		Kind:      kind,
	}, true
}

// TableName returns Django's default table name for the type.
func (c ContentType) TableName() string {
	return c.Namespace + "_" + c.Name
}

// VerboseName approximates the model class name used in Django's default
// "{Model} object ({id})" string representation.
func (c ContentType) VerboseName() string {
	if c.Name == "" {
		return ""
	}
	return strings.ToUpper(c.Name[:1]) + c.Name[1:]
}

// TableSource tells the sampler where the rows of a content type live.
type TableSource struct {
	Table       string
	LabelColumn string // empty = "{Model} object ({id})"
	Filter      string // optional SQL predicate with ? placeholders
	FilterArgs  []any
	PathColumn  string // page url_path, empty for non-page types
}

// Descriptor is a discovered content type together with its optional URL path
// override and storage location.
type Descriptor struct {
	ContentType
	URLPath string // override without leading/trailing slashes, empty = default
	Source  TableSource
}

// Instance is one sampled record.
type Instance struct {
	ID    int64
	Label string
	Path  string
}
