// Package aggregator concatenates collector output and groups it for presentation.
package aggregator

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gounveil/internal/types"
)

// Mode selects how entries are grouped.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeInterface Mode = "interface"
	ModeType      Mode = "type"
)

// adminMarker identifies backend URLs whose kind is not conclusive.
const adminMarker = "/admin/"

// ParseMode accepts none, interface and type case-insensitively.
// An empty string means none.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeInterface:
		return ModeInterface, nil
	case ModeType:
		return ModeType, nil
	default:
		return "", fmt.Errorf("invalid group_by %q (expected none, interface or type)", s)
	}
}

// Aggregate concatenates collector outputs in emission order.
func Aggregate[E any](outputs ...[]E) []E {
	n := 0
	for _, o := range outputs {
		n += len(o)
	}
	all := make([]E, 0, n)
	for _, o := range outputs {
		all = append(all, o...)
	}
	return all
}

// Counts are derived totals for reporting.
type Counts struct {
	Total    int
	Frontend int
	Backend  int
	ByKind   map[types.URLKind]int
}

// Grouping is a partitioned entry list.
type Grouping[E types.Entrier] struct {
	Mode     Mode
	All      []E
	Backend  []E
	Frontend []E
	ByKind   *orderedmap.OrderedMap[types.URLKind, []E] // first-seen kind order
	Counts   Counts
}

// IsFrontend classifies an entry for the interface grouping. Frontend entries
// are frontend; admin, edit and list entries and any URL under /admin/ are
// backend; everything else falls back to frontend.
func IsFrontend(e types.URLEntry) bool {
	switch e.Kind {
	case types.URLFrontend:
		return true
	case types.URLAdmin, types.URLEdit, types.URLList:
		return false
	}
	return !strings.Contains(e.URL, adminMarker)
}

// Partition groups entries by mode. Every grouping carries counts and the
// by-kind map; Backend and Frontend are only filled in interface mode.
func Partition[E types.Entrier](entries []E, mode Mode) *Grouping[E] {
	g := &Grouping[E]{
		Mode:   mode,
		All:    entries,
		ByKind: orderedmap.NewOrderedMap[types.URLKind, []E](),
		Counts: Counts{Total: len(entries), ByKind: map[types.URLKind]int{}},
	}

	for _, item := range entries {
		e := item.Entry()

		kindEntries, _ := g.ByKind.Get(e.Kind)
		g.ByKind.Set(e.Kind, append(kindEntries, item))
		g.Counts.ByKind[e.Kind]++

		if IsFrontend(e) {
			g.Counts.Frontend++
			if mode == ModeInterface {
				g.Frontend = append(g.Frontend, item)
			}
		} else {
			g.Counts.Backend++
			if mode == ModeInterface {
				g.Backend = append(g.Backend, item)
			}
		}
	}
	return g
}

// Kinds returns the kinds present in first-seen order.
func (g *Grouping[E]) Kinds() []types.URLKind {
	return g.ByKind.Keys()
}

// OfKind returns the entries of one kind, or nil.
func (g *Grouping[E]) OfKind(kind types.URLKind) []E {
	entries, _ := g.ByKind.Get(kind)
	return entries
}
