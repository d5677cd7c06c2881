// Package report renders discovered and checked URLs as console text, plain
// text files and JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gounveil/internal/aggregator"
	"github.com/dbsmedya/gounveil/internal/checker"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Document is what gets rendered: the entries of one run plus, after a
// check pass, their statuses.
type Document struct {
	BaseURL      string
	MaxInstances int
	Entries      []types.CheckedURLEntry
	Checked      bool
	Report       *checker.Report // nil unless every entry was probed
}

// NewDocument wraps discovered entries that were not probed.
func NewDocument(baseURL string, maxInstances int, entries []types.URLEntry) *Document {
	return &Document{
		BaseURL:      baseURL,
		MaxInstances: maxInstances,
		Entries:      checker.Unchecked(entries),
	}
}

// NewCheckedDocument wraps the results of a check pass.
func NewCheckedDocument(baseURL string, maxInstances int, r *checker.Report) *Document {
	return &Document{
		BaseURL:      baseURL,
		MaxInstances: maxInstances,
		Entries:      r.Results,
		Checked:      true,
		Report:       r,
	}
}

// NewUncheckedDocument is used when the check pass could not run: statuses
// are shown, all UNCHECKED.
func NewUncheckedDocument(baseURL string, maxInstances int, entries []types.URLEntry) *Document {
	doc := NewDocument(baseURL, maxInstances, entries)
	doc.Checked = true
	return doc
}

// Group partitions the document's entries.
func (d *Document) Group(mode aggregator.Mode) *aggregator.Grouping[types.CheckedURLEntry] {
	return aggregator.Partition(d.Entries, mode)
}

// URLView is the JSON shape of one entry.
type URLView struct {
	ModelName string        `json:"model_name"`
	URLType   types.URLKind `json:"url_type"`
	URL       string        `json:"url"`
	Status    string        `json:"status,omitempty"`
}

func (d *Document) views(entries []types.CheckedURLEntry) []URLView {
	out := make([]URLView, 0, len(entries))
	for _, e := range entries {
		v := URLView{ModelName: e.DisplayName, URLType: e.Kind, URL: e.URL}
		if d.Checked {
			v.Status = e.Status.String()
		}
		out = append(out, v)
	}
	return out
}

// URLs returns the "urls" value for mode: a flat list, a backend/frontend
// object, or an object keyed by URL kind in first-seen order.
func (d *Document) URLs(mode aggregator.Mode) (json.RawMessage, error) {
	g := d.Group(mode)

	switch mode {
	case aggregator.ModeInterface:
		m := orderedmap.NewOrderedMap[string, any]()
		m.Set("backend", d.views(g.Backend))
		m.Set("frontend", d.views(g.Frontend))
		return marshalOrdered(m)
	case aggregator.ModeType:
		m := orderedmap.NewOrderedMap[string, any]()
		for _, kind := range g.Kinds() {
			m.Set(string(kind), d.views(g.OfKind(kind)))
		}
		return marshalOrdered(m)
	default:
		return json.Marshal(d.views(d.Entries))
	}
}

// JSON renders {"urls": ..., "meta": {...}}. Checked documents add the check
// summary to meta.
func (d *Document) JSON(mode aggregator.Mode) ([]byte, error) {
	urls, err := d.URLs(mode)
	if err != nil {
		return nil, err
	}
	g := d.Group(mode)

	meta := orderedmap.NewOrderedMap[string, any]()
	meta.Set("group_by", string(mode))
	meta.Set("base_url", d.BaseURL)
	meta.Set("max_instances", d.MaxInstances)
	meta.Set("total_urls", g.Counts.Total)
	meta.Set("backend_count", g.Counts.Backend)
	meta.Set("frontend_count", g.Counts.Frontend)
	if d.Report != nil {
		meta.Set("ok_count", d.Report.OK)
		meta.Set("failed_count", d.Report.Failed)
		meta.Set("success_rate", d.Report.SuccessRate)
		meta.Set("duration_seconds", d.Report.Duration.Seconds())
	}
	metaJSON, err := marshalOrdered(meta)
	if err != nil {
		return nil, err
	}

	top := orderedmap.NewOrderedMap[string, any]()
	top.Set("urls", urls)
	top.Set("meta", metaJSON)
	return marshalOrdered(top)
}

// marshalOrdered encodes m as a JSON object keeping insertion order.
func marshalOrdered(m *orderedmap.OrderedMap[string, any]) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, _ := m.Get(key)
		v, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
