package report

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gounveil/internal/types"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

var kindTitles = map[types.Kind]string{
	types.KindPage:       "page models",
	types.KindSnippet:    "snippet models",
	types.KindModelAdmin: "modeladmin models",
	types.KindViewSet:    "modelviewset models",
	types.KindImage:      "image models",
	types.KindDocument:   "document models",
}

// Inventory writes the content type listing of an estimate:
//
//	Found 2 page models:
//	  - home.homepage       4 instances (sampling 1)
func (p *Printer) Inventory(result *unveil.EstimateResult) {
	width := 0
	for _, kind := range result.ByKind.Keys() {
		est, _ := result.ByKind.Get(kind)
		for _, e := range est {
			width = max(width, runewidth.StringWidth(e.Descriptor.Key()))
		}
	}

	for _, kind := range result.ByKind.Keys() {
		est, _ := result.ByKind.Get(kind)
		title, ok := kindTitles[kind]
		if !ok {
			title = string(kind) + " models"
		}
		p.println(p.paint(styleSection, fmt.Sprintf("Found %d %s:", len(est), title)))
		for _, e := range est {
			key := runewidth.FillRight(e.Descriptor.Key(), width)
			line := fmt.Sprintf("  - %s  %d instances", key, e.Instances)
			switch {
			case e.Instances == 0:
				line = fmt.Sprintf("  - %s  %s", key, p.paint(styleMuted, "no instances"))
			case e.Sampled < e.Instances:
				line += fmt.Sprintf(" (sampling %d)", e.Sampled)
			}
			if e.Descriptor.URLPath != "" {
				line += fmt.Sprintf(" [/admin/%s/]", e.Descriptor.URLPath)
			}
			p.println(line)
		}
	}

	p.println(p.paint(styleSummary, fmt.Sprintf("%d content types, about %d URLs before sites and settings",
		result.Types(), result.EstimatedURLs())))
}
