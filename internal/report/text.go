package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gounveil/internal/aggregator"
	"github.com/dbsmedya/gounveil/internal/types"
)

var (
	banner  = strings.Repeat("=", 50)
	divider = strings.Repeat("-", 25)
)

var (
	styleBanner  = color.Style{color.FgGreen, color.OpBold}
	styleSection = color.Style{color.FgCyan}
	styleSummary = color.Style{color.FgGreen}
	styleWarn    = color.Style{color.FgYellow}
	styleFail    = color.Style{color.FgRed}
	styleMuted   = color.Style{color.FgGray}
)

// Printer writes human-readable reports.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer. Colors are only emitted when useColor is set.
func NewPrinter(out io.Writer, useColor bool) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out, color: useColor}
}

func (p *Printer) paint(style color.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Sprint(s)
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

// Text writes the document grouped by mode. The interface layout prints
// frontend URLs first, then backend URLs split into ADMIN, LIST, EDIT and
// OTHER sections. The type layout prints one section per URL kind.
func (p *Printer) Text(doc *Document, mode aggregator.Mode) {
	g := doc.Group(mode)
	width := p.statusWidth(doc)

	switch mode {
	case aggregator.ModeInterface:
		p.banner("FRONTEND URLS", true)
		p.lines(g.Frontend, width, false)

		p.banner("BACKEND URLS", false)
		backend := aggregator.Partition(g.Backend, aggregator.ModeType)
		var other []types.CheckedURLEntry
		for _, kind := range backend.Kinds() {
			switch kind {
			case types.URLAdmin, types.URLList, types.URLEdit:
			default:
				other = append(other, backend.OfKind(kind)...)
			}
		}
		p.section("ADMIN", backend.OfKind(types.URLAdmin), width, false)
		p.section("LIST", backend.OfKind(types.URLList), width, false)
		p.section("EDIT", backend.OfKind(types.URLEdit), width, false)
		p.section("OTHER", other, width, true)
	case aggregator.ModeType:
		for i, kind := range g.Kinds() {
			p.banner(strings.ToUpper(string(kind))+" URLS", i == 0)
			p.lines(g.OfKind(kind), width, false)
		}
	default:
		p.banner("URLS", true)
		p.lines(g.All, width, true)
	}
}

func (p *Printer) banner(title string, first bool) {
	if !first {
		p.println("")
	}
	p.println(banner)
	p.println(p.paint(styleBanner, title))
	p.println(banner)
}

func (p *Printer) section(title string, entries []types.CheckedURLEntry, width int, withKind bool) {
	if len(entries) == 0 {
		return
	}
	p.println("")
	p.println(p.paint(styleSection, divider+" "+title+" "+divider))
	p.lines(entries, width, withKind)
}

func (p *Printer) lines(entries []types.CheckedURLEntry, width int, withKind bool) {
	for _, e := range entries {
		p.println(p.line(e, width, withKind))
	}
}

// line renders "name: url", "name [kind]: url" and, for checked documents, a
// status column padded to width.
func (p *Printer) line(e types.CheckedURLEntry, width int, withKind bool) string {
	var sb strings.Builder
	if width > 0 {
		status := e.Status.String()
		sb.WriteString(p.paint(statusStyle(e.Status.Status), "["+status+"]"))
		sb.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(status)+1))
	}
	sb.WriteString(e.DisplayName)
	if withKind {
		sb.WriteString(" [" + string(e.Kind) + "]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.URL)
	return sb.String()
}

// statusWidth is the widest status string, or 0 when statuses are not shown.
func (p *Printer) statusWidth(doc *Document) int {
	if !doc.Checked {
		return 0
	}
	width := 0
	for _, e := range doc.Entries {
		width = max(width, runewidth.StringWidth(e.Status.String()))
	}
	return width
}

func statusStyle(s types.Status) color.Style {
	switch s {
	case types.StatusOK:
		return styleSummary
	case types.StatusAuthFailed:
		return styleWarn
	case types.StatusUnchecked:
		return styleMuted
	default:
		return styleFail
	}
}

// Summary writes "Found N total URLs (F frontend, B backend)" and, for
// checked documents, the check totals.
func (p *Printer) Summary(doc *Document) {
	g := doc.Group(aggregator.ModeNone)
	p.println(p.paint(styleSummary, SummaryLine(g.Counts)))
	if doc.Report != nil {
		r := doc.Report
		line := fmt.Sprintf("Checked %d URLs: %d OK, %d failed (%.1f%% success) in %s",
			r.Total(), r.OK, r.Failed, r.SuccessRate, r.Duration.Round(time.Millisecond))
		style := styleSummary
		if r.Failed > 0 {
			style = styleWarn
		}
		p.println(p.paint(style, line))
	}
}

// SummaryLine formats the discovery totals.
func SummaryLine(c aggregator.Counts) string {
	return fmt.Sprintf("Found %d total URLs (%d frontend, %d backend)", c.Total, c.Frontend, c.Backend)
}

// Failures lists every entry that did not come back OK.
func (p *Printer) Failures(doc *Document) {
	if doc.Report == nil {
		return
	}
	failures := doc.Report.Failures()
	if len(failures) == 0 {
		return
	}
	p.banner("FAILED URLS", false)
	width := 0
	for _, e := range failures {
		width = max(width, runewidth.StringWidth(e.Status.String()))
	}
	p.lines(failures, width, true)
}

// Warn writes a highlighted notice line.
func (p *Printer) Warn(format string, args ...any) {
	p.println(p.paint(styleWarn, fmt.Sprintf(format, args...)))
}

// Success writes a highlighted confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.println(p.paint(styleSummary, fmt.Sprintf(format, args...)))
}

// WriteFile writes the uncolored text layout of doc to path.
func WriteFile(path string, doc *Document, mode aggregator.Mode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	NewPrinter(f, false).Text(doc, mode)
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
