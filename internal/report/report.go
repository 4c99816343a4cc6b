// Package report renders installer state as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/starford/claudekit/internal/installer"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/watch"
)

const timeLayout = "2006-01-02 15:04:05"

// Printer writes tables to an output stream. Colors are off unless enabled.
type Printer struct {
	out   io.Writer
	color bool
}

// New returns a Printer writing to out.
func New(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) table() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (p *Printer) paint(c text.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) empty(msg string) {
	fmt.Fprintln(p.out, p.paint(text.FgYellow, msg))
}

// Components renders the component listing.
func (p *Printer) Components(rows []installer.Status) {
	if len(rows) == 0 {
		p.empty("No components defined")
		return
	}
	t := p.table()
	t.AppendHeader(table.Row{"COMPONENT", "CATEGORY", "VERSION", "INSTALLED", "FILES", "DESCRIPTION"})
	for _, r := range rows {
		installed := p.paint(text.FgHiBlack, "no")
		if r.Installed {
			installed = p.paint(text.FgGreen, r.InstalledVersion)
			if r.InstalledVersion != r.DeclaredVersion {
				installed = p.paint(text.FgYellow, r.InstalledVersion+" (outdated)")
			}
		}
		t.AppendRow(table.Row{r.Name, r.Category, r.DeclaredVersion, installed, r.Files, r.Description})
	}
	t.Render()
}

// Reports renders installation health checks.
func (p *Printer) Reports(reports []installer.Report) {
	t := p.table()
	t.AppendHeader(table.Row{"COMPONENT", "STATUS", "PROBLEMS"})
	for _, r := range reports {
		status := p.paint(text.FgGreen, "ok")
		if !r.OK {
			status = p.paint(text.FgRed, "failed")
		}
		t.AppendRow(table.Row{r.Name, status, strings.Join(r.Errors, "\n")})
	}
	t.Render()
}

// Findings renders lint results. Only invalid artifacts are listed.
func (p *Printer) Findings(findings []watch.Finding) {
	bad := watch.Invalid(findings)
	if len(bad) == 0 {
		fmt.Fprintln(p.out, p.paint(text.FgGreen, fmt.Sprintf("%d artifacts checked, all valid", len(findings))))
		return
	}
	t := p.table()
	t.AppendHeader(table.Row{"COMPONENT", "FILE", "ERROR"})
	for _, f := range bad {
		t.AppendRow(table.Row{f.Component, f.Path, p.paint(text.FgRed, f.Error)})
	}
	t.Render()
	fmt.Fprintln(p.out, p.paint(text.FgRed, fmt.Sprintf("%d of %d artifacts invalid", len(bad), len(findings))))
}

// History renders journal entries.
func (p *Printer) History(entries []models.JournalEntry) {
	if len(entries) == 0 {
		p.empty("No history recorded")
		return
	}
	t := p.table()
	t.AppendHeader(table.Row{"WHEN", "COMPONENT", "OPERATION", "OUTCOME", "VERSION", "FILES", "ERROR"})
	for _, e := range entries {
		version := e.ToVersion
		if e.FromVersion != "" && e.FromVersion != e.ToVersion {
			version = e.FromVersion + " -> " + e.ToVersion
		}
		t.AppendRow(table.Row{
			e.At.Local().Format(timeLayout),
			e.Component,
			e.Operation,
			p.paint(outcomeColor(e.Outcome), e.Outcome),
			strings.TrimSuffix(version, " -> "),
			e.Files,
			e.Error,
		})
	}
	t.Render()
}

func outcomeColor(outcome string) text.Color {
	switch outcome {
	case models.OutcomeSuccess:
		return text.FgGreen
	case models.OutcomeFailure:
		return text.FgRed
	case models.OutcomeRolledBack:
		return text.FgYellow
	default:
		return text.FgHiBlack
	}
}
