// Package report renders pipeline results for the terminal. Styling is
// applied only when the destination is an interactive terminal; piped
// output stays plain text.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/pipeline"
)

// Renderer produces human-readable run reports.
type Renderer struct {
	colored bool
}

// NewRenderer builds a renderer. When colored is false every style
// collapses to plain text.
func NewRenderer(colored bool) *Renderer {
	return &Renderer{colored: colored}
}

// Colorized reports whether w is an interactive terminal.
func Colorized(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (r *Renderer) style(s string, style interface{ Render(...string) string }) string {
	if !r.colored {
		return s
	}
	return style.Render(s)
}

// Summary renders a single center's run outcome.
func (r *Renderer) Summary(s *pipeline.Summary) string {
	var b strings.Builder

	b.WriteString(r.style(fmt.Sprintf("Center %s", s.Center), titleStyle))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %d\n", r.style("validated", labelStyle), s.Validated))
	b.WriteString(fmt.Sprintf("%s %d\n", r.style("invalid", labelStyle), s.Invalid))
	b.WriteString(fmt.Sprintf("%s %d\n", r.style("skipped", labelStyle), s.Skipped))
	b.WriteString(fmt.Sprintf("%s %d\n", r.style("processed", labelStyle), s.Processed))
	b.WriteString(fmt.Sprintf("%s %d\n", r.style("failed", labelStyle), s.Failed))

	if len(s.Errors) > 0 {
		b.WriteString(r.style("errors:", errorStyle))
		b.WriteString("\n")
		for _, fe := range s.Errors {
			name := fe.Name
			if name == "" {
				name = fe.FileID
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", r.style(name, fileStyle), strings.TrimRight(fe.Message, "\n")))
		}
	}

	if s.OK() {
		b.WriteString(r.style("run completed without errors", successStyle))
		b.WriteString("\n")
	}

	return b.String()
}

// RunAll renders the outcome of a multi-center run.
func (r *Renderer) RunAll(summaries []*pipeline.Summary) string {
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Summary(s))
	}
	return b.String()
}

// Validation renders a single file's validation outcome.
func (r *Renderer) Validation(name, fileType string, outcome *format.Outcome) string {
	var b strings.Builder

	b.WriteString(r.style(name, fileStyle))
	b.WriteString(fmt.Sprintf(" (%s)\n", fileType))

	if outcome.Valid() {
		b.WriteString(r.style("VALID", successStyle))
		b.WriteString("\n")
	} else {
		b.WriteString(r.style("INVALID", errorStyle))
		b.WriteString("\n")
		for _, msg := range outcome.Errors {
			b.WriteString(fmt.Sprintf("  %s %s\n", r.style("error", errorStyle), strings.TrimRight(msg, "\n")))
		}
	}

	for _, msg := range outcome.Warnings {
		b.WriteString(fmt.Sprintf("  %s %s\n", r.style("warning", warningStyle), strings.TrimRight(msg, "\n")))
	}

	return b.String()
}
