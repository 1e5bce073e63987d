package format

import (
	"fmt"
	"strings"
)

// Outcome accumulates the findings of validating one file. Recoverable
// format problems (missing column, bad value) are recorded as errors or
// warnings here and never surface through Go's error channel.
type Outcome struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether validation produced no errors. Warnings do not
// affect validity.
func (o *Outcome) Valid() bool {
	return o != nil && len(o.Errors) == 0
}

// AddError records a recoverable validation error.
func (o *Outcome) AddError(format string, args ...any) {
	o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a validation warning.
func (o *Outcome) AddWarning(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends another outcome's findings, preserving order.
func (o *Outcome) Merge(other *Outcome) {
	if other == nil {
		return
	}
	o.Errors = append(o.Errors, other.Errors...)
	o.Warnings = append(o.Warnings, other.Warnings...)
}

// Message renders the human-readable validation report.
func (o *Outcome) Message() string {
	var b strings.Builder
	if o.Valid() {
		b.WriteString("YOUR FILE IS VALIDATED!\n")
	} else {
		b.WriteString("----------------ERRORS----------------\n")
		for _, e := range o.Errors {
			b.WriteString(e)
			b.WriteString("\n")
		}
	}
	if len(o.Warnings) > 0 {
		b.WriteString("-------------WARNINGS-------------\n")
		for _, w := range o.Warnings {
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
