package pipeline

import (
	"fmt"
	"strings"
)

// FileError records one file's failure for the end-of-run report.
type FileError struct {
	FileID  string
	Name    string
	Message string
}

// Summary accumulates per-file results for one center's run. One bad
// file never aborts the run; it shows up here instead.
type Summary struct {
	Center    string
	Validated int
	Invalid   int
	Skipped   int
	Processed int
	Failed    int
	Errors    []FileError
}

func (s *Summary) addError(fileID, name, message string) {
	s.Errors = append(s.Errors, FileError{FileID: fileID, Name: name, Message: message})
}

// OK reports whether every file validated and processed cleanly.
func (s *Summary) OK() bool {
	return s.Invalid == 0 && s.Failed == 0
}

// String renders the plain-text run report.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Center %s: %d validated, %d invalid, %d skipped, %d processed, %d failed\n",
		s.Center, s.Validated, s.Invalid, s.Skipped, s.Processed, s.Failed)
	for _, fileErr := range s.Errors {
		fmt.Fprintf(&b, "  %s (%s):\n", fileErr.Name, fileErr.FileID)
		for _, line := range strings.Split(strings.TrimRight(fileErr.Message, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
