package format

import (
	"context"

	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
)

// Destination table columns every handler adds to its uploaded rows.
// The pipeline clears a center's slice of each destination table once
// per run, keyed on CenterColumn, before any handler uploads into it;
// handlers themselves only upsert, keyed on RowIDColumn.
const (
	RowIDColumn  = "ROW_ID"
	CenterColumn = "CENTER"
)

// ProcessRequest carries everything a handler needs to process one
// validated file.
type ProcessRequest struct {
	Store  synapse.Store
	Center string
	// Entity is the file being processed; Entity.Path points at the
	// downloaded content.
	Entity synapse.Entity
	// StagedPath is where the handler writes its reformatted copy.
	StagedPath string
	// TableID is the file type's destination table, empty when the type
	// has no table provisioned.
	TableID string
	// FolderID is the file type's output folder, empty when absent.
	FolderID string
}

// ProcessResult reports what a handler's Process step produced.
type ProcessResult struct {
	StagedPath   string
	RowsUploaded int
}

// Handler validates and processes one kind of file. Implementations must
// be stateless: the pipeline calls a single instance from every run, and
// validating the same file twice must yield identical outcomes.
type Handler interface {
	// Name returns the unique file type name this handler owns.
	Name() string

	// MatchFile reports whether a file with the given name belongs to
	// this handler. Used for filename-based type detection.
	MatchFile(name string) bool

	// Validate reads the file at path and reports findings. Unreadable
	// or unparseable content is reported as an outcome error, not a Go
	// error; Validate never returns nil.
	Validate(ctx context.Context, path string) *Outcome

	// Process reformats the validated file, writes the staged copy, and
	// uploads rows to the destination table when one is provisioned.
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}
