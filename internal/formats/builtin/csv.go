package builtin

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// delimitedHandler validates and processes delimiter-separated files. It
// backs both the csv and tsv file types.
type delimitedHandler struct {
	typeName   string
	delimiter  rune
	extensions []string
}

// NewCSV returns the handler for comma-separated files.
func NewCSV() format.Handler {
	return &delimitedHandler{typeName: "csv", delimiter: ',', extensions: []string{".csv"}}
}

// NewTSV returns the handler for tab-separated files. Plain .txt uploads
// are treated as tab-separated, matching the submission conventions.
func NewTSV() format.Handler {
	return &delimitedHandler{typeName: "tsv", delimiter: '\t', extensions: []string{".tsv", ".txt"}}
}

var _ format.Handler = (*delimitedHandler)(nil)

func (h *delimitedHandler) Name() string { return h.typeName }

func (h *delimitedHandler) MatchFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range h.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (h *delimitedHandler) read(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = h.delimiter
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	return header, records, nil
}

func (h *delimitedHandler) Validate(ctx context.Context, path string) *format.Outcome {
	outcome := &format.Outcome{}
	if err := ctx.Err(); err != nil {
		outcome.AddError("%s: validation cancelled: %v", h.typeName, err)
		return outcome
	}

	header, records, err := h.read(path)
	if err != nil {
		outcome.AddError("The file (%s) cannot be read. Original error: %v", path, err)
		return outcome
	}

	if header == nil {
		outcome.AddError("%s: File must not be empty", h.typeName)
		return outcome
	}
	for i, column := range header {
		if strings.TrimSpace(column) == "" {
			outcome.AddError("%s: Header column %d must not be blank", h.typeName, i+1)
		}
	}
	if len(records) == 0 {
		outcome.AddError("%s: File must have at least one data row", h.typeName)
	}
	for i, record := range records {
		if len(record) != len(header) {
			outcome.AddError("%s: Row %d has %d fields, expected %d", h.typeName, i+1, len(record), len(header))
		}
	}
	return outcome
}

func (h *delimitedHandler) Process(ctx context.Context, req format.ProcessRequest) (*format.ProcessResult, error) {
	header, records, err := h.read(req.Entity.Path)
	if err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	header = upperHeader(header)

	if err := writeStaged(req.StagedPath, h.delimiter, header, records); err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	uploaded, err := uploadRows(ctx, req, header, records)
	if err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	return &format.ProcessResult{StagedPath: req.StagedPath, RowsUploaded: uploaded}, nil
}
