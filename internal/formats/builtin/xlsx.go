package builtin

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// xlsxHandler validates and processes spreadsheet uploads. Only the first
// sheet is read; the processed copy is staged as tab-separated text so
// downstream tooling sees one shape regardless of submission format.
type xlsxHandler struct{}

// NewXLSX returns the spreadsheet handler.
func NewXLSX() format.Handler {
	return &xlsxHandler{}
}

var _ format.Handler = (*xlsxHandler)(nil)

func (h *xlsxHandler) Name() string { return "xlsx" }

func (h *xlsxHandler) MatchFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func (h *xlsxHandler) read(path string) ([]string, [][]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func (h *xlsxHandler) Validate(ctx context.Context, path string) *format.Outcome {
	outcome := &format.Outcome{}
	if err := ctx.Err(); err != nil {
		outcome.AddError("xlsx: validation cancelled: %v", err)
		return outcome
	}

	header, records, err := h.read(path)
	if err != nil {
		outcome.AddError("The file (%s) cannot be read. Original error: %v", path, err)
		return outcome
	}

	if header == nil {
		outcome.AddError("xlsx: First sheet must not be empty")
		return outcome
	}
	for i, column := range header {
		if strings.TrimSpace(column) == "" {
			outcome.AddError("xlsx: Header column %d must not be blank", i+1)
		}
	}
	if len(records) == 0 {
		outcome.AddError("xlsx: First sheet must have at least one data row")
	}
	return outcome
}

func (h *xlsxHandler) Process(ctx context.Context, req format.ProcessRequest) (*format.ProcessResult, error) {
	header, records, err := h.read(req.Entity.Path)
	if err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	header = upperHeader(header)

	// Spreadsheet rows can be ragged; pad to the header width.
	for i, record := range records {
		for len(record) < len(header) {
			record = append(record, "")
		}
		records[i] = record[:len(header)]
	}

	if err := writeStaged(req.StagedPath, '\t', header, records); err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	uploaded, err := uploadRows(ctx, req, header, records)
	if err != nil {
		return nil, genieerrors.NewProcessingError(req.Entity.ID, err)
	}

	return &format.ProcessResult{StagedPath: req.StagedPath, RowsUploaded: uploaded}, nil
}
