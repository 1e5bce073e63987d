package pipeline

import (
	"context"
	"strings"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
)

// File statuses recorded in the validation status table.
const (
	StatusValidated = "VALIDATED"
	StatusInvalid   = "INVALID"
)

// UnknownTypeName is recorded as the file type when no handler claims a
// file.
const UnknownTypeName = "other"

// FileRequest identifies one file to validate.
type FileRequest struct {
	Name string
	Path string
	// DeclaredType skips filename-based detection when set.
	DeclaredType string
	Center       string
}

// Validator resolves a file's type against the registry and runs the
// matching handler. Recoverable findings land in the outcome; an unknown
// type invalidates the file without failing the run.
type Validator struct {
	registry *format.Registry
	logger   *logger.Logger
}

// NewValidator creates a Validator.
func NewValidator(registry *format.Registry, log *logger.Logger) *Validator {
	return &Validator{registry: registry, logger: log}
}

// ValidateFile validates a single file and returns its outcome together
// with the resolved file type. The type is UnknownTypeName when no
// handler claimed the file.
func (v *Validator) ValidateFile(ctx context.Context, req FileRequest) (*format.Outcome, string) {
	fileType := req.DeclaredType
	if fileType == "" {
		detected, ok := v.registry.DetectType(req.Name)
		if !ok {
			outcome := &format.Outcome{}
			outcome.AddError(
				"Your filename is incorrect! Please change your filename before you run "+
					"the validator or specify --filetype if you are running the validator locally. "+
					"Registered file types: %s", strings.Join(v.registry.Types(), ", "))
			return outcome, UnknownTypeName
		}
		fileType = detected
	}

	handler, err := v.registry.Lookup(fileType)
	if err != nil {
		outcome := &format.Outcome{}
		outcome.AddError("%v", err)
		return outcome, UnknownTypeName
	}

	v.logger.WithFields(map[string]any{"center": req.Center, "fileType": fileType}).
		Infof("VALIDATING %s", req.Name)
	return handler.Validate(ctx, req.Path), fileType
}
