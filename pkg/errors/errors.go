package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError captures run configuration problems: unknown registry
// package, missing or ambiguous project reference, bad flag values.
// These abort before any file is touched.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, message string, err error) error {
	return &ConfigError{Field: field, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownFormatError indicates that a file's declared or detected type has
// no registered handler. Fatal for that file only, never for the run.
type UnknownFormatError struct {
	FileName string
	TypeName string
}

// NewUnknownFormatError constructs an UnknownFormatError.
func NewUnknownFormatError(fileName, typeName string) error {
	return &UnknownFormatError{FileName: fileName, TypeName: typeName}
}

func (e *UnknownFormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.FileName != "" {
		return fmt.Sprintf("unknown format for file %s: no handler registered for type %q", e.FileName, e.TypeName)
	}
	return fmt.Sprintf("unknown format: no handler registered for type %q", e.TypeName)
}

// RegistryError indicates issues while assembling the format registry.
type RegistryError struct {
	Package string
	Message string
	Err     error
}

// NewRegistryError constructs a RegistryError for the given registry package.
func NewRegistryError(pkg string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RegistryError{Package: pkg, Message: message, Err: err}
}

func (e *RegistryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Package != "" {
		return fmt.Sprintf("registry error [%s]: %s", e.Package, e.Message)
	}
	return fmt.Sprintf("registry error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RegistryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProcessingError represents a runtime failure while processing a single
// file. The file is marked failed and the run continues.
type ProcessingError struct {
	FileID string
	Err    error
}

// NewProcessingError constructs a ProcessingError.
func NewProcessingError(fileID string, err error) error {
	return &ProcessingError{FileID: fileID, Err: err}
}

func (e *ProcessingError) Error() string {
	if e == nil {
		return ""
	}
	if e.FileID != "" {
		return fmt.Sprintf("processing error on file %s: %v", e.FileID, e.Err)
	}
	return fmt.Sprintf("processing error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ProcessingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InfraError indicates the remote store is unreachable or refused a
// create. Fatal, aborts the whole operation.
type InfraError struct {
	Op  string
	Err error
}

// NewInfraError constructs an InfraError for the named store operation.
func NewInfraError(op string, err error) error {
	return &InfraError{Op: op, Err: err}
}

func (e *InfraError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("infrastructure error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("infrastructure error: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *InfraError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
