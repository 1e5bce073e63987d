package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	projectIDPattern = regexp.MustCompile(`^syn[0-9a-zA-Z]+$`)
	centerPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("project_id", func(fl validator.FieldLevel) bool {
			return projectIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("center_code", func(fl validator.FieldLevel) bool {
			return centerPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return genieerrors.NewConfigError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Centers))
	for i, center := range cfg.Centers {
		if _, exists := seen[center]; exists {
			return genieerrors.NewConfigError(fmt.Sprintf("centers[%d]", i), fmt.Sprintf("duplicate center %q", center), nil)
		}
		seen[center] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return genieerrors.NewConfigError(field, msg, err)
	}

	return genieerrors.NewConfigError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
