// Package config loads the optional run-configuration file. Everything
// in it can also be given as a CLI flag; flags win over file values.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// Config carries run defaults shared across commands.
type Config struct {
	RegistryPackages []string `yaml:"format_registry_packages" validate:"omitempty,min=1,dive,required"`
	ProjectID        string   `yaml:"project_id" validate:"omitempty,project_id"`
	Centers          []string `yaml:"centers" validate:"omitempty,dive,center_code"`
	Policy           string   `yaml:"policy" validate:"omitempty,oneof=strict override"`
	LogLevel         string   `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	Endpoint         string   `yaml:"endpoint" validate:"omitempty,url"`
	AuthToken        string   `yaml:"auth_token"`
}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a configuration file from disk, validates it, and
// returns the resulting model.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, genieerrors.NewParseError(path, 0, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, genieerrors.NewParseError(path, extractLine(err), err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
