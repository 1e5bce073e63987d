package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "genie.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseConfigValid(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
format_registry_packages:
  - builtin
project_id: syn1234
centers:
  - SAGE
  - TEST-1
policy: strict
log_level: debug
endpoint: https://repo.example.org/v1
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"builtin"}, cfg.RegistryPackages)
	require.Equal(t, "syn1234", cfg.ProjectID)
	require.Equal(t, []string{"SAGE", "TEST-1"}, cfg.Centers)
	require.Equal(t, "strict", cfg.Policy)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestParseConfigEmptyFileIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.Empty(t, cfg.ProjectID)
	require.Empty(t, cfg.Centers)
}

func TestParseConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var parseErr *genieerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseConfigMalformedYAMLReportsLine(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "project_id: syn1\ncenters: [unterminated\n")

	_, err := ParseConfig(path)
	require.Error(t, err)

	var parseErr *genieerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Positive(t, parseErr.Line)
}

func TestParseConfigRejectsBadProjectID(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(writeConfig(t, "project_id: notasynapseid\n"))
	require.Error(t, err)

	var cfgErr *genieerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Contains(t, cfgErr.Field, "projectid")
}

func TestParseConfigRejectsBadPolicy(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(writeConfig(t, "policy: mostly-strict\n"))
	require.Error(t, err)

	var cfgErr *genieerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestValidateRejectsDuplicateCenters(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{Centers: []string{"SAGE", "SAGE"}})
	require.Error(t, err)

	var cfgErr *genieerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Contains(t, cfgErr.Message, "duplicate center")
}

func TestValidateRejectsBadCenterCode(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{Centers: []string{"bad center"}})
	require.Error(t, err)
}
