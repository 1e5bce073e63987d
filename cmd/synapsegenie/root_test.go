package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootVersionShorthand(t *testing.T) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"-v"})

	require.NoError(t, root.Execute())
	require.Contains(t, buf.String(), "synapsegenie version")
}

func TestRegistryPackagesFlagSelectsPackages(t *testing.T) {
	path := writeTempFile(t, "clinical.csv", "PATIENT_ID\np1\n")

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"validate-single-file", path, "SAGE", "--format-registry-packages", "builtin"})

	require.NoError(t, root.Execute())
	require.Contains(t, buf.String(), "VALID")
}

func TestRegistryPackagesFlagUnknownPackage(t *testing.T) {
	path := writeTempFile(t, "clinical.csv", "PATIENT_ID\np1\n")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate-single-file", path, "SAGE", "--format-registry-packages", "nonexistent"})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown registry package")
}
