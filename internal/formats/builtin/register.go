// Package builtin is the format registry package shipped with the CLI.
// It covers delimited text files and spreadsheets; deployments with their
// own file types provide additional packages and select them with
// --format-registry-packages.
package builtin

import "github.com/Sage-Bionetworks/synapsegenie/internal/format"

// PackageName is the name this package registers under.
const PackageName = "builtin"

func init() {
	format.RegisterPackage(PackageName,
		NewCSV(),
		NewTSV(),
		NewXLSX(),
	)
}
