package main

// Blank imports ensure format package init() registration runs for the
// CLI binary.
import (
	_ "github.com/Sage-Bionetworks/synapsegenie/internal/formats/builtin"
)
