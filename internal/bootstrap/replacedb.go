package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// ReplaceDBRequest selects one file type's database table for
// replacement. The old table is archived, not deleted.
type ReplaceDBRequest struct {
	ProjectID string
	FileType  string
	// ArchiveProjectID receives the old table.
	ArchiveProjectID string
	// TableName names the replacement table; today's date is appended.
	TableName string
}

// ReplaceDBResult reports the replacement and the archived table.
type ReplaceDBResult struct {
	NewTable      *synapse.Table
	ArchivedTable *synapse.Table
}

// ReplaceDB swaps a file type's database table for a fresh, empty one
// with the same schema. The mapping row is repointed at the new table
// and the old table is moved to the archive project under an ARCHIVED
// name, so processed data stays queryable.
func (b *Bootstrapper) ReplaceDB(ctx context.Context, req ReplaceDBRequest) (*ReplaceDBResult, error) {
	mappingTableID, mapping, err := loadDBMappingTable(ctx, b.store, req.ProjectID)
	if err != nil {
		return nil, err
	}

	oldID := mapping[req.FileType]
	if oldID == "" {
		return nil, genieerrors.NewConfigError("filetype",
			fmt.Sprintf("must specify an existing database type, %q is not mapped", req.FileType), nil)
	}

	oldTable, err := b.store.GetTable(ctx, oldID)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	newTable, err := b.store.CreateTable(ctx, synapse.Table{
		Name:     fmt.Sprintf("%s - %s", req.TableName, today),
		ParentID: req.ProjectID,
		Columns:  oldTable.Columns,
	})
	if err != nil {
		return nil, err
	}

	err = b.store.UpsertRows(ctx, mappingTableID, "Database", []synapse.Row{
		{"Database": req.FileType, "Id": newTable.ID},
	})
	if err != nil {
		return nil, err
	}

	archived, err := b.store.MoveTable(ctx, oldID, req.ArchiveProjectID,
		fmt.Sprintf("ARCHIVED %s-%s", today, oldTable.Name))
	if err != nil {
		return nil, err
	}

	b.logger.Infof("replaced %s database: %s -> %s", req.FileType, oldID, newTable.ID)
	return &ReplaceDBResult{NewTable: newTable, ArchivedTable: archived}, nil
}
