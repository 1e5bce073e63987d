package synapse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMemStoreFolderIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)

	first, err := store.StoreFolder(ctx, "Centers", project.ID)
	require.NoError(t, err)
	second, err := store.StoreFolder(ctx, "Centers", project.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := store.StoreFolder(ctx, "Logs", project.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestMemStoreCreateProjectReusesByName(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	first, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)
	second, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestMemStoreTableRows(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)

	table, err := store.CreateTable(ctx, Table{
		Name:     "Status Table",
		ParentID: project.ID,
		Columns:  []Column{{Name: "id", Type: ColTypeEntityID}, {Name: "status", Type: ColTypeString}},
	})
	require.NoError(t, err)

	require.NoError(t, store.UpsertRows(ctx, table.ID, "id", []Row{
		{"id": "syn1", "status": "VALIDATED"},
		{"id": "syn2", "status": "INVALID"},
	}))
	// Same key replaces the row in place.
	require.NoError(t, store.UpsertRows(ctx, table.ID, "id", []Row{
		{"id": "syn2", "status": "VALIDATED"},
	}))

	rows, err := store.QueryRows(ctx, table.ID, map[string]string{"status": "VALIDATED"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, store.DeleteRows(ctx, table.ID, "id", []string{"syn1"}))
	rows, err = store.QueryRows(ctx, table.ID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "syn2", rows[0]["id"])
}

func TestMemStoreFindTableReturnsNilWhenAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	table, err := store.FindTable(context.Background(), "missing", "syn0")
	require.NoError(t, err)
	require.Nil(t, table)
}

func TestMemStoreFileVersioning(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)
	folder, err := store.StoreFolder(ctx, "SAGE", project.ID)
	require.NoError(t, err)

	path := writeTempFile(t, "data.csv", "a,b\n1,2\n")
	first, err := store.StoreFile(ctx, path, folder.ID)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a,b\n3,4\n"), 0o644))
	second, err := store.StoreFile(ctx, path, folder.ID)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID, "same name in same folder is a new version, not a new entity")
	require.NotEqual(t, first.MD5, second.MD5)

	fetched, err := store.GetFile(ctx, second.ID)
	require.NoError(t, err)
	content, err := os.ReadFile(fetched.Path)
	require.NoError(t, err)
	require.Equal(t, "a,b\n3,4\n", string(content))
}

func TestMemStoreListFilesWalksNestedFolders(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "genie test")
	require.NoError(t, err)
	root, err := store.StoreFolder(ctx, "SAGE", project.ID)
	require.NoError(t, err)
	nested, err := store.StoreFolder(ctx, "2026-08", root.ID)
	require.NoError(t, err)

	_, err = store.StoreFile(ctx, writeTempFile(t, "top.csv", "x\n"), root.ID)
	require.NoError(t, err)
	_, err = store.StoreFile(ctx, writeTempFile(t, "deep.csv", "y\n"), nested.ID)
	require.NoError(t, err)

	entities, err := store.ListFiles(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, entities, 2)
}

func TestMemStoreRecordsMessages(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	require.NoError(t, store.SendMessage(context.Background(), []string{"u1"}, "subject", "body"))

	messages := store.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, []string{"u1"}, messages[0].UserIDs)
	require.Equal(t, "subject", messages[0].Subject)
}

func TestMemStoreHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.CreateProject(ctx, "genie test")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemStoreMoveTableRenamesAndKeepsRows(t *testing.T) {
	t.Parallel()

	store := NewMemStore()
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "genie")
	require.NoError(t, err)
	archive, err := store.CreateProject(ctx, "archive")
	require.NoError(t, err)

	table, err := store.CreateTable(ctx, Table{Name: "csv", ParentID: project.ID,
		Columns: []Column{{Name: "ROW_ID", Type: ColTypeString}}})
	require.NoError(t, err)
	require.NoError(t, store.UpsertRows(ctx, table.ID, "ROW_ID", []Row{{"ROW_ID": "r1"}}))

	moved, err := store.MoveTable(ctx, table.ID, archive.ID, "ARCHIVED csv")
	require.NoError(t, err)
	require.Equal(t, table.ID, moved.ID)
	require.Equal(t, archive.ID, moved.ParentID)
	require.Equal(t, "ARCHIVED csv", moved.Name)

	rows, err := store.QueryRows(ctx, table.ID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// The old (parent, name) slot is free again.
	found, err := store.FindTable(ctx, "csv", project.ID)
	require.NoError(t, err)
	require.Nil(t, found)

	fetched, err := store.GetTable(ctx, table.ID)
	require.NoError(t, err)
	require.Equal(t, "ARCHIVED csv", fetched.Name)
	require.Len(t, fetched.Columns, 1)
}
