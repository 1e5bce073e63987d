package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	_ "github.com/Sage-Bionetworks/synapsegenie/internal/formats/builtin"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

func newFixture(t *testing.T) (*Bootstrapper, *synapse.MemStore) {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)

	registry, err := format.BuildRegistry([]string{"builtin"}, format.PolicyStrict, log)
	require.NoError(t, err)

	store := synapse.NewMemStore()
	return New(store, registry, log), store
}

func TestBootstrapCreatesProjectStructure(t *testing.T) {
	t.Parallel()

	b, store := newFixture(t)
	ctx := context.Background()

	result, err := b.Bootstrap(ctx, Request{ProjectName: "genie test", Centers: []string{"SAGE", "NONE"}})
	require.NoError(t, err)
	require.NotEmpty(t, result.Project.ID)
	require.Len(t, result.CenterFolders, 2)

	mapping, err := LoadDBMapping(ctx, store, result.Project.ID)
	require.NoError(t, err)
	for _, db := range []string{DBCenterMapping, DBValidationStatus, DBErrorTracker, DBMapping, DBLogs} {
		require.NotEmpty(t, mapping[db], "mapping for %s", db)
	}
	// Every registered file type gets a table and an output folder.
	for _, fileType := range []string{"csv", "tsv", "xlsx"} {
		require.NotEmpty(t, mapping[fileType])
		require.NotEmpty(t, mapping[FolderSuffix(fileType)])
	}

	centers, err := store.QueryRows(ctx, mapping[DBCenterMapping], nil)
	require.NoError(t, err)
	require.Len(t, centers, 2)
	for _, row := range centers {
		require.Equal(t, "true", row["release"])
		require.True(t, strings.HasPrefix(row["inputSynId"], "syn"))
	}
}

func TestBootstrapIsIdempotentAndExtendsCenters(t *testing.T) {
	t.Parallel()

	b, store := newFixture(t)
	ctx := context.Background()

	first, err := b.Bootstrap(ctx, Request{ProjectName: "genie test", Centers: []string{"A", "B"}})
	require.NoError(t, err)

	second, err := b.Bootstrap(ctx, Request{ProjectID: first.Project.ID, Centers: []string{"A", "B", "C"}})
	require.NoError(t, err)

	// Existing structures keep their identifiers.
	require.Equal(t, first.DBMappingTableID, second.DBMappingTableID)
	require.Equal(t, first.CenterFolders["A"], second.CenterFolders["A"])
	require.Equal(t, first.CenterFolders["B"], second.CenterFolders["B"])
	require.NotEmpty(t, second.CenterFolders["C"])

	mapping, err := LoadDBMapping(ctx, store, first.Project.ID)
	require.NoError(t, err)
	centers, err := store.QueryRows(ctx, mapping[DBCenterMapping], nil)
	require.NoError(t, err)
	require.Len(t, centers, 3, "exactly one row per center after re-bootstrap")
}

func TestBootstrapRejectsAmbiguousProjectReference(t *testing.T) {
	t.Parallel()

	b, _ := newFixture(t)
	ctx := context.Background()

	var configErr *genieerrors.ConfigError

	_, err := b.Bootstrap(ctx, Request{Centers: []string{"A"}})
	require.ErrorAs(t, err, &configErr)

	_, err = b.Bootstrap(ctx, Request{ProjectID: "syn1", ProjectName: "both", Centers: []string{"A"}})
	require.ErrorAs(t, err, &configErr)
}

func TestBootstrapUnknownProjectIsInfraError(t *testing.T) {
	t.Parallel()

	b, _ := newFixture(t)

	_, err := b.Bootstrap(context.Background(), Request{ProjectID: "syn-missing", Centers: []string{"A"}})
	var infraErr *genieerrors.InfraError
	require.ErrorAs(t, err, &infraErr)
}

func TestLoadDBMappingRequiresBootstrap(t *testing.T) {
	t.Parallel()

	store := synapse.NewMemStore()
	ctx := context.Background()
	project, err := store.CreateProject(ctx, "raw project")
	require.NoError(t, err)

	_, err = LoadDBMapping(ctx, store, project.ID)
	var configErr *genieerrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, err.Error(), "bootstrap-infra")
}
