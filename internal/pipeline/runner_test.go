package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sage-Bionetworks/synapsegenie/internal/bootstrap"
	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	_ "github.com/Sage-Bionetworks/synapsegenie/internal/formats/builtin"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

type fixture struct {
	runner  *Runner
	store   *synapse.MemStore
	project *synapse.Project
	folders map[string]string
	mapping map[string]string
}

func newFixture(t *testing.T, centers ...string) *fixture {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	registry, err := format.BuildRegistry([]string{"builtin"}, format.PolicyStrict, log)
	require.NoError(t, err)

	store := synapse.NewMemStore()
	ctx := context.Background()

	result, err := bootstrap.New(store, registry, log).Bootstrap(ctx, bootstrap.Request{
		ProjectName: "genie test",
		Centers:     centers,
	})
	require.NoError(t, err)

	mapping, err := bootstrap.LoadDBMapping(ctx, store, result.Project.ID)
	require.NoError(t, err)

	return &fixture{
		runner:  NewRunner(store, registry, log),
		store:   store,
		project: result.Project,
		folders: result.CenterFolders,
		mapping: mapping,
	}
}

func (f *fixture) upload(t *testing.T, center, name, content string) *synapse.Entity {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	entity, err := f.store.StoreFile(context.Background(), path, f.folders[center])
	require.NoError(t, err)
	return entity
}

func (f *fixture) run(t *testing.T, center string, onlyValidate bool) *Summary {
	t.Helper()

	summary, err := f.runner.Run(context.Background(), RunRequest{
		ProjectID:    f.project.ID,
		Center:       center,
		OnlyValidate: onlyValidate,
		StagingDir:   t.TempDir(),
	})
	require.NoError(t, err)
	return summary
}

func TestRunPartialFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "valid1.csv", "name,age\nalice,30\n")
	f.upload(t, "SAGE", "invalid1.csv", "")
	f.upload(t, "SAGE", "valid2.csv", "name,age\nbob,41\n")

	summary := f.run(t, "SAGE", false)

	require.Equal(t, 2, summary.Validated)
	require.Equal(t, 1, summary.Invalid)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Errors, 1)
	require.Equal(t, "invalid1.csv", summary.Errors[0].Name)

	rows, err := f.store.QueryRows(context.Background(), f.mapping["csv"], map[string]string{"CENTER": "SAGE"})
	require.NoError(t, err)
	require.Len(t, rows, 2, "one data row per valid file")
}

func TestRunOnlyValidateSkipsProcessing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "valid.csv", "name\nalice\n")

	summary := f.run(t, "SAGE", true)

	require.Equal(t, 1, summary.Validated)
	require.Equal(t, 0, summary.Processed)

	rows, err := f.store.QueryRows(context.Background(), f.mapping["csv"], nil)
	require.NoError(t, err)
	require.Empty(t, rows)

	statusRows, err := f.store.QueryRows(context.Background(),
		f.mapping[bootstrap.DBValidationStatus], map[string]string{"center": "SAGE"})
	require.NoError(t, err)
	require.Len(t, statusRows, 1)
	require.Equal(t, StatusValidated, statusRows[0]["status"])
}

func TestRunSkipsUnchangedValidatedFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "valid.csv", "name\nalice\n")

	first := f.run(t, "SAGE", false)
	require.Equal(t, 0, first.Skipped)

	second := f.run(t, "SAGE", false)
	require.Equal(t, 1, second.Skipped)
	require.Equal(t, 1, second.Validated)
	require.Equal(t, 1, second.Processed, "unchanged valid files are still processed")
}

func TestRunRevalidatesPreviouslyInvalidFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	entity := f.upload(t, "SAGE", "data.csv", "")

	first := f.run(t, "SAGE", false)
	require.Equal(t, 1, first.Invalid)

	errorRows, err := f.store.QueryRows(context.Background(),
		f.mapping[bootstrap.DBErrorTracker], map[string]string{"center": "SAGE"})
	require.NoError(t, err)
	require.Len(t, errorRows, 1)
	require.Equal(t, entity.ID, errorRows[0]["id"])

	// The center fixes the file; the old error row must disappear.
	f.upload(t, "SAGE", "data.csv", "name\nalice\n")
	second := f.run(t, "SAGE", false)
	require.Equal(t, 1, second.Validated)
	require.Equal(t, 0, second.Invalid)

	errorRows, err = f.store.QueryRows(context.Background(),
		f.mapping[bootstrap.DBErrorTracker], map[string]string{"center": "SAGE"})
	require.NoError(t, err)
	require.Empty(t, errorRows)
}

func TestRunUnknownFormatCountsInvalid(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "image.png", "\x89PNG")

	summary := f.run(t, "SAGE", false)
	require.Equal(t, 1, summary.Invalid)
	require.Equal(t, 0, summary.Processed)
	require.Contains(t, summary.Errors[0].Message, "filename is incorrect")

	errorRows, err := f.store.QueryRows(context.Background(),
		f.mapping[bootstrap.DBErrorTracker], map[string]string{"center": "SAGE"})
	require.NoError(t, err)
	require.Len(t, errorRows, 1)
	require.Equal(t, UnknownTypeName, errorRows[0]["fileType"])
}

func TestRunFlagsDuplicatedFilenames(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "data.csv", "name\nalice\n")

	// Same filename in a nested folder of the same center.
	nested, err := f.store.StoreFolder(context.Background(), "archive", f.folders["SAGE"])
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nbob\n"), 0o644))
	_, err = f.store.StoreFile(context.Background(), path, nested.ID)
	require.NoError(t, err)

	summary := f.run(t, "SAGE", false)
	require.Equal(t, 2, summary.Invalid)
	require.Equal(t, 0, summary.Processed)
	for _, fileErr := range summary.Errors {
		require.Equal(t, DuplicatedFileError, fileErr.Message)
	}
}

func TestRunNotifiesSubmittersOfInvalidFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "broken.csv", "")

	f.run(t, "SAGE", true)

	messages := f.store.Messages()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Body, "broken.csv")
	require.Contains(t, messages[0].Subject, "validation error")
}

func TestRunUnknownCenterIsConfigError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")

	_, err := f.runner.Run(context.Background(), RunRequest{
		ProjectID:  f.project.ID,
		Center:     "UNKNOWN",
		StagingDir: t.TempDir(),
	})
	var configErr *genieerrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, err.Error(), "SAGE")
}

func TestRunAllCoversReleaseCenters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "ALPHA", "BETA")
	f.upload(t, "ALPHA", "a.csv", "name\nalice\n")
	f.upload(t, "BETA", "b.csv", "name\nbob\n")

	summaries, err := f.runner.RunAll(context.Background(), RunAllRequest{
		ProjectID:  f.project.ID,
		StagingDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "ALPHA", summaries[0].Center)
	require.Equal(t, "BETA", summaries[1].Center)
	for _, summary := range summaries {
		require.Equal(t, 1, summary.Processed)
	}
}

func TestRunStoresRunLog(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "valid.csv", "name\nalice\n")
	f.run(t, "SAGE", false)

	logs, err := f.store.ListFiles(context.Background(), f.mapping[bootstrap.DBLogs])
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "SAGE_log.txt", logs[0].Name)
}

func TestRunAccumulatesRowsAcrossFilesOfSameType(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "first.csv", "name,age\nalice,30\nbob,41\n")
	f.upload(t, "SAGE", "second.csv", "name,age\ncarol,52\n")

	summary := f.run(t, "SAGE", false)
	require.Equal(t, 2, summary.Processed)

	rows, err := f.store.QueryRows(context.Background(), f.mapping["csv"], map[string]string{format.CenterColumn: "SAGE"})
	require.NoError(t, err)
	require.Len(t, rows, 3, "rows from every valid file of the run must survive")

	names := make(map[string]bool, len(rows))
	for _, row := range rows {
		names[row["NAME"]] = true
	}
	require.True(t, names["alice"] && names["bob"] && names["carol"])
}

func TestRunRerunDoesNotDuplicateRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "first.csv", "name\nalice\n")
	f.upload(t, "SAGE", "second.csv", "name\nbob\n")

	f.run(t, "SAGE", false)
	f.run(t, "SAGE", false)

	rows, err := f.store.QueryRows(context.Background(), f.mapping["csv"], map[string]string{format.CenterColumn: "SAGE"})
	require.NoError(t, err)
	require.Len(t, rows, 2, "a rerun replaces the center's slice instead of appending to it")
}

func TestRunReportsFilesInNameOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "SAGE")
	f.upload(t, "SAGE", "zebra.csv", "")
	f.upload(t, "SAGE", "alpha.csv", "")

	summary := f.run(t, "SAGE", true)

	require.Len(t, summary.Errors, 2)
	require.Equal(t, "alpha.csv", summary.Errors[0].Name)
	require.Equal(t, "zebra.csv", summary.Errors[1].Name)
}
