// Package bootstrap provisions the remote project structure required
// before any validation or processing can run: center folders, the
// status / center-map / error-tracker tables, and per-file-type output
// folders and destination tables. Every step is create-if-absent, so
// re-running with an expanded center list only adds what is missing.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// Fixed folder and table names inside a provisioned project.
const (
	FolderLogs    = "Logs"
	FolderCenters = "Centers"
	FolderOutput  = "Output"

	TableStatus    = "Status Table"
	TableCenterMap = "Center Table"
	TableErrors    = "Error Table"
	TableDBMapping = "DB Mapping Table"
)

// Database names recorded in the DB mapping table. File types add their
// own entries: "<type>" for the destination table and "<type>_folder"
// for the output folder.
const (
	DBCenterMapping    = "centerMapping"
	DBValidationStatus = "validationStatus"
	DBErrorTracker     = "errorTracker"
	DBMapping          = "dbMapping"
	DBLogs             = "logs"
)

// AnnotationDBMapping is the project annotation pointing at the DB
// mapping table, the entry point for everything else.
const AnnotationDBMapping = "dbMapping"

// FolderSuffix builds the mapping key for a file type's output folder.
func FolderSuffix(fileType string) string {
	return fileType + "_folder"
}

// Request selects the project to provision and the centers to create.
// Exactly one of ProjectID and ProjectName must be set.
type Request struct {
	ProjectID   string
	ProjectName string
	Centers     []string
}

// Result reports what a bootstrap run resolved or created.
type Result struct {
	Project          *synapse.Project
	DBMappingTableID string
	CenterFolders    map[string]string
}

// Bootstrapper provisions project infrastructure through a Store.
type Bootstrapper struct {
	store    synapse.Store
	registry *format.Registry
	logger   *logger.Logger
}

// New creates a Bootstrapper.
func New(store synapse.Store, registry *format.Registry, log *logger.Logger) *Bootstrapper {
	return &Bootstrapper{store: store, registry: registry, logger: log}
}

// Bootstrap idempotently ensures the project and its per-center and
// per-file-type structures exist.
func (b *Bootstrapper) Bootstrap(ctx context.Context, req Request) (*Result, error) {
	if (req.ProjectID == "") == (req.ProjectName == "") {
		return nil, genieerrors.NewConfigError("project",
			"exactly one of project id or project name must be given", nil)
	}

	project, err := b.resolveProject(ctx, req)
	if err != nil {
		return nil, err
	}
	b.logger.Infof("bootstrapping project %s (%s)", project.Name, project.ID)

	logsFolder, err := b.store.StoreFolder(ctx, FolderLogs, project.ID)
	if err != nil {
		return nil, err
	}
	centersRoot, err := b.store.StoreFolder(ctx, FolderCenters, project.ID)
	if err != nil {
		return nil, err
	}
	outputRoot, err := b.store.StoreFolder(ctx, FolderOutput, project.ID)
	if err != nil {
		return nil, err
	}

	centerFolders := make(map[string]string, len(req.Centers))
	for _, center := range req.Centers {
		folder, err := b.store.StoreFolder(ctx, center, centersRoot.ID)
		if err != nil {
			return nil, err
		}
		centerFolders[center] = folder.ID
	}

	statusTable, err := b.ensureTable(ctx, statusTableSchema(project.ID))
	if err != nil {
		return nil, err
	}
	centerTable, err := b.ensureTable(ctx, centerMapTableSchema(project.ID))
	if err != nil {
		return nil, err
	}
	errorTable, err := b.ensureTable(ctx, errorTableSchema(project.ID))
	if err != nil {
		return nil, err
	}
	mappingTable, err := b.ensureTable(ctx, dbMappingTableSchema(project.ID))
	if err != nil {
		return nil, err
	}

	centerRows := make([]synapse.Row, 0, len(req.Centers))
	for _, center := range req.Centers {
		centerRows = append(centerRows, synapse.Row{
			"name":       center,
			"center":     center,
			"inputSynId": centerFolders[center],
			"release":    "true",
		})
	}
	if err := b.store.UpsertRows(ctx, centerTable.ID, "center", centerRows); err != nil {
		return nil, err
	}

	mappingRows := []synapse.Row{
		{"Database": DBCenterMapping, "Id": centerTable.ID},
		{"Database": DBValidationStatus, "Id": statusTable.ID},
		{"Database": DBErrorTracker, "Id": errorTable.ID},
		{"Database": DBMapping, "Id": mappingTable.ID},
		{"Database": DBLogs, "Id": logsFolder.ID},
	}

	for _, fileType := range b.registry.Types() {
		typeFolder, err := b.store.StoreFolder(ctx, fileType, outputRoot.ID)
		if err != nil {
			return nil, err
		}
		typeTable, err := b.ensureTable(ctx, synapse.Table{
			Name:     fileType,
			ParentID: project.ID,
			Columns: []synapse.Column{
				{Name: format.RowIDColumn, Type: synapse.ColTypeString, MaximumSize: 50},
				{Name: format.CenterColumn, Type: synapse.ColTypeString, MaximumSize: 50, FacetType: "enumeration"},
			},
		})
		if err != nil {
			return nil, err
		}
		mappingRows = append(mappingRows,
			synapse.Row{"Database": FolderSuffix(fileType), "Id": typeFolder.ID},
			synapse.Row{"Database": fileType, "Id": typeTable.ID},
		)
	}

	if err := b.store.UpsertRows(ctx, mappingTable.ID, "Database", mappingRows); err != nil {
		return nil, err
	}

	if err := b.store.SetAnnotation(ctx, project.ID, AnnotationDBMapping, mappingTable.ID); err != nil {
		return nil, err
	}

	b.logger.Infof("bootstrap complete: %d centers, %d file types", len(req.Centers), len(b.registry.Types()))
	return &Result{
		Project:          project,
		DBMappingTableID: mappingTable.ID,
		CenterFolders:    centerFolders,
	}, nil
}

func (b *Bootstrapper) resolveProject(ctx context.Context, req Request) (*synapse.Project, error) {
	if req.ProjectID != "" {
		return b.store.GetProject(ctx, req.ProjectID)
	}
	return b.store.CreateProject(ctx, req.ProjectName)
}

// ensureTable creates the table unless one with the same name already
// exists under the parent. Existing tables keep their schema and id.
func (b *Bootstrapper) ensureTable(ctx context.Context, schema synapse.Table) (*synapse.Table, error) {
	existing, err := b.store.FindTable(ctx, schema.Name, schema.ParentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		b.logger.Debugf("table %q already exists as %s", schema.Name, existing.ID)
		return existing, nil
	}
	return b.store.CreateTable(ctx, schema)
}

func statusTableSchema(projectID string) synapse.Table {
	return synapse.Table{
		Name:     TableStatus,
		ParentID: projectID,
		Columns: []synapse.Column{
			{Name: "id", Type: synapse.ColTypeEntityID},
			{Name: "md5", Type: synapse.ColTypeString, MaximumSize: 1000},
			{Name: "status", Type: synapse.ColTypeString, MaximumSize: 50, FacetType: "enumeration"},
			{Name: "name", Type: synapse.ColTypeString, MaximumSize: 1000},
			{Name: "center", Type: synapse.ColTypeString, MaximumSize: 20, FacetType: "enumeration"},
			{Name: "modifiedOn", Type: synapse.ColTypeDate},
			{Name: "fileType", Type: synapse.ColTypeString, MaximumSize: 50},
		},
	}
}

func centerMapTableSchema(projectID string) synapse.Table {
	return synapse.Table{
		Name:     TableCenterMap,
		ParentID: projectID,
		Columns: []synapse.Column{
			{Name: "name", Type: synapse.ColTypeString, MaximumSize: 250},
			{Name: "center", Type: synapse.ColTypeString, MaximumSize: 50},
			{Name: "inputSynId", Type: synapse.ColTypeEntityID},
			{Name: "release", Type: synapse.ColTypeBoolean, DefaultValue: "false"},
		},
	}
}

func errorTableSchema(projectID string) synapse.Table {
	return synapse.Table{
		Name:     TableErrors,
		ParentID: projectID,
		Columns: []synapse.Column{
			{Name: "id", Type: synapse.ColTypeEntityID},
			{Name: "center", Type: synapse.ColTypeString, MaximumSize: 50, FacetType: "enumeration"},
			{Name: "errors", Type: synapse.ColTypeLargeText},
			{Name: "name", Type: synapse.ColTypeString, MaximumSize: 500},
			{Name: "fileType", Type: synapse.ColTypeString, MaximumSize: 50},
		},
	}
}

func dbMappingTableSchema(projectID string) synapse.Table {
	return synapse.Table{
		Name:     TableDBMapping,
		ParentID: projectID,
		Columns: []synapse.Column{
			{Name: "Database", Type: synapse.ColTypeString, MaximumSize: 50},
			{Name: "Id", Type: synapse.ColTypeEntityID},
		},
	}
}

// LoadDBMapping resolves a project's database-name to table-id mapping
// by following the project's dbMapping annotation.
func LoadDBMapping(ctx context.Context, store synapse.Store, projectID string) (map[string]string, error) {
	_, mapping, err := loadDBMappingTable(ctx, store, projectID)
	return mapping, err
}

// loadDBMappingTable additionally returns the mapping table's own id,
// for callers that need to rewrite mapping rows.
func loadDBMappingTable(ctx context.Context, store synapse.Store, projectID string) (string, map[string]string, error) {
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return "", nil, err
	}

	mappingTableID := project.Annotations[AnnotationDBMapping]
	if mappingTableID == "" {
		return "", nil, genieerrors.NewConfigError("project_id",
			fmt.Sprintf("project %s has no %s annotation; run bootstrap-infra first", projectID, AnnotationDBMapping), nil)
	}

	rows, err := store.QueryRows(ctx, mappingTableID, nil)
	if err != nil {
		return "", nil, err
	}

	mapping := make(map[string]string, len(rows))
	for _, row := range rows {
		mapping[row["Database"]] = row["Id"]
	}
	return mappingTableID, mapping, nil
}
