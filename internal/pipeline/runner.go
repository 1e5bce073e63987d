package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sage-Bionetworks/synapsegenie/internal/bootstrap"
	"github.com/Sage-Bionetworks/synapsegenie/internal/format"
	"github.com/Sage-Bionetworks/synapsegenie/internal/logger"
	"github.com/Sage-Bionetworks/synapsegenie/internal/synapse"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

// DuplicatedFileError is recorded for files sharing a name inside one
// center's input folder. Centers must upload changed files as new
// versions instead.
const DuplicatedFileError = "Duplicated filename! Files should be uploaded as new versions " +
	"and the entire dataset should be uploaded."

// RunRequest scopes one processing run to a center.
type RunRequest struct {
	ProjectID    string
	Center       string
	OnlyValidate bool
	// StagingDir receives processed copies and the run log. A temporary
	// directory is used when empty.
	StagingDir string
}

// RunAllRequest scopes a run over every release-enabled center.
type RunAllRequest struct {
	ProjectID    string
	OnlyValidate bool
	StagingDir   string
}

// Runner validates and processes a center's input files against the
// provisioned project tables.
type Runner struct {
	store     synapse.Store
	registry  *format.Registry
	validator *Validator
	logger    *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(store synapse.Store, registry *format.Registry, log *logger.Logger) *Runner {
	return &Runner{
		store:     store,
		registry:  registry,
		validator: NewValidator(registry, log),
		logger:    log,
	}
}

// fileState tracks one input file through a run.
type fileState struct {
	entity      synapse.Entity
	status      string
	fileType    string
	message     string
	revalidated bool
}

// Run validates the center's files, reconciles the status and error
// tables, and (unless OnlyValidate) processes every valid file. Per-file
// failures are accumulated in the summary; only configuration and
// infrastructure errors abort the run.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*Summary, error) {
	mapping, err := bootstrap.LoadDBMapping(ctx, r.store, req.ProjectID)
	if err != nil {
		return nil, err
	}

	centerRow, err := r.centerRow(ctx, mapping, req.Center)
	if err != nil {
		return nil, err
	}

	stagingDir := req.StagingDir
	if stagingDir == "" {
		stagingDir, err = os.MkdirTemp("", "synapsegenie")
		if err != nil {
			return nil, genieerrors.NewInfraError("create staging dir", err)
		}
	}

	summary := &Summary{Center: req.Center}

	entities, err := r.store.ListFiles(ctx, centerRow["inputSynId"])
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		r.logger.Infof("%s has not uploaded any files", req.Center)
		return summary, nil
	}
	// Listing order is not guaranteed by the store; sort so reports and
	// uploads are stable across runs.
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Name != entities[j].Name {
			return entities[i].Name < entities[j].Name
		}
		return entities[i].ID < entities[j].ID
	})
	r.logger.Infof("%s has uploaded %d files", req.Center, len(entities))

	prevStatus, err := r.rowsByID(ctx, mapping[bootstrap.DBValidationStatus], req.Center)
	if err != nil {
		return nil, err
	}
	prevErrors, err := r.rowsByID(ctx, mapping[bootstrap.DBErrorTracker], req.Center)
	if err != nil {
		return nil, err
	}

	states, err := r.validateFiles(ctx, req.Center, entities, prevStatus, prevErrors, summary)
	if err != nil {
		return nil, err
	}

	markDuplicates(states)

	for _, state := range states {
		if state.status == StatusValidated {
			summary.Validated++
		} else {
			summary.Invalid++
			summary.addError(state.entity.ID, state.entity.Name, state.message)
		}
	}

	if err := r.reconcileTables(ctx, mapping, req.Center, states, prevStatus, prevErrors); err != nil {
		return nil, err
	}

	r.notifySubmitters(ctx, states)

	if !req.OnlyValidate {
		r.processFiles(ctx, mapping, req.Center, stagingDir, states, summary)
	} else {
		r.logger.Infof("ONLY VALIDATION OCCURRED FOR %s", req.Center)
	}

	r.storeRunLog(ctx, mapping, req, stagingDir, summary)
	r.logger.Infof("run complete for %s: %s", req.Center, strings.TrimSpace(summary.String()))
	return summary, nil
}

// RunAll runs every release-enabled center in order.
func (r *Runner) RunAll(ctx context.Context, req RunAllRequest) ([]*Summary, error) {
	mapping, err := bootstrap.LoadDBMapping(ctx, r.store, req.ProjectID)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryRows(ctx, mapping[bootstrap.DBCenterMapping], nil)
	if err != nil {
		return nil, err
	}

	var centers []string
	for _, row := range rows {
		if row["release"] == "true" && row["inputSynId"] != "" {
			centers = append(centers, row["center"])
		}
	}
	sort.Strings(centers)

	summaries := make([]*Summary, 0, len(centers))
	for _, center := range centers {
		summary, err := r.Run(ctx, RunRequest{
			ProjectID:    req.ProjectID,
			Center:       center,
			OnlyValidate: req.OnlyValidate,
			StagingDir:   req.StagingDir,
		})
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *Runner) centerRow(ctx context.Context, mapping map[string]string, center string) (synapse.Row, error) {
	rows, err := r.store.QueryRows(ctx, mapping[bootstrap.DBCenterMapping], nil)
	if err != nil {
		return nil, err
	}

	known := make([]string, 0, len(rows))
	for _, row := range rows {
		if row["center"] == center {
			return row, nil
		}
		known = append(known, row["center"])
	}
	sort.Strings(known)
	return nil, genieerrors.NewConfigError("center",
		fmt.Sprintf("must specify one of these centers: %s", strings.Join(known, ", ")), nil)
}

func (r *Runner) rowsByID(ctx context.Context, tableID, center string) (map[string]synapse.Row, error) {
	rows, err := r.store.QueryRows(ctx, tableID, map[string]string{"center": center})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]synapse.Row, len(rows))
	for _, row := range rows {
		byID[row["id"]] = row
	}
	return byID, nil
}

// validateFiles decides per file whether revalidation is needed. A file
// whose md5 and name are unchanged keeps its previous status unless that
// status was INVALID.
func (r *Runner) validateFiles(ctx context.Context, center string, entities []synapse.Entity,
	prevStatus, prevErrors map[string]synapse.Row, summary *Summary) ([]*fileState, error) {

	states := make([]*fileState, 0, len(entities))
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state := &fileState{entity: entity}
		prior := prevStatus[entity.ID]
		unchanged := prior != nil && prior["md5"] == entity.MD5 && prior["name"] == entity.Name
		if unchanged && prior["status"] != StatusInvalid {
			state.status = prior["status"]
			state.fileType = prior["fileType"]
			if errRow, ok := prevErrors[entity.ID]; ok {
				state.message = errRow["errors"]
			}
			summary.Skipped++
			r.logger.Infof("%s (%s) FILE STATUS IS: %s", entity.Name, entity.ID, state.status)
			states = append(states, state)
			continue
		}

		local, err := r.store.GetFile(ctx, entity.ID)
		if err != nil {
			return nil, err
		}
		state.entity = *local
		state.revalidated = true

		outcome, fileType := r.validator.ValidateFile(ctx, FileRequest{
			Name:   local.Name,
			Path:   local.Path,
			Center: center,
		})
		state.fileType = fileType
		if outcome.Valid() {
			state.status = StatusValidated
		} else {
			state.status = StatusInvalid
			state.message = outcome.Message()
		}
		states = append(states, state)
	}
	return states, nil
}

func markDuplicates(states []*fileState) {
	counts := make(map[string]int, len(states))
	for _, state := range states {
		counts[state.entity.Name]++
	}
	for _, state := range states {
		if counts[state.entity.Name] > 1 {
			state.status = StatusInvalid
			state.message = DuplicatedFileError
			state.revalidated = true
		}
	}
}

// reconcileTables replaces the center's slice of the status table with
// the current run's rows and keeps error rows only for files that are
// still invalid. Centers fix files between runs, so stale rows must go.
func (r *Runner) reconcileTables(ctx context.Context, mapping map[string]string, center string,
	states []*fileState, prevStatus, prevErrors map[string]synapse.Row) error {

	current := make(map[string]struct{}, len(states))
	statusRows := make([]synapse.Row, 0, len(states))
	var errorRows []synapse.Row
	var invalidIDs []string

	for _, state := range states {
		current[state.entity.ID] = struct{}{}
		fileType := state.fileType
		if fileType == "" {
			fileType = UnknownTypeName
		}
		statusRows = append(statusRows, synapse.Row{
			"id":         state.entity.ID,
			"md5":        state.entity.MD5,
			"status":     state.status,
			"name":       state.entity.Name,
			"center":     center,
			"modifiedOn": strconv.FormatInt(state.entity.ModifiedOn.UnixMilli(), 10),
			"fileType":   fileType,
		})
		if state.status == StatusInvalid {
			errorRows = append(errorRows, synapse.Row{
				"id":       state.entity.ID,
				"center":   center,
				"errors":   state.message,
				"name":     state.entity.Name,
				"fileType": fileType,
			})
			invalidIDs = append(invalidIDs, state.entity.ID)
		}
	}

	var staleStatus []string
	for id := range prevStatus {
		if _, ok := current[id]; !ok {
			staleStatus = append(staleStatus, id)
		}
	}
	invalid := make(map[string]struct{}, len(invalidIDs))
	for _, id := range invalidIDs {
		invalid[id] = struct{}{}
	}
	var staleErrors []string
	for id := range prevErrors {
		if _, ok := invalid[id]; !ok {
			staleErrors = append(staleErrors, id)
		}
	}

	statusTable := mapping[bootstrap.DBValidationStatus]
	errorTable := mapping[bootstrap.DBErrorTracker]

	if len(staleStatus) > 0 {
		if err := r.store.DeleteRows(ctx, statusTable, "id", staleStatus); err != nil {
			return err
		}
	}
	if err := r.store.UpsertRows(ctx, statusTable, "id", statusRows); err != nil {
		return err
	}
	if len(staleErrors) > 0 {
		if err := r.store.DeleteRows(ctx, errorTable, "id", staleErrors); err != nil {
			return err
		}
	}
	if len(errorRows) > 0 {
		if err := r.store.UpsertRows(ctx, errorTable, "id", errorRows); err != nil {
			return err
		}
	}
	return nil
}

// notifySubmitters messages the creators and last modifiers of files
// that became invalid during this run. Notification failures are logged
// and never fail the run.
func (r *Runner) notifySubmitters(ctx context.Context, states []*fileState) {
	perUser := make(map[string][]string)
	for _, state := range states {
		if !state.revalidated || state.status != StatusInvalid {
			continue
		}
		line := fmt.Sprintf("Filename: %s, Errors:\n%s", state.entity.Name, state.message)
		for _, user := range []string{state.entity.CreatedBy, state.entity.ModifiedBy} {
			if user == "" {
				continue
			}
			if len(perUser[user]) == 0 || perUser[user][len(perUser[user])-1] != line {
				perUser[user] = append(perUser[user], line)
			}
		}
	}
	if len(perUser) == 0 {
		return
	}

	subject := fmt.Sprintf("synapsegenie validation error - %s", time.Now().Format("2006-01-02 15:04:05"))
	for user, lines := range perUser {
		body := "You have invalid files! Here are the reasons why:\n\n" + strings.Join(lines, "\n\n")
		if err := r.store.SendMessage(ctx, []string{user}, subject, body); err != nil {
			r.logger.Error(err, "failed to notify submitter")
		}
	}
}

func (r *Runner) processFiles(ctx context.Context, mapping map[string]string, center, stagingDir string,
	states []*fileState, summary *Summary) {

	centerDir := filepath.Join(stagingDir, center)
	if err := os.MkdirAll(centerDir, 0o755); err != nil {
		r.logger.Error(err, "cannot create center staging directory")
		return
	}

	// Each destination table gets the center's slice cleared once per
	// run, before the first upload into it. Handlers only append, so
	// rows from every valid file of the run accumulate.
	cleared := make(map[string]struct{})

	for _, state := range states {
		if state.status != StatusValidated {
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}

		handler, err := r.registry.Lookup(state.fileType)
		if err != nil {
			summary.Failed++
			summary.addError(state.entity.ID, state.entity.Name, err.Error())
			continue
		}

		if tableID := mapping[state.fileType]; tableID != "" {
			if _, done := cleared[tableID]; !done {
				if err := r.store.DeleteRows(ctx, tableID, format.CenterColumn, []string{center}); err != nil {
					summary.Failed++
					summary.addError(state.entity.ID, state.entity.Name, err.Error())
					continue
				}
				cleared[tableID] = struct{}{}
			}
		}

		entity := state.entity
		if entity.Path == "" {
			local, err := r.store.GetFile(ctx, entity.ID)
			if err != nil {
				summary.Failed++
				summary.addError(entity.ID, entity.Name, err.Error())
				continue
			}
			entity = *local
		}

		r.logger.Infof("PROCESSING %s", entity.Name)
		result, err := handler.Process(ctx, format.ProcessRequest{
			Store:      r.store,
			Center:     center,
			Entity:     entity,
			StagedPath: filepath.Join(centerDir, entity.Name),
			TableID:    mapping[state.fileType],
			FolderID:   mapping[bootstrap.FolderSuffix(state.fileType)],
		})
		if err != nil {
			r.logger.Error(err, "processing failed")
			summary.Failed++
			summary.addError(entity.ID, entity.Name, err.Error())
			continue
		}

		if result.StagedPath != "" && mapping[bootstrap.FolderSuffix(state.fileType)] != "" {
			if _, err := r.store.StoreFile(ctx, result.StagedPath, mapping[bootstrap.FolderSuffix(state.fileType)]); err != nil {
				r.logger.Error(err, "storing processed copy failed")
				summary.Failed++
				summary.addError(entity.ID, entity.Name, err.Error())
				continue
			}
		}
		summary.Processed++
	}
}

// storeRunLog writes the run report next to the staged files and uploads
// it to the project's Logs folder. Best effort.
func (r *Runner) storeRunLog(ctx context.Context, mapping map[string]string, req RunRequest,
	stagingDir string, summary *Summary) {

	logsFolder := mapping[bootstrap.DBLogs]
	if logsFolder == "" {
		return
	}

	name := fmt.Sprintf("%s_log.txt", req.Center)
	if req.OnlyValidate {
		name = fmt.Sprintf("%s_validation_log.txt", req.Center)
	}
	path := filepath.Join(stagingDir, name)
	if err := os.WriteFile(path, []byte(summary.String()), 0o644); err != nil {
		r.logger.Error(err, "cannot write run log")
		return
	}
	if _, err := r.store.StoreFile(ctx, path, logsFolder); err != nil {
		r.logger.Error(err, "cannot upload run log")
	}
}
