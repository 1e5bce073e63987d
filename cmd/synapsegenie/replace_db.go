package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sage-Bionetworks/synapsegenie/internal/bootstrap"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

type replaceDBOptions struct {
	ProjectID string
}

func newReplaceDBCmd(root *rootFlags) *cobra.Command {
	opts := replaceDBOptions{}

	cmd := &cobra.Command{
		Use:   "replace-db <filetype> <archive-projectid> <table-name>",
		Short: "Replace a file type's database table with a fresh empty one",
		Long: "Create an empty replacement table for the given file type, repoint the " +
			"database mapping at it, and archive the old table (with its rows) into the " +
			"archive project. Today's date is appended to the new table's name.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(root)
			if err != nil {
				return err
			}

			if opts.ProjectID == "" {
				opts.ProjectID = app.Config.ProjectID
			}
			if opts.ProjectID == "" {
				return genieerrors.NewConfigError("project", "a project id is required", nil)
			}

			result, err := bootstrap.New(app.Store, app.Registry, app.Logger).ReplaceDB(cmd.Context(), bootstrap.ReplaceDBRequest{
				ProjectID:        opts.ProjectID,
				FileType:         args[0],
				ArchiveProjectID: args[1],
				TableName:        args[2],
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "new table: %s (%s)\narchived: %s (%s)\n",
				result.NewTable.ID, result.NewTable.Name,
				result.ArchivedTable.ID, result.ArchivedTable.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "Project id whose database is replaced")

	return cmd
}
