package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sage-Bionetworks/synapsegenie/internal/bootstrap"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

type fileErrorsOptions struct {
	ProjectID string
}

func newFileErrorsCmd(root *rootFlags) *cobra.Command {
	opts := fileErrorsOptions{}

	cmd := &cobra.Command{
		Use:   "get-file-errors <center>",
		Short: "Show the stored invalid reasons for a center's files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			center := args[0]

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

			mapping, err := bootstrap.LoadDBMapping(cmd.Context(), app.Store, opts.ProjectID)
			if err != nil {
				return err
			}

			rows, err := app.Store.QueryRows(cmd.Context(), mapping[bootstrap.DBErrorTracker], map[string]string{"center": center})
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No stored errors for center %s\n", center)
				return nil
			}

			for _, row := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s):\n%s\n", row["name"], row["id"], row["errors"])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "Project id the files were submitted to")

	return cmd
}
