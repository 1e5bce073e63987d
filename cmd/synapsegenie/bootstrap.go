package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sage-Bionetworks/synapsegenie/internal/bootstrap"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

type bootstrapOptions struct {
	ProjectID   string
	ProjectName string
	Centers     []string
}

func newBootstrapCmd(root *rootFlags) *cobra.Command {
	opts := bootstrapOptions{}

	cmd := &cobra.Command{
		Use:   "bootstrap-infra",
		Short: "Provision project folders and tables for a new deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildAppContext(root)
			if err != nil {
				return err
			}

			if opts.ProjectID == "" {
				opts.ProjectID = app.Config.ProjectID
			}
			if len(opts.Centers) == 0 {
				opts.Centers = app.Config.Centers
			}
			if len(opts.Centers) == 0 {
				return genieerrors.NewConfigError("centers", "at least one center is required", nil)
			}

			result, err := bootstrap.New(app.Store, app.Registry, app.Logger).Bootstrap(cmd.Context(), bootstrap.Request{
				ProjectID:   opts.ProjectID,
				ProjectName: opts.ProjectName,
				Centers:     opts.Centers,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "project: %s\ndb mapping table: %s\n",
				result.Project.ID, result.DBMappingTableID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "Existing project id to provision")
	cmd.Flags().StringVar(&opts.ProjectName, "project-name", "", "Name for a project to create")
	cmd.Flags().StringSliceVar(&opts.Centers, "center", nil, "Center code to register (repeatable)")

	return cmd
}
