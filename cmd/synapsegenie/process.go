package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sage-Bionetworks/synapsegenie/internal/pipeline"
	"github.com/Sage-Bionetworks/synapsegenie/internal/report"
	genieerrors "github.com/Sage-Bionetworks/synapsegenie/pkg/errors"
)

type processOptions struct {
	ProjectID    string
	Center       string
	OnlyValidate bool
	StagingDir   string
}

func newProcessCmd(root *rootFlags) *cobra.Command {
	opts := processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Validate and process center submissions",
		Long: "Validate every file in a center's input folder, reconcile the status and " +
			"error tables, and process valid files into their database tables. When no " +
			"center is given, all released centers are run in order.",
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

			runner := pipeline.NewRunner(app.Store, app.Registry, app.Logger)
			renderer := report.NewRenderer(report.Colorized(os.Stdout))

			var summaries []*pipeline.Summary
			if opts.Center != "" {
				summary, err := runner.Run(cmd.Context(), pipeline.RunRequest{
					ProjectID:    opts.ProjectID,
					Center:       opts.Center,
					OnlyValidate: opts.OnlyValidate,
					StagingDir:   opts.StagingDir,
				})
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			} else {
				summaries, err = runner.RunAll(cmd.Context(), pipeline.RunAllRequest{
					ProjectID:    opts.ProjectID,
					OnlyValidate: opts.OnlyValidate,
					StagingDir:   opts.StagingDir,
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), renderer.RunAll(summaries))

			if opts.OnlyValidate {
				invalid := 0
				for _, s := range summaries {
					invalid += s.Invalid
				}
				if invalid > 0 {
					return fmt.Errorf("%d file(s) failed validation", invalid)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "Project id to run against")
	cmd.Flags().StringVar(&opts.Center, "center", "", "Run a single center instead of all released centers")
	cmd.Flags().BoolVar(&opts.OnlyValidate, "only-validate", false, "Validate files without processing them")
	cmd.Flags().StringVar(&opts.StagingDir, "staging-dir", "", "Directory for staged and downloaded files")

	return cmd
}
