package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sage-Bionetworks/synapsegenie/internal/pipeline"
	"github.com/Sage-Bionetworks/synapsegenie/internal/report"
)

type validateOptions struct {
	FileType string
	ParentID string
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate-single-file <path> <center>",
		Short: "Validate one local file before submitting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, center := args[0], args[1]

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve file path: %w", err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return fmt.Errorf("file does not exist: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("path %s is a directory", abs)
			}

			app, err := buildAppContext(root)
			if err != nil {
				return err
			}

			validator := pipeline.NewValidator(app.Registry, app.Logger)
			outcome, fileType := validator.ValidateFile(cmd.Context(), pipeline.FileRequest{
				Name:         filepath.Base(abs),
				Path:         abs,
				DeclaredType: opts.FileType,
				Center:       center,
			})

			renderer := report.NewRenderer(report.Colorized(os.Stdout))
			fmt.Fprint(cmd.OutOrStdout(), renderer.Validation(filepath.Base(abs), fileType, outcome))

			if !outcome.Valid() {
				return fmt.Errorf("file failed validation")
			}

			if opts.ParentID != "" {
				entity, err := app.Store.StoreFile(cmd.Context(), abs, opts.ParentID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded as %s\n", entity.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.FileType, "filetype", "", "Validate as this type instead of detecting it from the filename")
	cmd.Flags().StringVar(&opts.ParentID, "parentid", "", "Upload the file to this folder when it is valid")

	return cmd
}
