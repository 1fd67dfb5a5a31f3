package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/xgtag/internal/app"
)

func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every shot, annotation and video",
		Long: `Delete every shot, annotation and video.

This cannot be undone. Pass --yes to confirm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to purge without --yes")
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withServices(cmd.Context(), func(s *app.Services) error {
				report, err := s.Lifecycle.Purge(cmd.Context())
				if outErr := f.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted %d annotations, %d shots and %d videos (%d of 3 kinds cleared).\n",
						report.Annotations, report.Shots, report.Media, report.KindsCleared)
				}); outErr != nil {
					return outErr
				}
				if err != nil {
					return WrapExitError(ExitFailure, "purge incomplete", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of all data")
	return cmd
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Flag shots whose annotation was saved but not recorded on the shot",
		Long: `Flag shots whose annotation was saved but not recorded on the shot.

Shots flagged as annotated without an annotation, and annotations for shots
that no longer exist, are reported but left alone. Exits with status 1 when
any of those remain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withServices(cmd.Context(), func(s *app.Services) error {
				report, err := s.Lifecycle.Reconcile(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "reconcile failed", err)
				}
				reportWarnings(f, report.Warnings)

				if err := f.Success(report, func(w io.Writer) {
					if report.InSync() {
						fmt.Fprintln(w, "Shots and annotations are in sync.")
						return
					}
					printIDs(w, "Flagged as annotated", report.Flagged)
					printIDs(w, "Annotated without an annotation", report.Unbacked)
					printIDs(w, "Annotations without a shot", report.Dangling)
				}); err != nil {
					return err
				}

				if len(report.Unbacked) > 0 || len(report.Dangling) > 0 {
					return NewExitError(ExitFailure, "unresolved inconsistencies remain")
				}
				return nil
			})
		},
	}
}

func printIDs(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d): %s\n", label, len(ids), strings.Join(ids, ", "))
}
