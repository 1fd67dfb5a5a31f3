package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/xgtag/internal/app"
	"github.com/kdimtricp/xgtag/internal/records"
)

func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List shots waiting for annotation, newest game first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withServices(cmd.Context(), func(s *app.Services) error {
				queue, err := s.Projections.Unannotated(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load shots", err)
				}
				reportWarnings(f, queue.Warnings)

				return f.Success(queue, func(w io.Writer) {
					if len(queue.Shots) == 0 {
						fmt.Fprintln(w, "No shots waiting for annotation.")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SHOT\tDATE\tTEAM\tOPPONENT\tMINUTE\tLOCATION\tREVIEW")
					for _, shot := range queue.Shots {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%t\n",
							shot.ShotID, shot.DateOfGame, shot.TeamShooting, shot.Opponent,
							shot.MatchMinute, shot.ShotLocation, shot.NeedsReview)
					}
					tw.Flush()
				})
			})
		},
	}
}

func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "List completed annotations with their edit links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withServices(cmd.Context(), func(s *app.Services) error {
				summary, err := s.Projections.Summary(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load annotations", err)
				}
				reportWarnings(f, summary.Warnings)

				return f.Success(summary, func(w io.Writer) {
					if len(summary.Rows) == 0 {
						fmt.Fprintln(w, "No annotations yet.")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SHOT\tBODY PART\tEXECUTION\tASSIST\tTOUCHES\tSET PIECE\tLINK")
					for _, row := range summary.Rows {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
							row.ShotID, row.BodyPart, row.ExecutionType, row.AssistType,
							row.Touches, row.LastSetPiece, row.EditLink)
					}
					tw.Flush()
				})
			})
		},
	}
}

func reportWarnings(f *OutputFormatter, warnings []records.Warning) {
	for _, w := range warnings {
		f.Warn("%s", w)
	}
}
