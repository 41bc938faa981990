package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func newReportCmd(root *rootOptions) *cobra.Command {
	var (
		db           dbOptions
		assignmentID string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare every submission of an assignment with the others",
		Example: "  plagcheck report --db campus.db --assignment 3",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if assignmentID == "" {
				return errors.New("--assignment is required")
			}

			ctx := context.Background()
			svc, closeFn, err := db.open(ctx, root)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := svc.AssignmentBreakdown(ctx, assignmentID)
			if err != nil {
				return err
			}

			if root.jsonOutput {
				return printJSON(cmd, report)
			}

			if len(report.Submissions) == 0 {
				cmd.Println("No submissions.")
				return nil
			}
			for _, verdict := range report.Submissions {
				cmd.Printf("%s (submission %s): %s\n", verdict.StudentName, verdict.SubmissionID, verdict.OverallPercent)
				for _, match := range verdict.Matches {
					cmd.Printf("    %-20s %8s\n", match.StudentName, match.Percent)
				}
			}
			return nil
		},
	}

	db.register(cmd)
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "assignment id")

	return cmd
}
