package cli

import (
	"context"
	"errors"

	"github.com/RishiKendai/veritas/internal/legacydb"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/RishiKendai/veritas/internal/review"
	"github.com/spf13/cobra"
)

type dbOptions struct {
	path    string
	workers int
}

func (o *dbOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.path, "db", "", "path to the CampusConnect SQLite database")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "number of workers (0 = CPU based)")
	_ = cmd.MarkFlagRequired("db")
}

// open wires a review service onto the SQLite store. The caller closes the
// returned function.
func (o *dbOptions) open(ctx context.Context, root *rootOptions) (*review.Service, func(), error) {
	store, err := legacydb.Open(ctx, o.path)
	if err != nil {
		return nil, nil, err
	}
	pool := review.NewWorkerPool(ctx, o.workers)

	svc := review.NewService(store, store, store, store, review.NewMemoryStatusStore(), pool, review.Options{
		MaxCorpusSize: root.maxCorpusSize,
	})

	closeFn := func() {
		pool.Close()
		_ = store.Close()
	}
	return svc, closeFn, nil
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		db      dbOptions
		eventID string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Check every pending abstract of an event",
		Long: `Assesses the pending latest abstracts of an event stored in a
CampusConnect SQLite database and writes each score and status back.`,
		Example: "  plagcheck batch --db campus.db --event 5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if eventID == "" {
				return errors.New("--event is required")
			}

			ctx := context.Background()
			svc, closeFn, err := db.open(ctx, root)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.BatchCheckEvent(ctx, eventID)
			if err != nil {
				return err
			}

			if root.jsonOutput {
				return printJSON(cmd, result)
			}

			if len(result.Items) == 0 {
				cmd.Println("No pending abstracts.")
				return nil
			}
			for _, item := range result.Items {
				if item.Error != "" {
					cmd.Printf("  %-8s failed: %s\n", item.SubmissionID, item.Error)
					continue
				}
				cmd.Printf("  %-8s %8s  %-7s %s\n", item.SubmissionID,
					plagiarism.FormatPercent(item.Score), item.RiskLevel, item.Status)
			}
			cmd.Println()
			cmd.Printf("Checked %d, flagged %d, failed %d\n", result.Checked, result.Flagged, result.Failed)
			return nil
		},
	}

	db.register(cmd)
	cmd.Flags().StringVar(&eventID, "event", "", "event id")

	return cmd
}
