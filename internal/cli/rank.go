package cli

import (
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/spf13/cobra"
)

func newRankCmd(root *rootOptions) *cobra.Command {
	var (
		candidatePath string
		peerArgs      []string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a candidate against peer documents",
		Long: `Scores the candidate against every peer with TF-IDF cosine similarity
and lists the peers from most to least similar.`,
		Example: "  plagcheck rank --candidate essay.txt --peer alice=alice.txt --peer bob=bob.txt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			candidate, err := readFile(candidatePath)
			if err != nil {
				return err
			}

			peers := make([]plagiarism.Peer, 0, len(peerArgs))
			for _, arg := range peerArgs {
				label, path, err := splitAssignment(arg, "=")
				if err != nil {
					return err
				}
				text, err := readFile(path)
				if err != nil {
					return err
				}
				peers = append(peers, plagiarism.Peer{Label: label, Text: text})
			}
			peers = plagiarism.CapCorpus(peers, root.maxCorpusSize)

			matches := plagiarism.RankAgainstPeers(candidate, peers)
			overall := plagiarism.OverallSimilarity(matches)

			if root.jsonOutput {
				return printJSON(cmd, plagiarism.CheckResult{
					Kind:              plagiarism.KindPeerRanking,
					Matches:           matches,
					OverallSimilarity: overall,
				})
			}

			if len(matches) == 0 {
				cmd.Println("No peers to compare against.")
				return nil
			}
			for i, m := range plagiarism.SortByScore(matches) {
				cmd.Printf("  [%d] %-20s %8s\n", i+1, m.Label, m.Percent())
			}
			cmd.Println()
			cmd.Printf("Overall similarity: %s\n", plagiarism.FormatPercent(overall))
			return nil
		},
	}

	cmd.Flags().StringVar(&candidatePath, "candidate", "", "file holding the candidate text")
	cmd.Flags().StringArrayVar(&peerArgs, "peer", nil, "peer document as LABEL=FILE (repeatable)")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}
