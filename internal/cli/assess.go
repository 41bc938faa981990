package cli

import (
	"strings"

	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/spf13/cobra"
)

func newAssessCmd(root *rootOptions) *cobra.Command {
	var (
		candidatePath string
		sourceArgs    []string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Build a plagiarism risk report for a candidate",
		Long: `Combines sequence similarity and phrase overlap against titled
sources with boilerplate and short text signals into a risk level.`,
		Example: "  plagcheck assess --candidate abstract.txt --source 12:Solar\\ Mesh=12.txt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			candidate, err := readFile(candidatePath)
			if err != nil {
				return err
			}

			corpus := make([]plagiarism.CorpusEntry, 0, len(sourceArgs))
			for _, arg := range sourceArgs {
				key, path, err := splitAssignment(arg, "=")
				if err != nil {
					return err
				}
				label, title, _ := strings.Cut(key, ":")
				text, err := readFile(path)
				if err != nil {
					return err
				}
				corpus = append(corpus, plagiarism.CorpusEntry{Label: label, Title: title, Text: text})
			}
			corpus = plagiarism.CapCorpus(corpus, root.maxCorpusSize)

			report := plagiarism.AssessRisk(candidate, corpus)

			if root.jsonOutput {
				return printJSON(cmd, report)
			}
			printRiskReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&candidatePath, "candidate", "", "file holding the candidate text")
	cmd.Flags().StringArrayVar(&sourceArgs, "source", nil, "source document as LABEL:TITLE=FILE (repeatable)")
	_ = cmd.MarkFlagRequired("candidate")

	return cmd
}

func printRiskReport(cmd *cobra.Command, report plagiarism.RiskReport) {
	cmd.Printf("Risk level:          %s\n", report.RiskLevel)
	cmd.Printf("Overall score:       %s\n", plagiarism.FormatPercent(report.OverallScore))
	cmd.Printf("Suspicious:          %t\n", report.IsSuspicious)
	cmd.Printf("Database similarity: %s\n", plagiarism.FormatPercent(report.DatabaseSimilarity))
	cmd.Printf("Common phrases:      %s\n", plagiarism.FormatPercent(report.CommonPhrasesRatio))
	cmd.Printf("Word count:          %d\n", report.WordCount)
	cmd.Printf("Compared against:    %d\n", report.ComparedAgainst)
	if report.SimilarSubmission != nil {
		cmd.Printf("Most similar:        %s (%s)\n", report.SimilarSubmission.Label,
			plagiarism.FormatPercent(report.SimilarSubmission.TextSimilarity))
	}
	if len(report.Recommendations) > 0 {
		cmd.Println()
		cmd.Println("Recommendations:")
		for _, r := range report.Recommendations {
			cmd.Printf("  - %s\n", r)
		}
	}
}
