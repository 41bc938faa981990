// Package cli implements the plagcheck command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/RishiKendai/veritas/internal/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel      string
	jsonOutput    bool
	maxCorpusSize int
}

// NewRootCmd builds the plagcheck command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "plagcheck",
		Short: "Check text similarity and plagiarism risk offline",
		Long: `plagcheck compares documents on disk or in a CampusConnect SQLite
database without running the server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.InitWithWriter(cmd.ErrOrStderr(), opts.logLevel, "console")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output results as JSON")
	cmd.PersistentFlags().IntVar(&opts.maxCorpusSize, "max-corpus", 0, "compare against at most this many documents (0 = all)")

	cmd.AddCommand(
		newRankCmd(opts),
		newAssessCmd(opts),
		newBatchCmd(opts),
		newReportCmd(opts),
	)

	return cmd
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()
	cmd.SetOut(os.Stdout)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// splitAssignment splits "key<sep>value" and rejects empty parts.
func splitAssignment(arg, sep string) (string, string, error) {
	key, value, ok := strings.Cut(arg, sep)
	if !ok || strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
		return "", "", fmt.Errorf("invalid value %q, expected KEY%sVALUE", arg, sep)
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), nil
}
