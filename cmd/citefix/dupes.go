package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/citefix/internal/dedupe"
)

var (
	dupesThreshold float64
	dupesReview    bool
)

func init() {
	dupesCmd.Flags().Float64Var(&dupesThreshold, "threshold", 0, "Similarity ratio for duplicates (default from config, 0.90)")
	dupesCmd.Flags().BoolVar(&dupesReview, "review", false, "Ask the external reviewer about near-miss pairs")
	rootCmd.AddCommand(dupesCmd)
}

var dupesCmd = &cobra.Command{
	Use:   "dupes FILE.docx",
	Short: "Find bibliography entries that describe the same source",
	Long: `Find duplicate bibliography entries. Entries whose text similarity is at
least the threshold are duplicates of the lowest-numbered entry in their
group. Pairs with the same first author and year but lower similarity are
listed as candidates; with --review they are sent to an external LLM
command (see review.command in the config) and confirmed pairs are added.

Examples:
  citefix dupes paper.docx
  citefix dupes paper.docx --threshold 0.85 --review`,
	Args: cobra.ExactArgs(1),
	RunE: runDupes,
}

// DuplicateEntry is one duplicate reference in the dupes response.
type DuplicateEntry struct {
	Number       int    `json:"number"`
	Original     int    `json:"original"`
	Text         string `json:"text"`
	OriginalText string `json:"original_text"`
}

// DupesResult is the response for the dupes command.
type DupesResult struct {
	Threshold  float64            `json:"threshold"`
	Reviewed   bool               `json:"reviewed"`
	Duplicates []DuplicateEntry   `json:"duplicates"`
	Candidates []dedupe.Candidate `json:"candidates"`
}

func runDupes(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	threshold := thresholdOrDefault(dupesThreshold, cfg.Threshold)

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	dups, cands := m.duplicates(cmd.Context(), cfg, threshold, dupesReview, logger)

	result := DupesResult{
		Threshold:  threshold,
		Reviewed:   dupesReview,
		Duplicates: []DuplicateEntry{},
		Candidates: cands,
	}
	if result.Candidates == nil {
		result.Candidates = []dedupe.Candidate{}
	}
	for _, n := range dups.Numbers() {
		result.Duplicates = append(result.Duplicates, DuplicateEntry{
			Number:       n,
			Original:     dups[n],
			Text:         m.Refs[n],
			OriginalText: m.Refs[dups[n]],
		})
	}

	if humanOutput {
		if len(result.Duplicates) == 0 {
			outputHuman("No duplicate references found.\n")
		} else {
			outputHuman("Found %d duplicate reference(s):\n\n", len(result.Duplicates))
			for _, d := range result.Duplicates {
				outputHuman("%d duplicates %d\n", d.Number, d.Original)
				outputHuman("  %d. %s\n", d.Original, truncateString(d.OriginalText, EntryMaxLen))
				outputHuman("  %d. %s\n\n", d.Number, truncateString(d.Text, EntryMaxLen))
			}
		}
		if len(result.Candidates) > 0 && !dupesReview {
			outputHuman("%d near-miss pair(s); rerun with --review to check them.\n", len(result.Candidates))
		}
		return nil
	}
	return outputJSON(result)
}

// thresholdOrDefault validates a --threshold flag value, falling back to
// the configured threshold when unset.
func thresholdOrDefault(flag, configured float64) float64 {
	if flag == 0 {
		return configured
	}
	if flag < 0 || flag > 1 {
		exitWithError(ExitConfigError, "invalid --threshold %v (must be in (0, 1])", flag)
	}
	return flag
}
