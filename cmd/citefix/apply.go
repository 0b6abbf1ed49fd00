package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citefix/internal/docx"
	"github.com/matsen/citefix/internal/docxml"
	"github.com/matsen/citefix/internal/plan"
	"github.com/matsen/citefix/internal/storage"
)

var (
	applyOpts   planFlags
	applyOutput string
	applyDryRun bool
	applyPlan   string
)

func init() {
	applyOpts.register(applyCmd)
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Write the renumbered document to this file")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Compute and check the result without writing it")
	applyCmd.Flags().StringVar(&applyPlan, "plan", "", "Apply marker entries from this JSONL file (from 'citefix plan --jsonl') instead of the computed ones")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply FILE.docx -o OUT.docx",
	Short: "Write a copy of the document with citations renumbered",
	Long: `Apply the renumbering plan (see 'citefix plan') to a copy of the document.
New marker text goes into the first run of each marker so run formatting is
kept. Duplicate bibliography entries are removed and the remaining entries
are renumbered and reordered to match. The input file is never modified.

A plan written with 'citefix plan --jsonl' can be edited and passed back
with --plan; its marker entries replace the computed ones.

Examples:
  citefix apply paper.docx -o paper-renumbered.docx
  citefix apply paper.docx --mode order --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

// ApplyResult is the response for the apply command.
type ApplyResult struct {
	Status       string              `json:"status"`
	Path         string              `json:"path,omitempty"`
	Mode         plan.Mode           `json:"mode"`
	Counts       map[plan.Change]int `json:"counts"`
	Markers      int                 `json:"markers_rewritten"`
	Bibliography int                 `json:"bibliography_edits"`
}

func runApply(cmd *cobra.Command, args []string) error {
	if applyOutput == "" && !applyDryRun {
		exitWithError(ExitConfigError, "must specify --output or --dry-run")
	}
	if applyOutput != "" && samePath(args[0], applyOutput) {
		exitWithError(ExitConfigError, "refusing to overwrite the input document; choose another --output")
	}

	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	pl := buildPlan(cmd.Context(), m, cfg, applyOpts, logger)
	if applyPlan != "" {
		entries, err := storage.ReadAll[plan.Entry](applyPlan)
		if err != nil {
			exitWithError(ExitDataError, "reading plan %s: %v", applyPlan, err)
		}
		logger.Info("using saved plan",
			zap.String("path", applyPlan),
			zap.Int("entries", len(entries)))
		pl.Plan = plan.Plan{Entries: entries}
	}

	markup, err := plan.Apply(m.Doc, pl.Plan, pl.Bibliography)
	if err != nil {
		exitWithError(ExitDataError, "applying plan: %v", err)
	}
	// The result must still be well-formed before anything is written.
	if _, err := docxml.Parse(markup); err != nil {
		exitWithError(ExitDataError, "renumbered document is not well-formed: %v", err)
	}

	written := 0
	for _, e := range pl.Plan.Entries {
		if e.Writes() {
			written++
		}
	}
	result := ApplyResult{
		Status:       "dry-run",
		Mode:         pl.Mode,
		Counts:       pl.Plan.Counts(),
		Markers:      written,
		Bibliography: len(pl.Bibliography),
	}

	if !applyDryRun {
		if err := m.File.Save(applyOutput, markup); err != nil {
			exitWithError(ExitError, "saving %s: %v", applyOutput, err)
		}
		if _, err := docx.ReadMarkup(applyOutput); err != nil {
			exitWithError(ExitError, "reading back %s: %v", applyOutput, err)
		}
		result.Status = "written"
		result.Path = applyOutput
		logger.Info("wrote renumbered document",
			zap.String("path", applyOutput),
			zap.Int("markers", written),
			zap.Int("bibliography_edits", len(pl.Bibliography)))
	}

	if humanOutput {
		if applyDryRun {
			outputHuman("Dry run: ")
		} else {
			outputHuman("Wrote %s: ", applyOutput)
		}
		outputHuman("%d marker(s) rewritten, %d bibliography edit(s)\n", written, len(pl.Bibliography))
		return nil
	}
	return outputJSON(result)
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
