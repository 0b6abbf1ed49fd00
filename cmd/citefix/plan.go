package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citefix/internal/config"
	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/plan"
	"github.com/matsen/citefix/internal/report"
	"github.com/matsen/citefix/internal/storage"
)

// planFlags are shared by the plan and apply commands.
type planFlags struct {
	mode      string
	review    bool
	threshold float64
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", string(plan.ModeDensify), "Renumbering: densify (close gaps left by duplicates) or order (first-citation order)")
	cmd.Flags().BoolVar(&f.review, "review", false, "Ask the external reviewer about near-miss duplicate pairs")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Similarity ratio for duplicates (default from config, 0.90)")
}

var (
	planOpts     planFlags
	planMarkdown string
	planHTML     string
	planJSONL    string
)

func init() {
	planOpts.register(planCmd)
	planCmd.Flags().StringVar(&planMarkdown, "markdown", "", "Write a Markdown review report to this file")
	planCmd.Flags().StringVar(&planHTML, "html", "", "Write an HTML review report to this file")
	planCmd.Flags().StringVar(&planJSONL, "jsonl", "", "Write the plan entries to this JSONL file")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan FILE.docx",
	Short: "Show how every citation marker would be renumbered",
	Long: `Compute the renumbering plan without changing the document. Duplicate
references are merged into their originals; the remaining references are
renumbered either by closing the gaps (--mode densify) or by order of first
citation (--mode order). Each marker is tagged unchanged, renumbered,
reformatted, merged, duplicate or removed.

Examples:
  citefix plan paper.docx --human
  citefix plan paper.docx --mode order --markdown plan.md`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

// planned is a computed plan with everything needed to apply or report it.
type planned struct {
	Mode         plan.Mode
	Duplicates   dedupe.Map
	Mapping      map[int]int
	Plan         plan.Plan
	Bibliography []plan.RefEdit
}

// PlanResult is the response for the plan command.
type PlanResult struct {
	Mode         plan.Mode           `json:"mode"`
	Counts       map[plan.Change]int `json:"counts"`
	Duplicates   map[int]int         `json:"duplicates"`
	Conversions  []Conversion        `json:"conversions"`
	Entries      []plan.Entry        `json:"entries"`
	Bibliography []plan.RefEdit      `json:"bibliography"`
}

// buildPlan runs duplicate detection and builds the plan for m.
func buildPlan(ctx context.Context, m *manuscript, cfg *config.Config, opts planFlags, logger *zap.Logger) *planned {
	mode, err := plan.ParseMode(opts.mode)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	threshold := thresholdOrDefault(opts.threshold, cfg.Threshold)

	dups, _ := m.duplicates(ctx, cfg, threshold, opts.review, logger)

	var order []int
	if mode == plan.ModeOrder {
		order = m.Order(cfg.MinParagraphLength)
	}
	mapping := plan.Mapping(mode, order, dups, m.MaxRef)

	p := plan.Build(extract.Locate(m.Doc, m.Authors), dups, mapping)
	logger.Debug("built plan",
		zap.String("mode", string(mode)),
		zap.Int("markers", len(p.Entries)))

	return &planned{
		Mode:         mode,
		Duplicates:   dups,
		Mapping:      mapping,
		Plan:         p,
		Bibliography: plan.Bibliography(m.Doc, dups, mapping),
	}
}

func (pl *planned) result() PlanResult {
	r := PlanResult{
		Mode:         pl.Mode,
		Counts:       pl.Plan.Counts(),
		Duplicates:   pl.Duplicates,
		Conversions:  []Conversion{},
		Entries:      pl.Plan.Entries,
		Bibliography: pl.Bibliography,
	}
	for old, n := range pl.Mapping {
		if old != n {
			r.Conversions = append(r.Conversions, Conversion{Old: old, New: n})
		}
	}
	sort.Slice(r.Conversions, func(i, j int) bool {
		return r.Conversions[i].Old < r.Conversions[j].Old
	})
	if r.Entries == nil {
		r.Entries = []plan.Entry{}
	}
	if r.Bibliography == nil {
		r.Bibliography = []plan.RefEdit{}
	}
	return r
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	pl := buildPlan(cmd.Context(), m, cfg, planOpts, logger)

	var md bytes.Buffer
	if err := report.Plan(&md, pl.Plan, pl.Duplicates, pl.Bibliography); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if planMarkdown != "" {
		if err := os.WriteFile(planMarkdown, md.Bytes(), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", planMarkdown, err)
		}
	}
	if planHTML != "" {
		if err := writeHTML(planHTML, filepath.Base(m.Path), md.Bytes()); err != nil {
			exitWithError(ExitError, "writing %s: %v", planHTML, err)
		}
	}
	if planJSONL != "" {
		if err := storage.WriteAll(planJSONL, pl.Plan.Entries); err != nil {
			exitWithError(ExitError, "writing %s: %v", planJSONL, err)
		}
	}

	if humanOutput {
		outputHuman("%s", md.String())
		return nil
	}
	return outputJSON(pl.result())
}
