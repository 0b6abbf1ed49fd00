package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/storage"
)

var locateJSONL string

func init() {
	locateCmd.Flags().StringVar(&locateJSONL, "jsonl", "", "Also write the locations to this JSONL file")
	rootCmd.AddCommand(locateCmd)
}

var locateCmd = &cobra.Command{
	Use:   "locate FILE.docx",
	Short: "List every citation marker with its position",
	Long: `List every superscript citation marker: its paragraph, its first and last
run, its raw text and the text just before it. Bibliography paragraphs are
skipped; table cells are read one cell at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	locs := extract.Locate(m.Doc, m.Authors)
	if locs == nil {
		locs = []extract.Location{}
	}

	if locateJSONL != "" {
		if err := storage.WriteAll(locateJSONL, locs); err != nil {
			exitWithError(ExitError, "writing %s: %v", locateJSONL, err)
		}
	}

	if humanOutput {
		for _, l := range locs {
			outputHuman("¶%-4d runs %d-%d  %-10s %s\n", l.Paragraph+1, l.StartRun, l.EndRun, l.Text, leftTruncate(l.Context, ContextMaxLen))
		}
		outputHuman("%d citation marker(s)\n", len(locs))
		return nil
	}
	return outputJSON(locs)
}
