package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/citefix/internal/extract"
)

func init() {
	rootCmd.AddCommand(tablesCmd)
}

var tablesCmd = &cobra.Command{
	Use:   "tables FILE.docx",
	Short: "List the citations of each labelled table",
	Long: `List the citations of each logical table. A table is labelled by the
nearest preceding "TABLE <roman numeral>" paragraph; consecutive tables
after one label are read as one table, row by row.`,
	Args: cobra.ExactArgs(1),
	RunE: runTables,
}

// TableResult is one logical table in the tables response.
type TableResult struct {
	Label     string   `json:"label"`
	Parts     int      `json:"parts"` // Physical tables merged under the label
	Citations []string `json:"citations"`
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	results := []TableResult{}
	for _, g := range extract.GroupTables(m.Doc) {
		cites := g.Citations(m.Authors)
		if cites == nil {
			cites = []string{}
		}
		results = append(results, TableResult{Label: g.Label, Parts: len(g.Tables), Citations: cites})
	}

	if humanOutput {
		if len(results) == 0 {
			outputHuman("No labelled tables found.\n")
			return nil
		}
		for _, r := range results {
			outputHuman("Table %s (%d part(s))\n", r.Label, r.Parts)
			for i, c := range r.Citations {
				outputHuman("  %d. %s\n", i+1, c)
			}
		}
		return nil
	}
	return outputJSON(results)
}
