package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/citefix/internal/extract"
)

func init() {
	rootCmd.AddCommand(orderCmd)
}

var orderCmd = &cobra.Command{
	Use:   "order FILE.docx",
	Short: "Show the order in which references are first cited",
	Long: `Show the canonical citation order: reference numbers in the order they
are first cited when the document is read top to bottom, with each table's
citations read at the point the table is first referenced. The conversion
table lists the numbers that would change if references were renumbered
in that order.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrder,
}

// Conversion is one old -> new renumbering.
type Conversion struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// OrderResult is the response for the order command.
type OrderResult struct {
	Order       []int        `json:"order"`
	InOrder     bool         `json:"in_order"`
	Conversions []Conversion `json:"conversions"`
	Uncited     []int        `json:"uncited"` // Bibliography entries never cited
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	order := m.Order(cfg.MinParagraphLength)
	result := OrderResult{Order: order, Conversions: []Conversion{}, Uncited: []int{}}
	if result.Order == nil {
		result.Order = []int{}
	}

	for old, n := range extract.ConversionTable(order) {
		result.Conversions = append(result.Conversions, Conversion{Old: old, New: n})
	}
	sort.Slice(result.Conversions, func(i, j int) bool {
		return result.Conversions[i].New < result.Conversions[j].New
	})
	result.InOrder = len(result.Conversions) == 0

	cited := make(map[int]bool, len(order))
	for _, n := range order {
		cited[n] = true
	}
	for n := 1; n <= m.MaxRef; n++ {
		if _, ok := m.Refs[n]; ok && !cited[n] {
			result.Uncited = append(result.Uncited, n)
		}
	}

	if humanOutput {
		outputHuman("Citation order: %v\n", result.Order)
		if result.InOrder {
			outputHuman("References are cited in order.\n")
		} else {
			outputHuman("\nRenumbering needed:\n")
			for _, c := range result.Conversions {
				outputHuman("  %d -> %d\n", c.Old, c.New)
			}
		}
		if len(result.Uncited) > 0 {
			outputHuman("\nNever cited: %v\n", result.Uncited)
		}
		return nil
	}
	return outputJSON(result)
}
