package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/report"
)

var (
	paragraphsMarkdown  string
	paragraphsHTML      string
	paragraphsMinLength int
)

func init() {
	paragraphsCmd.Flags().StringVar(&paragraphsMarkdown, "markdown", "", "Write a Markdown report to this file")
	paragraphsCmd.Flags().StringVar(&paragraphsHTML, "html", "", "Write an HTML report to this file")
	paragraphsCmd.Flags().IntVar(&paragraphsMinLength, "min-length", 0, "Shortest paragraph to report, in characters (default from config)")
	rootCmd.AddCommand(paragraphsCmd)
}

var paragraphsCmd = &cobra.Command{
	Use:   "paragraphs FILE.docx",
	Short: "List body paragraphs with their citations",
	Long: `List every body paragraph that carries citations, headed by its first
three words, with its citations in order of appearance. References to
tables ("Table II") are listed after the numeric citations.

Examples:
  citefix paragraphs paper.docx
  citefix paragraphs paper.docx --markdown citations.md --html citations.html`,
	Args: cobra.ExactArgs(1),
	RunE: runParagraphs,
}

// ParagraphsResult is the response for the paragraphs command.
type ParagraphsResult struct {
	Count      int                       `json:"count"`
	Paragraphs []extract.ParagraphRecord `json:"paragraphs"`
}

func runParagraphs(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	m := mustOpenManuscript(args[0], cfg, logger)
	defer m.Close()

	minLen := paragraphsMinLength
	if minLen <= 0 {
		minLen = cfg.MinParagraphLength
	}
	records := extract.Paragraphs(m.Doc, m.Authors, minLen)

	var md bytes.Buffer
	if err := report.Paragraphs(&md, records); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if paragraphsMarkdown != "" {
		if err := os.WriteFile(paragraphsMarkdown, md.Bytes(), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", paragraphsMarkdown, err)
		}
	}
	if paragraphsHTML != "" {
		if err := writeHTML(paragraphsHTML, filepath.Base(m.Path), md.Bytes()); err != nil {
			exitWithError(ExitError, "writing %s: %v", paragraphsHTML, err)
		}
	}

	if humanOutput {
		outputHuman("%s", md.String())
		return nil
	}
	if records == nil {
		records = []extract.ParagraphRecord{}
	}
	return outputJSON(ParagraphsResult{Count: len(records), Paragraphs: records})
}

// writeHTML renders markdown to an HTML file.
func writeHTML(path, title string, markdown []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.HTML(f, title, markdown); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
