package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citefix/internal/config"
	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/storage"
)

var (
	indexDB     string
	indexReview bool
	whereDoc    string
	searchLimit int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&indexDB, "db", "", "Citation index database (default from config)")
	indexCmd.Flags().BoolVar(&indexReview, "review", false, "Ask the external reviewer about near-miss duplicate pairs")
	whereCmd.Flags().StringVar(&whereDoc, "doc", "", "Only report markers in this document")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum number of results")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(whereCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(documentsCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index FILE.docx...",
	Short: "Store citations and references in the local index",
	Long: `Record the bibliography, detected duplicates and every citation marker of
each document in a SQLite index, replacing anything stored for it before.
The index backs the where and search commands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var whereCmd = &cobra.Command{
	Use:   "where N",
	Short: "Show where reference N is cited in indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runWhere,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search over indexed bibliography entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the documents in the index",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

// IndexResult summarises one indexed document.
type IndexResult struct {
	Path       string `json:"path"`
	References int    `json:"references"`
	Duplicates int    `json:"duplicates"`
	Markers    int    `json:"markers"`
}

// mustOpenIndex opens the index database, creating its directory as needed.
func mustOpenIndex(cfg *config.Config) *storage.DB {
	path := cfg.IndexPath
	if indexDB != "" {
		path = config.ExpandPath(indexDB)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		exitWithError(ExitError, "creating index directory: %v", err)
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening index %s: %v", path, err)
	}
	return db
}

// absPath is the key documents are stored under.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger()
	defer logger.Sync()

	db := mustOpenIndex(cfg)
	defer db.Close()

	var results []IndexResult
	for _, path := range args {
		m := mustOpenManuscript(path, cfg, logger)
		dups, _ := m.duplicates(cmd.Context(), cfg, cfg.Threshold, indexReview, logger)
		idx := storage.Index{
			Path:       absPath(path),
			References: extract.Bibliography(m.Doc),
			Duplicates: dups,
			Locations:  extract.Locate(m.Doc, m.Authors),
		}
		m.Close()

		if err := db.Rebuild(idx); err != nil {
			exitWithError(ExitError, "indexing %s: %v", path, err)
		}
		logger.Info("indexed document",
			zap.String("path", idx.Path),
			zap.Int("references", len(idx.References)),
			zap.Int("markers", len(idx.Locations)))

		results = append(results, IndexResult{
			Path:       idx.Path,
			References: len(idx.References),
			Duplicates: len(dups),
			Markers:    len(idx.Locations),
		})
	}

	if humanOutput {
		for _, r := range results {
			outputHuman("%s: %d references, %d duplicates, %d markers\n", r.Path, r.References, r.Duplicates, r.Markers)
		}
		return nil
	}
	return outputJSON(results)
}

func runWhere(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		exitWithError(ExitConfigError, "invalid reference number %q", args[0])
	}

	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	doc := ""
	if whereDoc != "" {
		doc = absPath(whereDoc)
	}
	cites, err := db.Where(doc, n)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if cites == nil {
		cites = []storage.Citation{}
	}

	if humanOutput {
		if len(cites) == 0 {
			outputHuman("Reference %d is not cited in any indexed document\n", n)
			return nil
		}
		for _, c := range cites {
			outputHuman("%s ¶%d  %-10s %s\n", filepath.Base(c.Path), c.Paragraph+1, c.Text, leftTruncate(c.Context, ContextMaxLen))
		}
		return nil
	}
	return outputJSON(cites)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	hits, err := db.Search(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if hits == nil {
		hits = []storage.Hit{}
	}

	if humanOutput {
		if len(hits) == 0 {
			outputHuman("No matching references\n")
			return nil
		}
		for _, h := range hits {
			dup := ""
			if h.DuplicateOf > 0 {
				dup = " (duplicate of " + strconv.Itoa(h.DuplicateOf) + ")"
			}
			outputHuman("%s #%d%s, cited %d time(s)\n  %s\n", filepath.Base(h.Path), h.Number, dup, h.Cited, truncateString(h.Text, EntryMaxLen))
		}
		return nil
	}
	return outputJSON(hits)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenIndex(cfg)
	defer db.Close()

	docs, err := db.Documents()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if docs == nil {
		docs = []string{}
	}

	if humanOutput {
		for _, d := range docs {
			outputHuman("%s\n", d)
		}
		outputHuman("%d document(s) indexed\n", len(docs))
		return nil
	}
	return outputJSON(docs)
}
