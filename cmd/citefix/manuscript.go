package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/config"
	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/docx"
	"github.com/matsen/citefix/internal/docxml"
	"github.com/matsen/citefix/internal/extract"
	"github.com/matsen/citefix/internal/review"
)

// manuscript is an opened .docx file with its parsed document and
// bibliography.
type manuscript struct {
	Path    string
	File    *docx.File
	Doc     *docxml.Document
	Refs    map[int]string
	MaxRef  int
	Authors citation.Authors
}

// mustOpenManuscript opens and parses path, exits on error.
// The caller is responsible for calling Close() on the returned manuscript.
func mustOpenManuscript(path string, cfg *config.Config, logger *zap.Logger) *manuscript {
	f, err := docx.Open(path)
	if err != nil {
		if errors.Is(err, docx.ErrNoDocument) {
			exitWithError(ExitDataError, "%s is not a Word document: %v", path, err)
		}
		exitWithError(ExitDataError, "opening %s: %v", path, err)
	}

	doc, err := docxml.Parse(f.Markup())
	if err != nil {
		f.Close()
		exitWithError(ExitDataError, "parsing %s: %v", path, err)
	}

	refs := extract.References(doc)
	authors := extract.AuthorNames(refs)
	for _, name := range cfg.Authors {
		authors.Add(name)
	}

	logger.Debug("opened manuscript",
		zap.String("path", path),
		zap.Int("paragraphs", len(doc.Paragraphs)),
		zap.Int("references", len(refs)),
		zap.Int("authors", len(authors)))

	return &manuscript{
		Path:    path,
		File:    f,
		Doc:     doc,
		Refs:    refs,
		MaxRef:  extract.MaxReference(refs),
		Authors: authors,
	}
}

// Close releases the archive.
func (m *manuscript) Close() error {
	return m.File.Close()
}

// Order returns the canonical first-appearance order of cited numbers.
func (m *manuscript) Order(minLen int) []int {
	return extract.CanonicalOrder(
		extract.Tables(m.Doc, m.Authors),
		extract.Paragraphs(m.Doc, m.Authors, minLen),
	)
}

// duplicates detects duplicate references and, when reviewing, adds the
// near-miss pairs the external reviewer confirms.
func (m *manuscript) duplicates(ctx context.Context, cfg *config.Config, threshold float64, withReview bool, logger *zap.Logger) (dedupe.Map, []dedupe.Candidate) {
	dups := dedupe.Detect(m.Refs, threshold)
	cands := dedupe.Candidates(m.Refs, dups, threshold)
	logger.Debug("detected duplicates",
		zap.Int("duplicates", len(dups)),
		zap.Int("candidates", len(cands)))

	if !withReview || len(cands) == 0 {
		return dups, cands
	}

	r := review.New(
		review.WithCommand(cfg.Review.Command),
		review.WithModel(cfg.Review.Model),
		review.WithTimeout(cfg.Review.Timeout),
		review.WithChunkSize(cfg.Review.ChunkSize),
		review.WithRate(cfg.Review.Rate),
		review.WithLogger(logger),
	)
	pairs := r.Review(ctx, m.Refs, cands)
	logger.Info("duplicate review finished",
		zap.Int("candidates", len(cands)),
		zap.Int("confirmed", len(pairs)))

	return dedupe.Merge(dups, pairs), cands
}
