package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
)

func TestReadAll_NonExistentFile(t *testing.T) {
	recs, err := ReadAll[extract.Location]("/nonexistent/path/locations.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(recs) != 0 {
		t.Errorf("ReadAll() returned %v, want none", recs)
	}
}

func TestWriteAllReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.jsonl")
	locs := []extract.Location{
		{Paragraph: 0, StartRun: 1, EndRun: 1, Text: "1", Context: "imaging"},
		{Paragraph: 3, StartRun: 2, EndRun: 4, Text: "3,5-7", Context: "xenon"},
	}

	if err := WriteAll(path, locs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	got, err := ReadAll[extract.Location](path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, locs) {
		t.Errorf("ReadAll() = %+v, want %+v", got, locs)
	}

	// Overwrites
	if err := WriteAll(path, locs[:1]); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	got, _ = ReadAll[extract.Location](path)
	if len(got) != 1 {
		t.Errorf("expected 1 record after overwrite, got %d", len(got))
	}
}

func TestReadAll_SkipsEmptyLinesAndRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	if err := os.WriteFile(path, []byte("{\"text\":\"1\"}\n\n{\"text\":\"2\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll[extract.Location](path)
	if err != nil || len(got) != 2 {
		t.Errorf("ReadAll() = %v, %v", got, err)
	}

	if err := os.WriteFile(path, []byte("{not json}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll[extract.Location](path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// setupTestDB creates a test database with one indexed document.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	idx := Index{
		Path: "paper.docx",
		References: []extract.Reference{
			{Number: 1, Text: "Mugler JP, Altes TA. Hyperpolarized xenon MRI. Radiology 2013;37:313.", Paragraph: 10},
			{Number: 2, Text: "Driehuys B. Pulmonary imaging. Radiology 2012;262:279.", Paragraph: 11},
			{Number: 3, Text: "Mugler JP, Altes TA. Hyperpolarized xenon MRI. Radiology 2013;37:313.", Paragraph: 12},
		},
		Duplicates: dedupe.Map{3: 1},
		Locations: []extract.Location{
			{Paragraph: 0, StartRun: 1, EndRun: 1, Text: "1", Context: "gas imaging"},
			{Paragraph: 2, StartRun: 3, EndRun: 3, Text: "1-3", Context: "xenon"},
			{Paragraph: 4, StartRun: 1, EndRun: 2, Text: "2,3", Context: "lung"},
		},
	}
	if err := db.Rebuild(idx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	return db
}

func TestWhere(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Where("", 3)
	if err != nil {
		t.Fatalf("Where() error = %v", err)
	}
	if len(got) != 2 || got[0].Paragraph != 2 || got[1].Paragraph != 4 {
		t.Errorf("Where(3) = %+v", got)
	}
	if got[0].Path != "paper.docx" || got[0].Text != "1-3" {
		t.Errorf("Where(3)[0] = %+v", got[0])
	}

	got, err = db.Where("other.docx", 1)
	if err != nil || len(got) != 0 {
		t.Errorf("Where(other) = %v, %v", got, err)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	hits, err := db.Search("xenon", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", hits)
	}
	byNumber := map[int]Hit{}
	for _, h := range hits {
		byNumber[h.Number] = h
	}
	if byNumber[1].Cited != 2 || byNumber[1].DuplicateOf != 0 {
		t.Errorf("hit 1 = %+v", byNumber[1])
	}
	if byNumber[3].DuplicateOf != 1 || byNumber[3].Cited != 2 {
		t.Errorf("hit 3 = %+v", byNumber[3])
	}

	hits, err = db.Search("Driehuys B.", 10)
	if err != nil || len(hits) != 1 || hits[0].Number != 2 {
		t.Errorf("Search(phrase) = %+v, %v", hits, err)
	}

	if hits, err := db.Search("   ", 10); err != nil || hits != nil {
		t.Errorf("Search(blank) = %v, %v", hits, err)
	}
}

func TestRebuild_Replaces(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Rebuild(Index{Path: "paper.docx"}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got, _ := db.Where("", 1); len(got) != 0 {
		t.Errorf("old locations survived: %+v", got)
	}
	if hits, _ := db.Search("xenon", 10); len(hits) != 0 {
		t.Errorf("old refs survived: %+v", hits)
	}

	docs, err := db.Documents()
	if err != nil || !reflect.DeepEqual(docs, []string{"paper.docx"}) {
		t.Errorf("Documents() = %v, %v", docs, err)
	}
}
