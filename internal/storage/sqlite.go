package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/citefix/internal/citation"
	"github.com/matsen/citefix/internal/dedupe"
	"github.com/matsen/citefix/internal/extract"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Create schema if needed
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			indexed_at INTEGER NOT NULL
		);

		-- Bibliography entries
		CREATE TABLE IF NOT EXISTS refs (
			path TEXT NOT NULL,
			number INTEGER NOT NULL,
			paragraph INTEGER NOT NULL,
			text TEXT NOT NULL,
			duplicate_of INTEGER,
			PRIMARY KEY (path, number)
		);

		-- Citation markers
		CREATE TABLE IF NOT EXISTS locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			paragraph INTEGER NOT NULL,
			start_run INTEGER NOT NULL,
			end_run INTEGER NOT NULL,
			text TEXT NOT NULL,
			context TEXT NOT NULL
		);

		-- Numbers cited by each marker, ranges expanded
		CREATE TABLE IF NOT EXISTS cites (
			location_id INTEGER NOT NULL,
			path TEXT NOT NULL,
			number INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cites_number ON cites(path, number);

		-- Full-text search over bibliography entries
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			path UNINDEXED,
			number UNINDEXED,
			text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Index is everything stored for one document.
type Index struct {
	Path       string
	References []extract.Reference
	Duplicates dedupe.Map
	Locations  []extract.Location
}

// Rebuild replaces the stored data of idx.Path with idx.
func (d *DB) Rebuild(idx Index) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"documents", "refs", "locations", "cites", "refs_fts"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE path = ?", idx.Path); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.Exec("INSERT INTO documents (path, indexed_at) VALUES (?, ?)", idx.Path, time.Now().Unix()); err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	refsStmt, err := tx.Prepare(`INSERT INTO refs (path, number, paragraph, text, duplicate_of) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing refs insert: %w", err)
	}
	defer refsStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO refs_fts (path, number, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, ref := range idx.References {
		var dupOf sql.NullInt64
		if orig, ok := idx.Duplicates[ref.Number]; ok {
			dupOf = sql.NullInt64{Int64: int64(orig), Valid: true}
		}
		if _, err := refsStmt.Exec(idx.Path, ref.Number, ref.Paragraph, ref.Text, dupOf); err != nil {
			return fmt.Errorf("inserting ref %d: %w", ref.Number, err)
		}
		if _, err := ftsStmt.Exec(idx.Path, ref.Number, ref.Text); err != nil {
			return fmt.Errorf("inserting fts for %d: %w", ref.Number, err)
		}
	}

	locStmt, err := tx.Prepare(`INSERT INTO locations (path, paragraph, start_run, end_run, text, context) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing locations insert: %w", err)
	}
	defer locStmt.Close()

	citeStmt, err := tx.Prepare(`INSERT INTO cites (location_id, path, number) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cites insert: %w", err)
	}
	defer citeStmt.Close()

	for _, loc := range idx.Locations {
		res, err := locStmt.Exec(idx.Path, loc.Paragraph, loc.StartRun, loc.EndRun, loc.Text, loc.Context)
		if err != nil {
			return fmt.Errorf("inserting location in paragraph %d: %w", loc.Paragraph, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading location id: %w", err)
		}
		for _, n := range citation.Unique(numbers(loc.Text)) {
			if _, err := citeStmt.Exec(id, idx.Path, n); err != nil {
				return fmt.Errorf("inserting cite %d: %w", n, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

func numbers(raw string) []int {
	var nums []int
	for _, c := range citation.Parse(raw) {
		nums = append(nums, citation.Expand(c)...)
	}
	return nums
}

// Citation is a stored marker together with its document.
type Citation struct {
	Path string `json:"path"`
	extract.Location
}

// Where returns the markers citing number, in document order. An empty path
// searches every indexed document.
func (d *DB) Where(path string, number int) ([]Citation, error) {
	query := `
		SELECT l.path, l.paragraph, l.start_run, l.end_run, l.text, l.context
		FROM locations l
		JOIN cites c ON c.location_id = l.id
		WHERE c.number = ?`
	args := []any{number}
	if path != "" {
		query += " AND c.path = ?"
		args = append(args, path)
	}
	query += " ORDER BY l.path, l.paragraph, l.start_run"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying citations of %d: %w", number, err)
	}
	defer rows.Close()

	var out []Citation
	for rows.Next() {
		var c Citation
		if err := rows.Scan(&c.Path, &c.Paragraph, &c.StartRun, &c.EndRun, &c.Text, &c.Context); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Hit is a bibliography entry matched by Search.
type Hit struct {
	Path        string `json:"path"`
	Number      int    `json:"number"`
	Text        string `json:"text"`
	DuplicateOf int    `json:"duplicate_of,omitempty"`
	Cited       int    `json:"cited"` // Number of markers citing the entry
}

// Search performs a full-text search over bibliography entries, best
// matches first.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT r.path, r.number, r.text, r.duplicate_of,
			(SELECT COUNT(*) FROM cites c WHERE c.path = r.path AND c.number = r.number)
		FROM refs_fts
		JOIN refs r ON r.path = refs_fts.path AND r.number = CAST(refs_fts.number AS INTEGER)
		WHERE refs_fts MATCH ?
		ORDER BY refs_fts.rank, r.path, r.number
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var dupOf sql.NullInt64
		if err := rows.Scan(&h.Path, &h.Number, &h.Text, &dupOf, &h.Cited); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.DuplicateOf = int(dupOf.Int64)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Documents returns the indexed document paths.
func (d *DB) Documents() ([]string, error) {
	rows, err := d.db.Query("SELECT path FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// prepareFTSQuery quotes a query that contains FTS5 syntax characters.
func prepareFTSQuery(query string) string {
	// For simple queries, just quote the terms
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,;'") {
		// Escape internal quotes and wrap in quotes
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
