// Package archive keeps a SQLite history of analysed documents so a citation
// can be traced across everything seen before.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dgallion1/statutefinder/internal/citation"
)

const defaultLimit = 100

// Record is one archived analysis.
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	Filename    string    `json:"filename" yaml:"filename"`
	ContentHash string    `json:"content_hash" yaml:"content_hash"`
	AnalyzedAt  time.Time `json:"analyzed_at" yaml:"analyzed_at"`
	Total       int       `json:"total_references" yaml:"total_references"`
	Unique      int       `json:"unique_references" yaml:"unique_references"`
}

// Occurrence is one archived citation location.
type Occurrence struct {
	DocumentID string          `json:"document_id" yaml:"document_id"`
	Filename   string          `json:"filename" yaml:"filename"`
	AnalyzedAt time.Time       `json:"analyzed_at" yaml:"analyzed_at"`
	Citation   string          `json:"citation" yaml:"citation"`
	Family     citation.Family `json:"family" yaml:"family"`
	Position   int             `json:"position" yaml:"position"`
	Context    string          `json:"context" yaml:"context"`
}

// Store manages the archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			analyzed_at TEXT NOT NULL,
			total INTEGER NOT NULL,
			unique_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS occurrences (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			citation TEXT NOT NULL,
			family TEXT NOT NULL,
			position INTEGER NOT NULL,
			context TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_occurrences_citation ON occurrences(citation)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives an analysis and every match it holds, in one transaction.
func (s *Store) Save(ctx context.Context, filename, contentHash string, a *citation.Analysis) (Record, error) {
	rec := Record{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentHash: contentHash,
		AnalyzedAt:  time.Now().UTC(),
		Total:       a.TotalReferences,
		Unique:      a.UniqueReferences,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content_hash, analyzed_at, total, unique_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.ContentHash, rec.AnalyzedAt.Format(time.RFC3339Nano), rec.Total, rec.Unique,
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO occurrences (document_id, citation, family, position, context) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Record{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	locations := locationIndex(a.CrossReferences)
	for _, family := range a.Families {
		for _, m := range a.Matches[family] {
			loc := locations[locationKey{m.Text, m.Start}]
			if _, err := stmt.ExecContext(ctx, rec.ID, m.Text, string(family), loc.Position, loc.Context); err != nil {
				return Record{}, fmt.Errorf("inserting occurrence %q: %w", m.Text, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("committing: %w", err)
	}
	return rec, nil
}

type locationKey struct {
	text   string
	offset int
}

func locationIndex(xref citation.CrossReferenceMap) map[locationKey]citation.Location {
	idx := make(map[locationKey]citation.Location)
	for text, locs := range xref {
		for _, loc := range locs {
			idx[locationKey{text, loc.Offset}] = loc
		}
	}
	return idx
}

// FindCitation returns archived occurrences whose citation text contains
// query, ignoring ASCII case, newest documents first.
func (s *Store) FindCitation(ctx context.Context, query string, limit int) ([]Occurrence, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("citation query cannot be empty")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT o.document_id, d.filename, d.analyzed_at, o.citation, o.family, o.position, o.context
		 FROM occurrences o JOIN documents d ON d.id = o.document_id
		 WHERE o.citation LIKE ? ESCAPE '\'
		 ORDER BY d.analyzed_at DESC, o.document_id, o.position
		 LIMIT ?`,
		"%"+escapeLike(query)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer rows.Close()

	out := []Occurrence{}
	for rows.Next() {
		var o Occurrence
		var analyzedAt, family string
		if err := rows.Scan(&o.DocumentID, &o.Filename, &analyzedAt, &o.Citation, &family, &o.Position, &o.Context); err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		o.Family = citation.Family(family)
		o.AnalyzedAt, _ = time.Parse(time.RFC3339Nano, analyzedAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Documents lists archived analyses, newest first.
func (s *Store) Documents(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, content_hash, analyzed_at, total, unique_count
		 FROM documents ORDER BY analyzed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		var analyzedAt string
		if err := rows.Scan(&r.ID, &r.Filename, &r.ContentHash, &analyzedAt, &r.Total, &r.Unique); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		r.AnalyzedAt, _ = time.Parse(time.RFC3339Nano, analyzedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
