// Package export writes snapshots of the workspace index for external tools.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register modernc SQLite driver

	"codeintel/internal/workspace"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,
    language TEXT NOT NULL,
    size INTEGER NOT NULL,
    symbol_count INTEGER NOT NULL,
    exported_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    path TEXT NOT NULL REFERENCES files(path),
    line INTEGER NOT NULL,
    col INTEGER NOT NULL,
    language TEXT,
    UNIQUE(name, path, line, col)
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_path ON symbols(path);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
`

// Summary counts the rows written by WriteSQLite.
type Summary struct {
	Files   int `json:"files"`
	Symbols int `json:"symbols"`
}

// OpenDB opens or creates the snapshot database at dbPath.
func OpenDB(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("snapshot schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version < schemaVersion {
		if _, err := db.Exec("UPDATE schema_version SET version = ?", schemaVersion); err != nil {
			return fmt.Errorf("updating schema version: %w", err)
		}
	}
	return nil
}

// WriteSQLite replaces the contents of the snapshot at dbPath with the
// current state of idx. The write happens in one transaction, so readers of
// the file see either the previous snapshot or the new one.
func WriteSQLite(ctx context.Context, idx *workspace.Index, dbPath string) (Summary, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return Summary{}, err
	}
	defer db.Close()

	files := idx.Search("")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return Summary{}, fmt.Errorf("clearing symbols: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return Summary{}, fmt.Errorf("clearing files: %w", err)
	}

	fileStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO files (path, language, size, symbol_count, exported_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return Summary{}, fmt.Errorf("preparing file insert: %w", err)
	}
	defer fileStmt.Close()

	symStmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO symbols (name, kind, path, line, col, language) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return Summary{}, fmt.Errorf("preparing symbol insert: %w", err)
	}
	defer symStmt.Close()

	now := time.Now().Unix()
	var sum Summary
	for _, f := range files {
		if _, err := fileStmt.ExecContext(ctx, f.Path, string(f.Language), len(f.Content), len(f.Symbols), now); err != nil {
			return Summary{}, fmt.Errorf("inserting file %s: %w", f.Path, err)
		}
		sum.Files++

		for _, sym := range f.Symbols {
			res, err := symStmt.ExecContext(ctx, sym.Name, sym.Kind.String(), f.Path, sym.Line, sym.Column, string(f.Language))
			if err != nil {
				return Summary{}, fmt.Errorf("inserting symbol %s: %w", sym.Name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				sum.Symbols++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("committing snapshot: %w", err)
	}
	return sum, nil
}
