package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/accelml/livingreview/internal/paper"
)

// CacheFile is the name of the SQLite query cache inside the data directory.
// The cache is derived state: it can be deleted and rebuilt from the
// snapshot at any time.
const CacheFile = "livingreview.db"

// CachePath returns the path of the SQLite query cache.
func (d *DB) CachePath() string { return filepath.Join(d.dir, CacheFile) }

func openCacheDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// SQLite does not support concurrent writes.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

const cacheDDL = `
CREATE TABLE IF NOT EXISTS papers (
  id TEXT PRIMARY KEY,
  doi TEXT,
  arxiv_id TEXT,
  title TEXT,
  authors TEXT,
  abstract TEXT,
  date TEXT,
  year INTEGER,
  venue TEXT,
  url TEXT,
  status TEXT,
  categories TEXT,
  keywords TEXT,
  curated INTEGER,
  featured INTEGER,
  retracted INTEGER,
  first_added TEXT,
  last_updated TEXT
);
CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year);
CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status);
CREATE INDEX IF NOT EXISTS idx_papers_venue ON papers(venue);
CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
  id,
  title,
  abstract
);
CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
);
`

// snapshotHash computes a SHA256 hash of the snapshot file's contents,
// used to detect a stale cache.
func (d *DB) snapshotHash() (string, error) {
	f, err := os.Open(d.SnapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading snapshot: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CacheStale reports whether the query cache is out of date with respect
// to the snapshot. A missing cache is stale.
func (d *DB) CacheStale() (bool, error) {
	currentHash, err := d.snapshotHash()
	if err != nil {
		return true, err
	}

	if _, err := os.Stat(d.CachePath()); os.IsNotExist(err) {
		return true, nil
	}

	conn, err := openCacheDB(d.CachePath())
	if err != nil {
		return true, err
	}
	defer conn.Close()

	var stored sql.NullString
	err = conn.QueryRow("SELECT value FROM _meta WHERE key = 'snapshot_hash'").Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		// A corrupt or mismatched cache counts as stale, not fatal.
		return true, nil
	}
	return stored.String != currentHash, nil
}

// RebuildCache rebuilds the SQLite cache from the given snapshot and
// records the snapshot content hash. Returns the number of papers loaded.
func (d *DB) RebuildCache(snap *Snapshot) (int, error) {
	hash, err := d.snapshotHash()
	if err != nil {
		return 0, err
	}

	// Start fresh so schema changes never leave stale tables behind.
	if err := os.Remove(d.CachePath()); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing old cache: %w", err)
	}

	conn, err := openCacheDB(d.CachePath())
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.Exec(cacheDDL); err != nil {
		return 0, fmt.Errorf("creating cache tables: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range snap.Papers {
		if err := insertPaper(tx, &snap.Papers[i]); err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", snap.Papers[i].ID, err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('snapshot_hash', ?)`, hash); err != nil {
		return 0, fmt.Errorf("storing snapshot hash: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('rebuilt_at', ?)`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("storing rebuild time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cache rebuild: %w", err)
	}
	return len(snap.Papers), nil
}

func insertPaper(tx *sql.Tx, p *paper.Paper) error {
	authors, _ := json.Marshal(p.Authors)
	categories, _ := json.Marshal(p.CategoryLabels())
	keywords, _ := json.Marshal(p.Keywords)

	_, err := tx.Exec(`INSERT INTO papers
		(id, doi, arxiv_id, title, authors, abstract, date, year, venue, url,
		 status, categories, keywords, curated, featured, retracted,
		 first_added, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DOI, p.ArXivID, p.Title, string(authors), p.Abstract,
		p.Date, p.Year, p.Venue, p.URL, p.Status, string(categories),
		string(keywords), boolInt(p.Curated), boolInt(p.Featured),
		boolInt(p.Retracted),
		p.FirstAdded.UTC().Format(time.RFC3339),
		p.LastUpdated.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO papers_fts (id, title, abstract) VALUES (?, ?, ?)`,
		p.ID, p.Title, p.Abstract)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Query executes a read-only SQL query against the cache and returns rows
// as generic maps. The cache must have been rebuilt first.
func (d *DB) Query(query string) ([]map[string]any, error) {
	if _, err := os.Stat(d.CachePath()); os.IsNotExist(err) {
		return nil, fmt.Errorf("query cache missing (run rebuild first)")
	}

	conn, err := openCacheDB(d.CachePath())
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// PrepareFTSQuery escapes special characters for FTS5 MATCH expressions.
func PrepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}
	return query
}
