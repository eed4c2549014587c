package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteIndex is the secondary index over written snapshot files. The
// snapshot files remain the source of truth; losing the index only loses
// fast lookup.
type SQLiteIndex struct {
	db *sql.DB
}

type SnapshotRow struct {
	WorldID       string
	Seq           uint64
	Path          string
	CreatedUnixMs int64
	Chunks        int
	Entities      int
	Digest        string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			world_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			created_unix_ms INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			entities INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (world_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_world_created ON snapshots(world_id, created_unix_ms);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func (s *SQLiteIndex) RecordSnapshot(row SnapshotRow) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO snapshots
		 (world_id, seq, path, created_unix_ms, chunks, entities, digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.WorldID, row.Seq, row.Path, row.CreatedUnixMs, row.Chunks, row.Entities, row.Digest,
	)
	if err != nil {
		return fmt.Errorf("record snapshot %s/%d: %w", row.WorldID, row.Seq, err)
	}
	return nil
}

// LatestSnapshot returns the highest-seq row for a world, ok=false when
// the world has none.
func (s *SQLiteIndex) LatestSnapshot(worldID string) (SnapshotRow, bool, error) {
	row := SnapshotRow{WorldID: worldID}
	err := s.db.QueryRow(
		`SELECT seq, path, created_unix_ms, chunks, entities, digest
		 FROM snapshots WHERE world_id = ? ORDER BY seq DESC LIMIT 1`,
		worldID,
	).Scan(&row.Seq, &row.Path, &row.CreatedUnixMs, &row.Chunks, &row.Entities, &row.Digest)
	if err == sql.ErrNoRows {
		return SnapshotRow{}, false, nil
	}
	if err != nil {
		return SnapshotRow{}, false, err
	}
	return row, true, nil
}

// ListSnapshots returns up to limit rows for a world, newest first.
func (s *SQLiteIndex) ListSnapshots(worldID string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT seq, path, created_unix_ms, chunks, entities, digest
		 FROM snapshots WHERE world_id = ? ORDER BY seq DESC LIMIT ?`,
		worldID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		r := SnapshotRow{WorldID: worldID}
		if err := rows.Scan(&r.Seq, &r.Path, &r.CreatedUnixMs, &r.Chunks, &r.Entities, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSnapshot drops the row for one snapshot file, typically after the
// file itself was pruned. Deleting an absent row is not an error.
func (s *SQLiteIndex) DeleteSnapshot(worldID string, seq uint64) error {
	_, err := s.db.Exec(
		`DELETE FROM snapshots WHERE world_id = ? AND seq = ?`, worldID, seq,
	)
	if err != nil {
		return fmt.Errorf("delete snapshot %s/%d: %w", worldID, seq, err)
	}
	return nil
}

// NextSeq allocates the next snapshot sequence number for a world.
func (s *SQLiteIndex) NextSeq(worldID string) (uint64, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(seq) FROM snapshots WHERE world_id = ?`, worldID,
	).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return uint64(max.Int64) + 1, nil
}

func (s *SQLiteIndex) PutMeta(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value,
	)
	return err
}

func (s *SQLiteIndex) GetMeta(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
