package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"finrisk/internal"
)

const (
	StatusFetched   = "fetched"
	StatusProcessed = "processed"
	StatusExported  = "exported"
	StatusFailed    = "failed"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS uploads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  source TEXT NOT NULL,
  hash TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'fetched',
  path TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  uploadId INTEGER,
  sheet TEXT,
  rowCount INTEGER NOT NULL DEFAULT 0,
  totalRisk REAL NOT NULL DEFAULT 0,
  repairMinutes REAL NOT NULL DEFAULT 0,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(uploadId) REFERENCES uploads(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertUpload registers a file by content hash. Re-registering the same
// bytes keeps the existing status.
func (d *DB) UpsertUpload(name, source, hash, path string) (internal.UploadRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO uploads (name, source, hash, status, path)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(hash) DO UPDATE SET
  name=excluded.name,
  path=excluded.path,
  updatedAt=CURRENT_TIMESTAMP
`, name, source, hash, StatusFetched, path)
	if err != nil {
		return internal.UploadRow{}, err
	}

	row, err := d.GetUploadByHash(hash)
	if err != nil {
		return internal.UploadRow{}, err
	}
	if row == nil {
		return internal.UploadRow{}, errors.New("failed to upsert upload")
	}
	return *row, nil
}

func (d *DB) GetUploadByHash(hash string) (*internal.UploadRow, error) {
	return d.scanUpload(d.conn.QueryRow(`
SELECT id, name, source, hash, status, path, createdAt
FROM uploads WHERE hash = ?
`, hash))
}

func (d *DB) GetUploadByID(id int) (*internal.UploadRow, error) {
	return d.scanUpload(d.conn.QueryRow(`
SELECT id, name, source, hash, status, path, createdAt
FROM uploads WHERE id = ?
`, id))
}

func (d *DB) scanUpload(r *sql.Row) (*internal.UploadRow, error) {
	var row internal.UploadRow
	err := r.Scan(&row.ID, &row.Name, &row.Source, &row.Hash, &row.Status, &row.Path, &row.ReceivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListUploadsByStatus(status string, limit int) ([]internal.UploadRow, error) {
	rows, err := d.conn.Query(`
SELECT id, name, source, hash, status, path, createdAt
FROM uploads WHERE status = ? ORDER BY id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UploadRow
	for rows.Next() {
		var row internal.UploadRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Source, &row.Hash, &row.Status, &row.Path, &row.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateUploadStatus(uploadID int, status string) error {
	_, err := d.conn.Exec(`UPDATE uploads SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, uploadID)
	return err
}

// InsertRun records one processing run. Only aggregates are stored, never the
// records themselves.
func (d *DB) InsertRun(traceID string, uploadID int, sheet string, summary internal.Summary, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	var upload any
	if uploadID > 0 {
		upload = uploadID
	}
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, uploadId, sheet, rowCount, totalRisk, repairMinutes, timingsJson, countsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, traceID, upload, sheet, summary.TotalErrors, summary.TotalRisk, summary.TotalRepairMinutes, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, COALESCE(uploadId, 0), COALESCE(sheet, ''), rowCount, totalRisk, repairMinutes, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		if err := rows.Scan(&row.ID, &row.TraceID, &row.UploadID, &row.Sheet, &row.Rows, &row.TotalRisk, &row.RepairMin, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustUploadByID(id int) (internal.UploadRow, error) {
	row, err := d.GetUploadByID(id)
	if err != nil {
		return internal.UploadRow{}, err
	}
	if row == nil {
		return internal.UploadRow{}, fmt.Errorf("upload not found: id=%d", id)
	}
	return *row, nil
}
