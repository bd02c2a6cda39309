package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the API and ad hoc queries can read while a batch writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			dir           TEXT,
			images        INTEGER,
			skipped       INTEGER,
			observations  INTEGER,
			unknown       INTEGER,
			duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_ts ON batches(timestamp)`,

		`CREATE TABLE IF NOT EXISTS observations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id    TEXT,
			image       TEXT,
			name        TEXT NOT NULL,
			price       INTEGER,
			confidence  REAL,
			source      TEXT,
			observed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_name ON observations(name)`,

		`CREATE TABLE IF NOT EXISTS skipped_images (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			batch_id  TEXT,
			image     TEXT,
			reason    TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS catalog_imports (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			kind      TEXT,
			added     INTEGER,
			skipped   INTEGER,
			note      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_ts ON catalog_imports(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBatch(evt *BatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO batches
		(id, timestamp, dir, images, skipped, observations, unknown, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		evt.ID, time.Now().Unix(), evt.Dir, evt.Images, evt.Skipped,
		evt.Observations, evt.Unknown, evt.DurationMs,
	)
	return err
}

// RecordObservations writes all observations of one image in a single transaction.
func (r *SQLiteRecorder) RecordObservations(evt *ObservationEvent) error {
	if len(evt.Observations) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO observations
		(batch_id, image, name, price, confidence, source, observed_at)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range evt.Observations {
		if _, err := stmt.Exec(evt.BatchID, evt.Image, o.Name, o.Price, o.Confidence, string(o.Source), o.Timestamp); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %q: %w", o.Name, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordSkipped(evt *SkippedImageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO skipped_images
		(timestamp, batch_id, image, reason)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.BatchID, evt.Image, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) RecordImport(evt *ImportEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO catalog_imports
		(timestamp, kind, added, skipped, note)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Kind, evt.Added, evt.Skipped, evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
