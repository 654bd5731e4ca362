// Package sink implements the measurement sink described in spec §6:
// one table per probe kind for measurement rows, a shared reports
// table for failure reasons, and a notifications table for delivered
// alert text. Grounded on pkg/database/database.go's sqlx.Open +
// InitSchema pattern and pkg/database/repositories.go's
// NamedExec-per-entity repository shape from the teacher repo.
package sink

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/berthubert/go-simplomon/pkg/model"
)

// Sink owns the sqlite connection backing the measurement/report/
// notification tables. Safe for concurrent writers: sqlx.DB pools its
// own connections, and we additionally serialize schema-evolution
// (per-kind table creation) behind a mutex.
type Sink struct {
	db         *sqlx.DB
	mu         sync.Mutex
	knownKinds map[string]bool
}

// Open connects to (and if necessary creates) the sqlite database at
// path. path == ":memory:" is supported for tests, mirroring
// database.NewDB's special case in the teacher repo.
func Open(path string) (*Sink, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sink: failed to create data directory: %w", err)
		}
		path += "?_journal_mode=WAL&_sync=NORMAL&_foreign_keys=ON"
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sink: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sink: failed to ping database: %w", err)
	}

	s := &Sink{db: db, knownKinds: map[string]bool{}}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("sink: failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Sink) Close() error { return s.db.Close() }

func (s *Sink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		probe_kind TEXT NOT NULL,
		tstamp DATETIME NOT NULL,
		subject TEXT NOT NULL,
		reason TEXT NOT NULL,
		attributes TEXT NOT NULL DEFAULT '{}'
	);
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tstamp DATETIME NOT NULL,
		message TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// measurementTable returns the per-probe-kind table name, creating the
// table on first use for that kind (column set is fixed: tstamp,
// subject, attributes, measurements — both stored as JSON blobs, since
// different probe kinds carry different metric names).
func (s *Sink) measurementTable(kind string) (string, error) {
	table := "measurements_" + sanitizeIdent(kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.knownKinds[table] {
		return table, nil
	}

	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tstamp DATETIME NOT NULL,
		subject TEXT NOT NULL,
		attributes TEXT NOT NULL DEFAULT '{}',
		measurements TEXT NOT NULL DEFAULT '{}'
	)`, table)
	if _, err := s.db.Exec(ddl); err != nil {
		return "", err
	}
	s.knownKinds[table] = true
	return table, nil
}

func sanitizeIdent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// WriteMeasurement appends one measurement row. Best-effort: failures
// are logged, never propagated (spec §7 "Sink-write").
func (s *Sink) WriteMeasurement(kind, subject string, attrs map[string]model.Scalar, measurements map[string]model.Scalar, t time.Time) {
	table, err := s.measurementTable(kind)
	if err != nil {
		log.Printf("🗄 sink: failed to prepare table for kind %s: %v", kind, err)
		return
	}
	attrJSON, err := marshalScalarMap(attrs)
	if err != nil {
		log.Printf("🗄 sink: failed to marshal attributes for kind %s: %v", kind, err)
		return
	}
	measJSON, err := marshalScalarMap(measurements)
	if err != nil {
		log.Printf("🗄 sink: failed to marshal measurements for kind %s: %v", kind, err)
		return
	}

	query := fmt.Sprintf(`INSERT INTO %s (tstamp, subject, attributes, measurements) VALUES (?, ?, ?, ?)`, table)
	if _, err := s.db.Exec(query, t, subject, attrJSON, measJSON); err != nil {
		log.Printf("🗄 sink: failed to write measurement row for kind %s: %v", kind, err)
	}
}

// WriteReport appends one failure-reason row.
func (s *Sink) WriteReport(kind, subject, reason string, attrs map[string]model.Scalar, t time.Time) {
	attrJSON, err := marshalScalarMap(attrs)
	if err != nil {
		log.Printf("🗄 sink: failed to marshal attributes for report: %v", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO reports (probe_kind, tstamp, subject, reason, attributes) VALUES (?, ?, ?, ?, ?)`,
		kind, t, subject, reason, attrJSON,
	)
	if err != nil {
		log.Printf("🗄 sink: failed to write report row: %v", err)
	}
}

// WriteNotification appends one delivered-alert-text row.
func (s *Sink) WriteNotification(message string, t time.Time) {
	if _, err := s.db.Exec(`INSERT INTO notifications (tstamp, message) VALUES (?, ?)`, t, message); err != nil {
		log.Printf("🗄 sink: failed to write notification row: %v", err)
	}
}
