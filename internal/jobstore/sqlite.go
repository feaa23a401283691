package jobstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    expires_at INTEGER NOT NULL,
    payload TEXT NOT NULL
);
`

// SQLiteStore offers the same contract as MemoryStore over a jobs table,
// for operators who want an inspectable job record. Each update swaps the
// whole serialized job under the store mutex, so readers never see a
// half-written entry.
type SQLiteStore struct {
	mu   sync.Mutex
	conn *sql.DB
	now  func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn, now: time.Now}, nil
}

func (s *SQLiteStore) Put(job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO jobs(id, status, expires_at, payload) VALUES(?,?,?,?)`,
		job.ID, string(job.Status), expiryUnix(job), string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *SQLiteStore) Update(id string, fn func(*Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.load(id)
	if err != nil {
		return err
	}
	if err := fn(job); err != nil {
		return err
	}
	job.UpdatedAt = s.now()

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := s.conn.Exec(
		`UPDATE jobs SET status = ?, expires_at = ?, payload = ? WHERE id = ?`,
		string(job.Status), expiryUnix(job), string(raw), id,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Evict(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Exec(`DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.conn.QueryRow(`SELECT COUNT(*) FROM jobs WHERE expires_at = 0 OR expires_at > ?`, s.now().Unix())
	var count int
	if err := row.Scan(&count); err != nil {
		return 0
	}
	return count
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// load must be called with the mutex held.
func (s *SQLiteStore) load(id string) (*Job, error) {
	row := s.conn.QueryRow(`SELECT payload FROM jobs WHERE id = ?`, id)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	if job.Expired(s.now()) {
		_, _ = s.conn.Exec(`DELETE FROM jobs WHERE id = ?`, id)
		return nil, ErrNotFound
	}
	return &job, nil
}

func expiryUnix(job *Job) int64 {
	if job.ExpiresAt.IsZero() {
		return 0
	}
	return job.ExpiresAt.Unix()
}
