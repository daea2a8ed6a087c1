package session

import (
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"
)

// Record is the server-side state for one session: the most recently ingested
// report text plus the patient history supplied alongside it. History is only
// meaningful when Report is set.
type Record struct {
	Report    string
	History   string
	UpdatedAt time.Time
}

// Store keeps one Record per session id. Each ingest replaces the session's
// record wholesale; there is no history of prior reports. Callers that never
// send a session id all share the DefaultID slot, which gives them last-write-wins
// semantics across concurrent ingests.
type Store struct {
	mu   sync.RWMutex
	byID map[string]Record

	// persistDB, when set, enables best-effort DB-backed persistence so a
	// session survives process restarts.
	persistDB *sql.DB
}

// DefaultID is the slot used when the caller supplies no session id.
const DefaultID = "default"

func NewStore() *Store {
	return &Store{byID: map[string]Record{}}
}

// SetPersistDB allows main() to enable DB-backed persistence.
func (s *Store) SetPersistDB(db *sql.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistDB = db
	if db != nil {
		ensureTable(db)
	}
}

// SetReport overwrites the session's report and history together. The write is
// atomic with respect to concurrent Report calls.
func (s *Store) SetReport(id, report, history string) {
	rec := Record{Report: report, History: history, UpdatedAt: time.Now()}
	s.mu.Lock()
	s.byID[id] = rec
	db := s.persistDB
	s.mu.Unlock()
	// DB write happens outside the lock; persistence is best-effort.
	if db != nil {
		if err := saveRecordDB(db, id, rec); err != nil {
			log.Printf("session: failed to persist record for %q: %v", id, err)
		}
	}
}

// Report returns the session's current record. ok is false when no report has
// ever been ingested for this session.
func (s *Store) Report(id string) (Record, bool) {
	s.mu.RLock()
	rec, ok := s.byID[id]
	db := s.persistDB
	s.mu.RUnlock()
	if ok {
		return rec, true
	}
	if db == nil {
		return Record{}, false
	}
	// Miss: a prior process may have persisted this session.
	rec, found := loadRecordDB(db, id)
	if !found {
		return Record{}, false
	}
	s.mu.Lock()
	// Keep an in-process write that raced us.
	if cur, ok := s.byID[id]; ok {
		rec = cur
	} else {
		s.byID[id] = rec
	}
	s.mu.Unlock()
	return rec, true
}

// Reset discards the session's record.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	db := s.persistDB
	s.mu.Unlock()
	if db != nil {
		if _, err := db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
			log.Printf("session: failed to delete persisted record for %q: %v", id, err)
		}
	}
}

// --- DB adapters (simple key-value table) --- //

func ensureTable(db *sql.DB) {
	_, _ = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(191) PRIMARY KEY,
		report_text MEDIUMTEXT,
		history_text TEXT,
		updated_at DATETIME
	)`)
}

func saveRecordDB(db *sql.DB, id string, rec Record) error {
	ensureTable(db)
	_, err := db.Exec(
		`REPLACE INTO sessions (session_id, report_text, history_text, updated_at) VALUES (?, ?, ?, ?)`,
		id, rec.Report, rec.History, rec.UpdatedAt,
	)
	return err
}

func loadRecordDB(db *sql.DB, id string) (Record, bool) {
	var rec Record
	row := db.QueryRow(`SELECT report_text, history_text, updated_at FROM sessions WHERE session_id = ?`, id)
	if err := row.Scan(&rec.Report, &rec.History, &rec.UpdatedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("session: failed to load persisted record for %q: %v", id, err)
		}
		return Record{}, false
	}
	return rec, true
}
