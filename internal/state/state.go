// Package state owns the in-memory license key, binding, session, and audit
// log structures and enforces their invariants. All mutations happen under a
// single mutex so every check-then-act sequence (capacity check + append,
// delete + cascade) is atomic. The store performs no I/O; the persist
// package serializes snapshots taken from here.
package state

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/models"
)

// Store holds all mutable server state. Construct with New, restore from a
// persisted document with Restore.
type Store struct {
	mu sync.Mutex

	keys     map[string]*models.LicenseKey
	userKey  map[string]string   // userID -> key
	keyUsers map[string][]string // key -> bound userIDs, bind order
	sessions map[string]*models.Session
	logs     []models.LogEntry

	nextKeyID int64
	nextLogID int64

	dirty  bool
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an empty Store with counters starting at 1.
func New(logger zerolog.Logger) *Store {
	return &Store{
		keys:      make(map[string]*models.LicenseKey),
		userKey:   make(map[string]string),
		keyUsers:  make(map[string][]string),
		sessions:  make(map[string]*models.Session),
		nextKeyID: 1,
		nextLogID: 1,
		now:       time.Now,
		logger:    logger.With().Str("component", "state").Logger(),
	}
}

// SetClock overrides the store's time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Document is the persisted layout of the full server state. Field names
// match the on-disk JSON document and must not change.
type Document struct {
	LicenseKeys     map[string]*models.LicenseKey `json:"licenseKeys"`
	UserKeyBindings map[string]string             `json:"userKeyBindings"`
	KeyUserBindings map[string][]string           `json:"keyUserBindings"`
	OperationLogs   []models.LogEntry             `json:"operationLogs"`
	ActiveSessions  map[string]*models.Session    `json:"activeSessions"`
	NextKeyID       int64                         `json:"nextKeyId"`
	NextLogID       int64                         `json:"nextLogId"`
	LastSave        time.Time                     `json:"lastSave"`
}

// Snapshot returns a deep copy of the current state in the persisted layout.
// LastSave is left zero; the persistence gateway stamps it at write time.
func (s *Store) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &Document{
		LicenseKeys:     make(map[string]*models.LicenseKey, len(s.keys)),
		UserKeyBindings: make(map[string]string, len(s.userKey)),
		KeyUserBindings: make(map[string][]string, len(s.keyUsers)),
		OperationLogs:   make([]models.LogEntry, len(s.logs)),
		ActiveSessions:  make(map[string]*models.Session, len(s.sessions)),
		NextKeyID:       s.nextKeyID,
		NextLogID:       s.nextLogID,
	}
	for k, v := range s.keys {
		cp := *v
		doc.LicenseKeys[k] = &cp
	}
	for u, k := range s.userKey {
		doc.UserKeyBindings[u] = k
	}
	for k, users := range s.keyUsers {
		doc.KeyUserBindings[k] = append([]string(nil), users...)
	}
	copy(doc.OperationLogs, s.logs)
	for id, sess := range s.sessions {
		cp := *sess
		doc.ActiveSessions[id] = &cp
	}
	return doc
}

// Restore replaces the store contents with a loaded document. Nil maps in
// the document (hand-edited or truncated files) are treated as empty.
func (s *Store) Restore(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = doc.LicenseKeys
	if s.keys == nil {
		s.keys = make(map[string]*models.LicenseKey)
	}
	s.userKey = doc.UserKeyBindings
	if s.userKey == nil {
		s.userKey = make(map[string]string)
	}
	s.keyUsers = doc.KeyUserBindings
	if s.keyUsers == nil {
		s.keyUsers = make(map[string][]string)
	}
	s.sessions = doc.ActiveSessions
	if s.sessions == nil {
		s.sessions = make(map[string]*models.Session)
	}
	s.logs = doc.OperationLogs
	s.nextKeyID = doc.NextKeyID
	if s.nextKeyID < 1 {
		s.nextKeyID = 1
	}
	s.nextLogID = doc.NextLogID
	if s.nextLogID < 1 {
		s.nextLogID = 1
	}
	s.dirty = false

	s.logger.Info().
		Int("keys", len(s.keys)).
		Int("bindings", len(s.userKey)).
		Int("sessions", len(s.sessions)).
		Int("logs", len(s.logs)).
		Msg("state restored")
}

// ConsumeDirty reports whether the state changed since the last consume and
// clears the flag. The persistence gateway polls this to coalesce writes.
func (s *Store) ConsumeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

// MarkDirty flags the state as needing a flush. Exported for the rare caller
// outside this package that mutates a returned record in place.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Counts is a point-in-time tally of the store contents, used by the health
// endpoint and metrics gauges.
type Counts struct {
	Keys     int `json:"keys"`
	Bindings int `json:"bindings"`
	Sessions int `json:"sessions"`
	Logs     int `json:"logs"`
}

// Count returns the current record tallies.
func (s *Store) Count() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Keys:     len(s.keys),
		Bindings: len(s.userKey),
		Sessions: len(s.sessions),
		Logs:     len(s.logs),
	}
}
