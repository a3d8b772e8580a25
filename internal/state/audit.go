package state

import "github.com/stormfort/keygate/internal/models"

// AppendLog records an audit entry. The log is append-only and capped: once
// it grows past models.MaxLogEntries the oldest models.LogTrimBatch entries
// are dropped in one trim.
func (s *Store) AppendLog(action, user, key, details string) models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.LogEntry{
		ID:      s.nextLogID,
		Action:  action,
		User:    user,
		Key:     key,
		Details: details,
		Time:    s.now(),
	}
	s.nextLogID++
	s.logs = append(s.logs, entry)
	if len(s.logs) > models.MaxLogEntries {
		s.logs = append([]models.LogEntry(nil), s.logs[models.LogTrimBatch:]...)
	}
	s.dirty = true
	return entry
}

// Logs returns a copy of the audit log, newest last.
func (s *Store) Logs() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.logs...)
}
