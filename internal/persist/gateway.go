// Package persist is the only component that reads or writes the durable
// state file. The file is a single JSON document, rewritten in full on every
// save via a temp-file rename so a crash mid-write never leaves a torn file.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormfort/keygate/internal/state"
)

// Source is the state the gateway serializes. Satisfied by *state.Store.
type Source interface {
	Snapshot() *state.Document
	Restore(doc *state.Document)
	ConsumeDirty() bool
}

// Gateway loads and saves the state document. A single writer mutex
// serializes saves; the periodic flush and request-triggered flushes share
// the same path.
type Gateway struct {
	path   string
	source Source
	logger zerolog.Logger

	writeMu sync.Mutex
	now     func() time.Time
}

// New creates a Gateway persisting to path.
func New(path string, source Source, logger zerolog.Logger) *Gateway {
	return &Gateway{
		path:   path,
		source: source,
		logger: logger.With().Str("component", "persist").Logger(),
		now:    time.Now,
	}
}

// Load restores state from the backing file. A missing file is not an error:
// the store starts empty with counters at 1.
func (g *Gateway) Load() error {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.logger.Info().Str("path", g.path).Msg("no state file, starting empty")
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var doc state.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse state file %s: %w", g.path, err)
	}
	g.source.Restore(&doc)
	return nil
}

// Flush writes the current state unconditionally.
func (g *Gateway) Flush() error {
	return g.save(g.source.Snapshot())
}

// FlushIfDirty writes the current state only if it changed since the last
// flush. Returns whether a write happened. Used by the periodic timer to
// coalesce the per-mutation dirty marks into one write.
func (g *Gateway) FlushIfDirty() (bool, error) {
	if !g.source.ConsumeDirty() {
		return false, nil
	}
	if err := g.save(g.source.Snapshot()); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gateway) save(doc *state.Document) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	doc.LastSave = g.now()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keygate-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}

	g.logger.Debug().Str("path", g.path).Int("bytes", len(raw)).Msg("state saved")
	return nil
}
