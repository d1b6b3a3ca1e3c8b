// Package snapshot persists durable sessions as flat per-session JSON
// files and reconstructs them at startup. One file per session, full
// overwrite on every save; simplicity is preferred over write
// amplification.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/game"
)

const fileExt = ".json"

// Factory produces an empty session of one kind for deserialization.
type Factory func() game.Storeable

type kindEntry struct {
	prefix  string
	factory Factory
}

// Store reads and writes session snapshots under a single directory.
// Files are named prefix + identifier + ".json"; the prefix identifies
// the session kind.
type Store struct {
	dir   string
	kinds []kindEntry
	deps  *game.Deps
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string, deps *game.Deps) *Store {
	return &Store{dir: dir, deps: deps}
}

// RegisterKind associates a filename prefix with a session factory.
// Kinds are matched longest prefix first at load time, so overlapping
// prefixes are disambiguated deterministically.
func (s *Store) RegisterKind(prefix string, f Factory) {
	s.kinds = append(s.kinds, kindEntry{prefix: prefix, factory: f})
	sort.SliceStable(s.kinds, func(i, j int) bool {
		return len(s.kinds[i].prefix) > len(s.kinds[j].prefix)
	})
}

// Path returns the snapshot file path for a session.
func (s *Store) Path(g game.Storeable) string {
	name := g.Kind() + strconv.FormatInt(game.IdentifierID(g), 10) + fileExt
	return filepath.Join(s.dir, name)
}

// Save writes the full serialized session to its snapshot file,
// replacing any previous snapshot. The write is synchronous.
func (s *Store) Save(g game.Storeable) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to serialize %s session: %w", g.Kind(), err)
	}
	if err := os.WriteFile(s.Path(g), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Delete removes a session's snapshot file. A missing file is not an
// error.
func (s *Store) Delete(g game.Storeable) error {
	err := os.Remove(s.Path(g))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Load scans the snapshot directory and inserts every reconstructed
// session into the registry. Files that fail to parse are skipped and
// logged; they never abort the scan. It returns the number of sessions
// loaded and the number of files that failed.
func (s *Store) Load(reg *game.Registry) (loaded, failed int) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("Failed to create snapshot directory")
		return 0, 0
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("Failed to read snapshot directory")
		return 0, 0
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		g, err := s.loadFile(entry.Name(), path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Couldn't load session snapshot")
			failed++
			continue
		}
		if !reg.Add(g) {
			log.Warn().Str("file", path).Msg("Snapshot duplicates a registered session, skipping")
			failed++
			continue
		}
		loaded++
	}

	log.Info().Int("loaded", loaded).Int("failed", failed).Msg("Session snapshots loaded")
	return loaded, failed
}

func (s *Store) loadFile(name, path string) (game.Storeable, error) {
	var factory Factory
	for _, k := range s.kinds {
		if strings.HasPrefix(name, k.prefix) {
			factory = k.factory
			break
		}
	}
	if factory == nil {
		return nil, fmt.Errorf("no session kind matches %q", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := factory()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to deserialize: %w", err)
	}
	g.PostDeserialize(s.deps)
	return g, nil
}

// Flush writes every durable session currently in the registry to its
// snapshot file. Used on graceful shutdown. Returns the number of
// sessions written.
func (s *Store) Flush(reg *game.Registry) int {
	n := 0
	flush := func(g game.Session) {
		st, ok := g.(game.Storeable)
		if !ok {
			return
		}
		if err := s.Save(st); err != nil {
			log.Error().Err(err).Str("kind", g.Kind()).Msg("Failed to flush session snapshot")
			return
		}
		n++
	}
	for _, g := range reg.ChannelSessions() {
		flush(g)
	}
	for _, g := range reg.UserSessions() {
		flush(g)
	}
	return n
}
