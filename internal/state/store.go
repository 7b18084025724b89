package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Store persists a Mapping to one JSON file.
//
// Load hands out independent deep copies of an in-memory cache; Save
// canonicalizes, dedupes on content hash, bumps the revision and writes
// atomically. A failed Save leaves both the file and the cache untouched.
type Store struct {
	path string

	mu            sync.Mutex
	cache         Mapping
	lastSavedHash string
}

// NewStore creates a store for the given file path. Nothing is read until
// Load; call Init to scaffold the file and its directory.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Init creates the parent directory and writes the default mapping when no
// state file exists yet.
func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return foundation.PersistenceError("create state directory").
			WithComponent("state").
			WithCause(err).
			Build()
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return foundation.PersistenceError("stat state file").
			WithComponent("state").
			WithCause(err).
			Build()
	}
	return s.Save(Defaults())
}

// Load returns the persisted mapping with missing keys filled from Defaults
// (existing keys win). Any decode failure falls back to the full default
// mapping with no partial merge. The caller owns the returned copy.
func (s *Store) Load() Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		s.cache = s.loadFromDisk()
	}
	return deepCopy(s.cache)
}

func (s *Store) loadFromDisk() Mapping {
	defaults := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read state file, using defaults",
				"path", s.path, "error", err)
		}
		return defaults
	}

	var loaded Mapping
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Warn("State file is not valid JSON, using defaults",
			"path", s.path, "error", err)
		return defaults
	}

	for key, value := range loaded {
		defaults[key] = value
	}
	return defaults
}

// Save writes the mapping when its canonical content differs from the last
// successful write.
//
// On a distinct write the revision key is bumped by exactly one, the result
// is written to a temp file in the same directory and renamed over the live
// file, and the cache and hash are updated. A byte-identical mapping is a
// no-op: revision and cache stay as they are.
func (s *Store) Save(m Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := deepCopy(m)

	canonical, err := canonicalJSON(candidate)
	if err != nil {
		return foundation.PersistenceError("serialize state").
			WithComponent("state").
			WithCause(err).
			Build()
	}
	if hashOf(canonical) == s.lastSavedHash {
		slog.Debug("State unchanged, skipping write", "path", s.path)
		return nil
	}

	candidate[KeyRevision] = Int(candidate, KeyRevision) + 1

	canonical, err = canonicalJSON(candidate)
	if err != nil {
		return foundation.PersistenceError("serialize state").
			WithComponent("state").
			WithCause(err).
			Build()
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, canonical, 0o644); err != nil {
		return foundation.PersistenceError("write temporary state file").
			WithComponent("state").
			WithCause(err).
			WithContext(foundation.Fields{"path": tempPath}).
			Build()
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return foundation.PersistenceError("replace state file").
			WithComponent("state").
			WithCause(err).
			WithContext(foundation.Fields{"path": s.path}).
			Build()
	}

	s.cache = candidate
	s.lastSavedHash = hashOf(canonical)

	slog.Debug("State saved", "path", s.path, "revision", Int(candidate, KeyRevision))
	return nil
}

// Invalidate drops the in-memory cache so the next Load rereads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// Revision returns the current revision of the cached state.
func (s *Store) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = s.loadFromDisk()
	}
	return Int(s.cache, KeyRevision)
}

// canonicalJSON renders the mapping in its stable form: sorted keys (the
// encoding/json map behavior) with fixed indentation.
func canonicalJSON(m Mapping) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// deepCopy round-trips through JSON so callers and cache never share
// mutable substructures. Values are JSON-representable by contract.
func deepCopy(m Mapping) Mapping {
	if m == nil {
		return Mapping{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		out := make(Mapping, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out Mapping
	if err := json.Unmarshal(data, &out); err != nil {
		out = make(Mapping, len(m))
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
