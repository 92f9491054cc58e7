// Package state persists per-space synchronization progress. Every remote
// mutation elsewhere in the synchronizer is followed by exactly one commit
// here before the next dependent operation begins; a crash between remote
// creation and commit is the only window where a duplicate can be created on
// resume.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quantmind-br/wikiport/internal/utils"
)

// Store reads and writes one JSON state document per space key. Writes are
// atomic (write-temp-then-rename) and serialized per store instance.
type Store struct {
	dir    string
	mu     sync.Mutex
	states map[string]*SpaceState
	logger *utils.Logger
}

// StoreOptions contains options for creating a Store
type StoreOptions struct {
	Dir    string
	Logger *utils.Logger
}

// NewStore creates a new Store rooted at the given directory
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Store{
		dir:    opts.Dir,
		states: make(map[string]*SpaceState),
		logger: logger.WithComponent("state"),
	}
}

// Load returns the current state for a space, reading it from disk on first
// access. Returns ErrStateNotFound when no record exists yet.
func (s *Store) Load(spaceKey string) (*SpaceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[spaceKey]; ok {
		return st, nil
	}

	data, err := os.ReadFile(s.statePath(spaceKey))
	if os.IsNotExist(err) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}

	var st SpaceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, ErrStateCorrupted
	}
	if st.Version != StateVersion {
		return nil, fmt.Errorf("%w: file has version %d, expected %d", ErrVersionMismatch, st.Version, StateVersion)
	}
	if st.Pages == nil {
		st.Pages = make(map[string]PageState)
	}
	if st.Attachments == nil {
		st.Attachments = make(map[string]AttachmentState)
	}

	s.states[spaceKey] = &st
	return &st, nil
}

// LoadOrCreate returns the state for a space, initializing an empty record
// when none exists yet.
func (s *Store) LoadOrCreate(spaceKey string) (*SpaceState, error) {
	st, err := s.Load(spaceKey)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrStateNotFound) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st = NewSpaceState(spaceKey)
	s.states[spaceKey] = st
	return st, nil
}

// SetCollection commits the resolved remote collection identifier.
func (s *Store) SetCollection(spaceKey, collectionID string) error {
	return s.commit(spaceKey, func(st *SpaceState) {
		st.CollectionID = collectionID
	})
}

// SetPage commits the state of one page.
func (s *Store) SetPage(spaceKey, localID string, ps PageState) error {
	return s.commit(spaceKey, func(st *SpaceState) {
		st.Pages[localID] = ps
	})
}

// SetAttachment commits the state of one attachment, keyed by its reference
// token.
func (s *Store) SetAttachment(spaceKey, token string, as AttachmentState) error {
	return s.commit(spaceKey, func(st *SpaceState) {
		st.Attachments[token] = as
	})
}

// Reset destroys the state record for a space. Operator-explicit only.
func (s *Store) Reset(spaceKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, spaceKey)
	err := os.Remove(s.statePath(spaceKey))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// commit applies one mutation and flushes the record durably before
// returning.
func (s *Store) commit(spaceKey string, mutate func(*SpaceState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[spaceKey]
	if !ok {
		st = NewSpaceState(spaceKey)
		s.states[spaceKey] = st
	}

	mutate(st)
	st.UpdatedAt = time.Now().UTC()

	return s.flush(st)
}

// flush writes the state atomically: marshal, write a temp file in the same
// directory, fsync, rename over the target.
func (s *Store) flush(st *SpaceState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	path := s.statePath(st.SpaceKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	s.logger.Debug().Str("space", st.SpaceKey).Str("path", path).Msg("State committed")
	return nil
}

func (s *Store) statePath(spaceKey string) string {
	return filepath.Join(s.dir, spaceKey+".state.json")
}
