// Package space loads extracted space exports into the domain model. The
// extraction step (archive unpacking, HTML conversion) runs outside this
// tool and leaves one <key>.json per space in the spaces directory.
package space

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/wikiport/internal/domain"
)

// Loader reads space export files from a directory
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at the spaces directory
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// List returns the keys of all space exports present in the directory,
// sorted for deterministic processing order.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read spaces directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// Load reads and validates one space export.
func (l *Loader) Load(key string) (*domain.Space, error) {
	path := filepath.Join(l.dir, key+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("space export not found: %s", path)
		}
		return nil, err
	}

	var sp domain.Space
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parse space export %s: %w", path, err)
	}
	// State, status and reset all address a space by its file name, so an
	// embedded key that disagrees with it would split the space's identity.
	if sp.Key == "" {
		sp.Key = key
	} else if sp.Key != key {
		return nil, fmt.Errorf("space export %s: embedded space_key %q does not match file name %q", path, sp.Key, key)
	}

	if err := validate(&sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// validate checks identifier uniqueness and referential integrity of the
// export. Tree shape (dangling parents, cycles) is checked later by the
// hierarchy orderer, which reports them as structural errors of the run.
func validate(sp *domain.Space) error {
	if sp.Name == "" {
		return fmt.Errorf("space %s: missing space_name", sp.Key)
	}

	seen := make(map[string]bool, len(sp.Pages))
	for _, p := range sp.Pages {
		if p.LocalID == "" {
			return fmt.Errorf("space %s: page %q has no local_id", sp.Key, p.Title)
		}
		if seen[p.LocalID] {
			return fmt.Errorf("space %s: duplicate page local_id %s", sp.Key, p.LocalID)
		}
		seen[p.LocalID] = true
	}

	tokens := make(map[string]bool, len(sp.Attachments))
	for _, a := range sp.Attachments {
		if a.Token == "" {
			return fmt.Errorf("space %s: attachment %s has no reference_token", sp.Key, a.FileName)
		}
		if tokens[a.Token] {
			return fmt.Errorf("space %s: duplicate attachment token %s", sp.Key, a.Token)
		}
		tokens[a.Token] = true
		if a.OwningPageID == "" || !seen[a.OwningPageID] {
			return fmt.Errorf("space %s: attachment %s references unknown page %q", sp.Key, a.FileName, a.OwningPageID)
		}
		if a.FileName == "" {
			return fmt.Errorf("space %s: attachment with token %s has no filename", sp.Key, a.Token)
		}
	}
	return nil
}
