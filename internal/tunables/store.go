// backend-go/internal/tunables/store.go
package tunables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// current is the process-wide tunables cell. It is swapped atomically
// between evaluation cycles; a cycle reads it exactly once.
var current atomic.Pointer[Set]

func init() {
	def := Defaults()
	current.Store(&def)
}

// Current returns the active tunables snapshot.
func Current() Set {
	return *current.Load()
}

// Swap replaces the active snapshot. The new value is normalized first so a
// bad override can never poison subsequent cycles.
func Swap(s Set) Set {
	n := s.Normalize()
	current.Store(&n)
	return n
}

// Store persists partial overrides as a JSON document. Loading merges the
// overrides over Defaults(): absent fields keep their defaults.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the override file (if any) merged over the defaults. A missing
// or empty file yields plain defaults.
func (s *Store) Load() (Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := Defaults()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return set, fmt.Errorf("read tunables %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return set, nil
	}

	// Unmarshalling over the prefilled struct merges partial overrides.
	if err := json.Unmarshal(raw, &set); err != nil {
		return Defaults(), fmt.Errorf("decode tunables %s: %w", s.path, err)
	}

	return set.Normalize(), nil
}

// LoadModule returns one module's thresholds by name.
func (s *Store) LoadModule(module string) (any, error) {
	set, err := s.Load()
	if err != nil {
		return nil, err
	}

	switch module {
	case "forecast":
		return set.Forecast, nil
	case "funnel":
		return set.Funnel, nil
	case "ads":
		return set.Ads, nil
	default:
		return nil, fmt.Errorf("unknown tunables module %q", module)
	}
}

// Save merges a partial patch over the stored overrides and writes the
// result back. The patch is a JSON object mirroring Set.
func (s *Store) Save(patch json.RawMessage) (Set, error) {
	s.mu.Lock()

	merged := map[string]json.RawMessage{}
	if raw, err := os.ReadFile(s.path); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &merged); err != nil {
			merged = map[string]json.RawMessage{}
		}
	}

	var patchMap map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		s.mu.Unlock()
		return Set{}, fmt.Errorf("decode tunables patch: %w", err)
	}
	for k, v := range patchMap {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return Set{}, fmt.Errorf("encode tunables: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.mu.Unlock()
		return Set{}, fmt.Errorf("create tunables dir: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0644); err != nil {
		s.mu.Unlock()
		return Set{}, fmt.Errorf("write tunables %s: %w", s.path, err)
	}
	s.mu.Unlock()

	return s.Load()
}
