// backend-go/internal/catalog/disabled.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sellerpulse/backend-go/pkg/logger"
)

// DisabledMap is the runtime kill switch for individual SKUs: a SKU in
// the map is excluded from ordering without touching the catalog. The
// map is persisted as a JSON object so it survives restarts.
type DisabledMap struct {
	path string
	mu   sync.Mutex
}

func NewDisabledMap(path string) *DisabledMap {
	return &DisabledMap{path: path}
}

// All returns the current disabled set.
func (d *DisabledMap) All() map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// IsDisabled reports whether one SKU is switched off.
func (d *DisabledMap) IsDisabled(sku string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()[sku]
}

// Set switches one SKU on or off and persists the map.
func (d *DisabledMap) Set(sku string, disabled bool) (map[string]bool, error) {
	if sku == "" {
		return nil, fmt.Errorf("empty sku")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	m := d.load()
	if disabled {
		m[sku] = true
	} else {
		delete(m, sku)
	}

	if err := d.save(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *DisabledMap) load() map[string]bool {
	raw, err := os.ReadFile(d.path)
	if err != nil || len(raw) == 0 {
		return map[string]bool{}
	}

	m := map[string]bool{}
	if err := json.Unmarshal(raw, &m); err != nil {
		logger.Log.Warn().Err(err).Str("path", d.path).Msg("disabled map unreadable, treating all SKUs as enabled")
		return map[string]bool{}
	}
	return m
}

func (d *DisabledMap) save(m map[string]bool) error {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode disabled map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("create disabled map dir: %w", err)
	}
	if err := os.WriteFile(d.path, out, 0644); err != nil {
		return fmt.Errorf("write disabled map %s: %w", d.path, err)
	}
	return nil
}
