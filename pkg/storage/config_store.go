package storage

import (
	"encoding/json"
	"os"
	"path"
	"sync"

	"github.com/matst80/slask-filter/pkg/types"
)

const configFile = "filters.json"

// ConfigStore holds the merchant authored filter configuration as a
// single versioned read. The engine treats the loaded config as
// read-only per request, edits come in through Save or an external
// config_changed event followed by Load.
type ConfigStore struct {
	mu      sync.RWMutex
	dir     string
	current *types.Config
}

func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{
		dir: dir,
		current: &types.Config{
			Settings: types.Settings{
				PageSize:     24,
				DefaultSort:  "menu_order",
				CacheEnabled: true,
				CacheTTL:     3600,
				ShowCounts:   true,
			},
		},
	}
}

func (s *ConfigStore) fileName() string {
	return path.Join(s.dir, configFile)
}

// Load reads and validates the configuration file. On failure the
// previously loaded config stays active.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.fileName())
	if err != nil {
		return err
	}
	cfg := &types.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// Save validates, bumps the config version and writes atomically via
// a temp file rename.
func (s *ConfigStore) Save(cfg *types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.Version = s.current.Version + 1
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	tmp := s.fileName() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.fileName()); err != nil {
		return err
	}
	s.current = cfg
	return nil
}

// Current returns the active configuration snapshot.
func (s *ConfigStore) Current() *types.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace swaps the active configuration without touching disk. Used
// by tests and by embedders that manage persistence themselves.
func (s *ConfigStore) Replace(cfg *types.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}
