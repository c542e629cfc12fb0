// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the settings of an ingestion run.
//
// Settings come from DefaultConfig, optionally overlaid by a YAML file
// (Load) and then by command-line flags. Validate must pass before the
// configuration is used.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/ipgest/storage"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// MemoryPath selects an in-memory store.
const MemoryPath = ":memory:"

// Log levels accepted by LogLevel.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config holds the settings of an ingestion run.
type Config struct {
	// Root is the corpus root directory. Default: "/"
	Root string `yaml:"root"`

	// Dirs are subdirectories of Root to scan, in order.
	// Empty means Root itself.
	Dirs []string `yaml:"dirs"`

	// Pattern selects corpus files by name, case-insensitively.
	// Default: ipg\d{6}.xml
	Pattern string `yaml:"pattern"`

	// Workers is the number of files split concurrently.
	// Zero means one per CPU.
	Workers int `yaml:"workers"`

	// BatchSize is the number of fragments converted per pass. Default: 1000
	BatchSize int `yaml:"batch_size"`

	// StartMarker and EndMarker delimit documents within a file.
	StartMarker string `yaml:"start_marker"`
	EndMarker   string `yaml:"end_marker"`

	// MaxFragmentSize caps the size in bytes of one document. Default: 64 MiB
	MaxFragmentSize int `yaml:"max_fragment_size"`

	// Mmap memory-maps corpus files instead of streaming them. Default: true
	Mmap bool `yaml:"mmap"`

	// Tables lists the tables every record is inserted into.
	Tables []string `yaml:"tables"`

	// ChunkSize is the size of description chunks in characters. Default: 4000
	ChunkSize int `yaml:"chunk_size"`

	// Description stores full descriptions in addition to abstracts. Default: true
	Description bool `yaml:"description"`

	Store StoreConfig `yaml:"store"`
	Retry RetryConfig `yaml:"retry"`

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string `yaml:"log_level"`

	// LogFile receives the log. Empty means stderr.
	LogFile string `yaml:"log_file"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Kind is badger or sqlite. Default: badger
	Kind string `yaml:"kind"`

	// Path is the database directory (badger) or file (sqlite),
	// or MemoryPath. Default: ./ipgest.db
	Path string `yaml:"path"`
}

// RetryConfig controls retries of conflicting inserts.
type RetryConfig struct {
	// Attempts is the maximum number of attempts per insert. Default: 3
	Attempts int `yaml:"attempts"`

	// BaseDelay doubles after every failed attempt. Default: 50ms
	BaseDelay time.Duration `yaml:"base_delay"`
}

// DefaultTables lists the tables of a grant corpus.
var DefaultTables = []string{
	"assignee",
	"citation",
	"class",
	"inventor",
	"patent",
	"patdesc",
	"lawyer",
	"sciref",
	"usreldoc",
}

// DefaultConfig returns a Config with the defaults of a weekly grant corpus.
func DefaultConfig() *Config {
	return &Config{
		Root:            "/",
		Pattern:         `ipg\d{6}.xml`,
		BatchSize:       1000,
		StartMarker:     "<?xml version",
		EndMarker:       "</us-patent-grant>",
		MaxFragmentSize: 64 << 20,
		Mmap:            true,
		Tables:          slices.Clone(DefaultTables),
		ChunkSize:       4000,
		Description:     true,
		Store: StoreConfig{
			Kind: StoreBadger,
			Path: "ipgest.db",
		},
		Retry: RetryConfig{
			Attempts:  3,
			BaseDelay: 50 * time.Millisecond,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpError{
			Op:   "config.load",
			Kind: KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, &OpError{
			Op:   "config.load",
			Kind: KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	if err := cfg.Validate(); err != nil {
		var opErr *OpError
		if errors.As(err, &opErr) {
			opErr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Normalize puts the configuration in canonical form.
func (c *Config) Normalize() {
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	if c.Root != "" {
		c.Root = filepath.Clean(c.Root)
	}
	dirs := c.Dirs[:0]
	for _, d := range c.Dirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	c.Dirs = dirs
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	var problems []string
	if c.Root == "" {
		problems = append(problems, "root is required")
	}
	if c.Pattern == "" {
		problems = append(problems, "pattern is required")
	}
	if c.Workers < 0 {
		problems = append(problems, "workers must not be negative")
	}
	if c.BatchSize < 1 {
		problems = append(problems, "batch_size must be positive")
	}
	if c.StartMarker == "" || c.EndMarker == "" {
		problems = append(problems, "start_marker and end_marker are required")
	}
	if c.MaxFragmentSize < 1 {
		problems = append(problems, "max_fragment_size must be positive")
	}
	if len(c.Tables) == 0 {
		problems = append(problems, "at least one table is required")
	}
	for _, t := range c.Tables {
		if err := storage.ValidateTableName(t); err != nil {
			problems = append(problems, fmt.Sprintf("tables: %q is not a valid table name", t))
		}
	}
	if c.ChunkSize < 1 {
		problems = append(problems, "chunk_size must be positive")
	}
	if c.Store.Kind != StoreBadger && c.Store.Kind != StoreSQLite {
		problems = append(problems, fmt.Sprintf("store.kind must be %s or %s", StoreBadger, StoreSQLite))
	}
	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if c.Retry.Attempts < 1 {
		problems = append(problems, "retry.attempts must be positive")
	}
	if c.Retry.BaseDelay < 0 {
		problems = append(problems, "retry.base_delay must not be negative")
	}
	if !slices.Contains(LogLevels, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("log_level must be one of %s", strings.Join(LogLevels, ", ")))
	}

	if len(problems) > 0 {
		return &OpError{
			Op:   "config.validate",
			Kind: KindInvalidConfig,
			Err:  errors.New(strings.Join(problems, "; ")),
		}
	}
	return nil
}

// InMemory reports whether the store lives in memory.
func (s StoreConfig) InMemory() bool {
	return s.Path == MemoryPath
}
