// Package config locates the workspace and loads its configuration.
//
// A workspace is a directory containing a .cairn/ data directory: the
// author logs, the snapshot database, and config.yaml. Commands discover
// the workspace by walking up from the working directory, the way
// VCS-adjacent tools do.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirName is the workspace data directory.
const DirName = ".cairn"

// ErrNoWorkspace is returned when no .cairn directory exists here or in
// any parent.
var ErrNoWorkspace = errors.New("no " + DirName + " workspace found (run 'cairn init')")

// Config is the per-workspace configuration.
type Config struct {
	// Author identifies this contributor in every record it writes.
	// Overridable per invocation by flag or CAIRN_AUTHOR.
	Author string `yaml:"author"`

	// DefaultConfidence seeds new nodes when add gives none. Zero means
	// the engine default.
	DefaultConfidence int `yaml:"default_confidence,omitempty"`
}

// Workspace is a located workspace root.
type Workspace struct {
	Root string
}

// Dir returns the workspace data directory.
func (w Workspace) Dir() string { return filepath.Join(w.Root, DirName) }

// LogsDir returns the author-log directory.
func (w Workspace) LogsDir() string { return filepath.Join(w.Dir(), "logs") }

// SnapshotPath returns the snapshot database path.
func (w Workspace) SnapshotPath() string { return filepath.Join(w.Dir(), "snapshot.db") }

// ConfigPath returns the config file path.
func (w Workspace) ConfigPath() string { return filepath.Join(w.Dir(), "config.yaml") }

// Init creates a workspace at root with the given author identity.
// Idempotent on the directory; refuses to overwrite an existing config.
func Init(root, author string) (Workspace, error) {
	w := Workspace{Root: root}
	if err := os.MkdirAll(w.LogsDir(), 0o755); err != nil {
		return w, fmt.Errorf("init workspace: %w", err)
	}
	if _, err := os.Stat(w.ConfigPath()); err == nil {
		return w, fmt.Errorf("init workspace: %s already exists", w.ConfigPath())
	}
	if err := w.SaveConfig(Config{Author: author}); err != nil {
		return w, err
	}
	return w, nil
}

// Discover walks up from start looking for a .cairn directory.
func Discover(start string) (Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return Workspace{}, fmt.Errorf("discover workspace: %w", err)
	}
	for {
		info, err := os.Stat(filepath.Join(dir, DirName))
		if err == nil && info.IsDir() {
			return Workspace{Root: dir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Workspace{}, ErrNoWorkspace
		}
		dir = parent
	}
}

// LoadConfig reads config.yaml. A missing file yields a zero Config.
func (w Workspace) LoadConfig() (Config, error) {
	data, err := os.ReadFile(w.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes config.yaml.
func (w Workspace) SaveConfig(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(w.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
