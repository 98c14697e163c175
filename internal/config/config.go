// Package config loads and saves the CLI's two on-disk configuration
// files: plugin executable paths by name, and container-name to
// plugin-name mapping. Both are YAML, loaded the way the teacher's
// config.go loads its own config files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"gopkg.in/yaml.v3"
)

var log = logging.Logger("nuts/config")

// Plugin records a registered backend plugin's executable and arguments.
type Plugin struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
	Path string    `yaml:"path"`
	Args []string  `yaml:"args,omitempty"`
}

type pluginsFile struct {
	Plugins []Plugin `yaml:"plugins"`
}

type containersFile struct {
	// Containers maps a container name to the plugin name that backs it.
	Containers map[string]string `yaml:"containers"`
}

// Store holds both configuration files' in-memory state plus the paths
// they were loaded from (and will be saved back to).
type Store struct {
	pluginsPath    string
	containersPath string
	plugins        []Plugin
	containers     map[string]string
}

// Dir returns the directory nuts configuration files live under, creating
// it if necessary.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "nuts")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// Open loads both configuration files from dir, tolerating either file
// not existing yet (a fresh Store with no entries).
func Open(dir string) (*Store, error) {
	s := &Store{
		pluginsPath:    filepath.Join(dir, "plugins.yaml"),
		containersPath: filepath.Join(dir, "containers.yaml"),
		containers:     map[string]string{},
	}

	var pf pluginsFile
	if err := loadYAML(s.pluginsPath, &pf); err != nil {
		return nil, err
	}
	s.plugins = pf.Plugins

	var cf containersFile
	if err := loadYAML(s.containersPath, &cf); err != nil {
		return nil, err
	}
	if cf.Containers != nil {
		s.containers = cf.Containers
	}

	log.Debugw("loaded config", "dir", dir, "plugins", len(s.plugins), "containers", len(s.containers))
	return s, nil
}

func loadYAML(path string, dst any) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open config file %q: %w", path, err)
	}
	defer f.Close()
	return yaml.NewDecoder(f).Decode(dst)
}

func saveYAML(path string, src any) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config file %q: %w", path, err)
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(src); err != nil {
		return err
	}
	return enc.Close()
}

// Save persists both configuration files.
func (s *Store) Save() error {
	if err := saveYAML(s.pluginsPath, pluginsFile{Plugins: s.plugins}); err != nil {
		return err
	}
	return saveYAML(s.containersPath, containersFile{Containers: s.containers})
}
