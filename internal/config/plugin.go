package config

import (
	"fmt"

	"github.com/google/uuid"
)

// DuplicatePlugin is returned by AddPlugin when name is already registered.
type DuplicatePlugin struct{ Name string }

func (e DuplicatePlugin) Error() string { return fmt.Sprintf("config: plugin %q already registered", e.Name) }

// UnknownPlugin is returned when name has no registered plugin.
type UnknownPlugin struct{ Name string }

func (e UnknownPlugin) Error() string { return fmt.Sprintf("config: unknown plugin %q", e.Name) }

// ListPlugins returns every registered plugin.
func (s *Store) ListPlugins() []Plugin {
	out := make([]Plugin, len(s.plugins))
	copy(out, s.plugins)
	return out
}

// FindPlugin returns the plugin registered under name.
func (s *Store) FindPlugin(name string) (Plugin, bool) {
	for _, p := range s.plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}

// AddPlugin registers a new plugin, assigning it a fresh id.
func (s *Store) AddPlugin(name, path string, args []string) (Plugin, error) {
	if _, ok := s.FindPlugin(name); ok {
		return Plugin{}, DuplicatePlugin{Name: name}
	}
	p := Plugin{ID: uuid.New(), Name: name, Path: path, Args: args}
	s.plugins = append(s.plugins, p)
	log.Infow("registered plugin", "name", name, "path", path, "id", p.ID)
	return p, nil
}

// ModifyPlugin updates an existing plugin's path and args.
func (s *Store) ModifyPlugin(name, path string, args []string) error {
	for i := range s.plugins {
		if s.plugins[i].Name == name {
			s.plugins[i].Path = path
			s.plugins[i].Args = args
			log.Infow("modified plugin", "name", name, "path", path)
			return nil
		}
	}
	return UnknownPlugin{Name: name}
}

// RemovePlugin unregisters name. It fails if any container still
// references it.
func (s *Store) RemovePlugin(name string) error {
	for container, plugin := range s.containers {
		if plugin == name {
			return fmt.Errorf("config: plugin %q is still in use by container %q", name, container)
		}
	}
	for i, p := range s.plugins {
		if p.Name == name {
			s.plugins = append(s.plugins[:i], s.plugins[i+1:]...)
			log.Infow("removed plugin", "name", name)
			return nil
		}
	}
	return UnknownPlugin{Name: name}
}
