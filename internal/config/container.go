package config

import "fmt"

// UnknownContainer is returned when a container name has no registry
// entry.
type UnknownContainer struct{ Name string }

func (e UnknownContainer) Error() string { return fmt.Sprintf("config: unknown container %q", e.Name) }

// RegisterContainer associates containerName with the plugin backing it.
// pluginName must already be registered via AddPlugin.
func (s *Store) RegisterContainer(containerName, pluginName string) error {
	if _, ok := s.FindPlugin(pluginName); !ok {
		return UnknownPlugin{Name: pluginName}
	}
	s.containers[containerName] = pluginName
	log.Infow("registered container", "container", containerName, "plugin", pluginName)
	return nil
}

// ResolvePlugin returns the plugin backing containerName.
func (s *Store) ResolvePlugin(containerName string) (Plugin, error) {
	pluginName, ok := s.containers[containerName]
	if !ok {
		return Plugin{}, UnknownContainer{Name: containerName}
	}
	p, ok := s.FindPlugin(pluginName)
	if !ok {
		return Plugin{}, UnknownPlugin{Name: pluginName}
	}
	return p, nil
}

// ForgetContainer removes containerName's registry entry, if any.
func (s *Store) ForgetContainer(containerName string) {
	delete(s.containers, containerName)
}
