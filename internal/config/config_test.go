package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmptyDirYieldsEmptyStore(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, s.ListPlugins())
	_, err = s.ResolvePlugin("anything")
	assert.IsType(t, UnknownContainer{}, err)
}

func TestAddModifyRemovePlugin(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	p, err := s.AddPlugin("local-disk", "/usr/local/bin/nuts-plugin-disk", []string{"--root", "/data"})
	require.NoError(t, err)
	assert.NotEqual(t, p.ID.String(), "")

	_, err = s.AddPlugin("local-disk", "/other", nil)
	assert.IsType(t, DuplicatePlugin{}, err)

	require.NoError(t, s.ModifyPlugin("local-disk", "/usr/local/bin/nuts-plugin-disk-v2", nil))
	got, ok := s.FindPlugin("local-disk")
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/nuts-plugin-disk-v2", got.Path)

	require.NoError(t, s.RemovePlugin("local-disk"))
	_, ok = s.FindPlugin("local-disk")
	assert.False(t, ok)

	err = s.RemovePlugin("local-disk")
	assert.IsType(t, UnknownPlugin{}, err)
}

func TestRemovePluginInUseByContainerFails(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.AddPlugin("local-disk", "/bin/plugin", nil)
	require.NoError(t, err)
	require.NoError(t, s.RegisterContainer("vault", "local-disk"))

	err = s.RemovePlugin("local-disk")
	assert.Error(t, err)
}

func TestRegisterAndResolveContainer(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.AddPlugin("local-disk", "/bin/plugin", nil)
	require.NoError(t, err)

	err = s.RegisterContainer("vault", "unknown-plugin")
	assert.IsType(t, UnknownPlugin{}, err)

	require.NoError(t, s.RegisterContainer("vault", "local-disk"))
	p, err := s.ResolvePlugin("vault")
	require.NoError(t, err)
	assert.Equal(t, "local-disk", p.Name)

	s.ForgetContainer("vault")
	_, err = s.ResolvePlugin("vault")
	assert.IsType(t, UnknownContainer{}, err)
}

func TestSaveAndReopenRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.AddPlugin("local-disk", "/bin/plugin", []string{"-x"})
	require.NoError(t, err)
	require.NoError(t, s.RegisterContainer("vault", "local-disk"))
	require.NoError(t, s.Save())

	s2, err := Open(dir)
	require.NoError(t, err)
	got, ok := s2.FindPlugin("local-disk")
	require.True(t, ok)
	assert.Equal(t, "/bin/plugin", got.Path)
	p, err := s2.ResolvePlugin("vault")
	require.NoError(t, err)
	assert.Equal(t, "local-disk", p.Name)
}
