package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drobin/nuts-go/backend/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFileDirectorySymlinkThenListBack(t *testing.T) {
	c := newTestContainer(t)
	tr, err := Create[memory.Id](c)
	require.NoError(t, err)

	require.NoError(t, AppendDirectory[memory.Id](tr, "docs", EntryMeta{Created: 1, Changed: 1, Modified: 1}))
	require.NoError(t, AppendFile[memory.Id](tr, "readme.txt", EntryMeta{Created: 2, Changed: 2, Modified: 2}, strings.NewReader("hello world")))
	require.NoError(t, AppendSymlink[memory.Id](tr, "latest", "readme.txt", EntryMeta{Created: 3, Changed: 3, Modified: 3}))

	assert.Equal(t, uint64(3), tr.NFiles())

	r0, err := ReadEntry[memory.Id](tr, 0)
	require.NoError(t, err)
	assert.Equal(t, "docs", r0.Meta().Name)
	assert.Equal(t, ModeDirectory, r0.Meta().Mode)

	r1, err := ReadEntry[memory.Id](tr, 1)
	require.NoError(t, err)
	assert.Equal(t, "readme.txt", r1.Meta().Name)
	content, err := r1.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	r2, err := ReadEntry[memory.Id](tr, 2)
	require.NoError(t, err)
	assert.Equal(t, ModeSymlink, r2.Meta().Mode)
	assert.Equal(t, "readme.txt", r2.Meta().Target)
}

// TestAppendRecursiveWalksDepthFirstPreOrder builds a small host directory
// tree and checks that AppendRecursive visits it depth-first, pre-order,
// reporting one path per entry (spec's "a <path>" line, reporting left to
// the caller here).
func TestAppendRecursiveWalksDepthFirstPreOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.txt"), []byte("top"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "nested.txt"), []byte("nested"), 0o644))

	c := newTestContainer(t)
	tr, err := Create[memory.Id](c)
	require.NoError(t, err)

	var reported []string
	require.NoError(t, AppendRecursive[memory.Id](tr, root, func(p string) { reported = append(reported, p) }))

	require.Len(t, reported, 4)
	assert.Equal(t, root, reported[0])

	names := []string{}
	for i := uint64(0); i < tr.NFiles(); i++ {
		r, err := ReadEntry[memory.Id](tr, i)
		require.NoError(t, err)
		names = append(names, r.Meta().Name)
	}
	// depth-first, pre-order: root, then its children in os.ReadDir order
	// ("sub" sorts before "top.txt"), with sub's own child visited before
	// returning to root's remaining siblings.
	assert.Equal(t, []string{filepath.Base(root), "sub", "nested.txt", "top.txt"}, names)
}
