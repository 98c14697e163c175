package archive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/drobin/nuts-go/backend/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryMutWriteReadRoundTripSmall(t *testing.T) {
	c := newTestContainer(t)
	id, err := c.Acquire()
	require.NoError(t, err)

	em, err := NewEntryMut[memory.Id](c, id, EntryMeta{Name: "a.txt", Created: 1, Changed: 2, Modified: 3})
	require.NoError(t, err)

	content := []byte("hello, nuts")
	n, err := em.Write(content)
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	require.NoError(t, em.Close())

	r, err := OpenEntryReader[memory.Id](c, id)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", r.Meta().Name)
	assert.Equal(t, uint64(len(content)), r.Meta().Size)

	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// TestEntryMutWriteReadRoundTripSpansBlocks exercises the flush-on-fill
// path: content large enough to overflow the head block across several
// follow-on blocks via the block stream.
func TestEntryMutWriteReadRoundTripSpansBlocks(t *testing.T) {
	c := newTestContainer(t)
	id, err := c.Acquire()
	require.NoError(t, err)

	em, err := NewEntryMut[memory.Id](c, id, EntryMeta{Name: "big.bin"})
	require.NoError(t, err)

	content := bytes.Repeat([]byte("0123456789"), 500)
	n, err := em.Write(content)
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	require.NoError(t, em.Close())
	assert.Equal(t, uint64(len(content)), em.Size())

	r, err := OpenEntryReader[memory.Id](c, id)
	require.NoError(t, err)
	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestEntryMutWriteInSmallChunks(t *testing.T) {
	c := newTestContainer(t)
	id, err := c.Acquire()
	require.NoError(t, err)

	em, err := NewEntryMut[memory.Id](c, id, EntryMeta{Name: "chunked"})
	require.NoError(t, err)

	text := strings.Repeat("xy", 300)
	for i := 0; i < len(text); i += 3 {
		end := i + 3
		if end > len(text) {
			end = len(text)
		}
		_, err := em.Write([]byte(text[i:end]))
		require.NoError(t, err)
	}
	require.NoError(t, em.Close())

	r, err := OpenEntryReader[memory.Id](c, id)
	require.NoError(t, err)
	got, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestEntryMutCloseIsIdempotent(t *testing.T) {
	c := newTestContainer(t)
	id, err := c.Acquire()
	require.NoError(t, err)

	em, err := NewEntryMut[memory.Id](c, id, EntryMeta{Name: "empty"})
	require.NoError(t, err)
	require.NoError(t, em.Close())
	require.NoError(t, em.Close())
}
