package archive

import (
	"testing"

	"github.com/drobin/nuts-go/backend/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMetaRoundTrip(t *testing.T) {
	c := newTestContainer(t)
	next, err := c.Acquire()
	require.NoError(t, err)

	meta := EntryMeta{
		Name:     "report.txt",
		Mode:     ModeFile,
		Size:     1234,
		Created:  10,
		Changed:  20,
		Modified: 30,
	}
	data, err := encodeMeta[memory.Id](c, meta, next)
	require.NoError(t, err)

	got, gotNext, consumed, err := decodeMeta[memory.Id](c, data)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
	assert.Equal(t, next, gotNext)
	assert.Equal(t, len(data), consumed)
}

func TestEncodeDecodeMetaSymlinkCarriesTarget(t *testing.T) {
	c := newTestContainer(t)
	meta := EntryMeta{Name: "link", Mode: ModeSymlink, Target: "../elsewhere"}
	data, err := encodeMeta[memory.Id](c, meta, c.NullId())
	require.NoError(t, err)

	got, _, _, err := decodeMeta[memory.Id](c, data)
	require.NoError(t, err)
	assert.Equal(t, "../elsewhere", got.Target)
}

func TestDecodeMetaRejectsUnknownMode(t *testing.T) {
	c := newTestContainer(t)
	meta := EntryMeta{Name: "x", Mode: ModeFile}
	data, err := encodeMeta[memory.Id](c, meta, c.NullId())
	require.NoError(t, err)

	nameLen := 8 + len(meta.Name)
	data[nameLen] = 0x7f

	_, _, _, err = decodeMeta[memory.Id](c, data)
	assert.IsType(t, UnsupportedMode{}, err)
}
