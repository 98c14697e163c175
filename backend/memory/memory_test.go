package memory

import (
	"testing"

	"github.com/drobin/nuts-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReadWriteRoundTrip(t *testing.T) {
	b := New(64)
	id, err := b.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, b.NullId(), id)

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	n, err := b.Write(id, data)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	buf := make([]byte, 64)
	n, err = b.Read(id, buf)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, data, buf)
}

func TestNullIdRejected(t *testing.T) {
	b := New(64)
	_, err := b.Read(b.NullId(), make([]byte, 64))
	assert.IsType(t, backend.NullId{}, err)
	_, err = b.Write(b.NullId(), make([]byte, 64))
	assert.IsType(t, backend.NullId{}, err)
	assert.Error(t, b.Release(b.NullId()))
}

func TestIdCodecRoundTrip(t *testing.T) {
	b := New(64)
	id, err := b.Acquire()
	require.NoError(t, err)
	enc := b.EncodeId(id)
	assert.Len(t, enc, b.IdSize())
	dec, err := b.DecodeId(enc)
	require.NoError(t, err)
	assert.Equal(t, id, dec)
}

func TestHeaderSlotRoundTrip(t *testing.T) {
	b := New(64)
	want := make([]byte, backend.HeaderMaxSize)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, b.HeaderSlot().PutHeaderBytes(want))
	got := make([]byte, backend.HeaderMaxSize)
	require.NoError(t, b.HeaderSlot().GetHeaderBytes(got))
	assert.Equal(t, want, got)
}

func TestReleaseThenReacquireDoesNotReuseId(t *testing.T) {
	b := New(64)
	id1, err := b.Acquire()
	require.NoError(t, err)
	require.NoError(t, b.Release(id1))
	id2, err := b.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
