package archive

import (
	stdbytes "bytes"
	"testing"

	"github.com/drobin/nuts-go/backend/memory"
	nbytes "github.com/drobin/nuts-go/bytes"
	"github.com/drobin/nuts-go/container"
	ncrypto "github.com/drobin/nuts-go/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *container.Container[memory.Id] {
	t.Helper()
	b := memory.New(64)
	c, err := container.Create[memory.Id](b, ncrypto.CipherNone, ncrypto.NoneKdf(), nil)
	require.NoError(t, err)
	return c
}

func TestTreeCreateSetsTopID(t *testing.T) {
	c := newTestContainer(t)
	tr, err := Create[memory.Id](c)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tr.NFiles())

	id, has := c.TopID()
	require.True(t, has)
	assert.Equal(t, tr.id, id)
}

func TestTreeCreateRefusesWhenAlreadyAcquired(t *testing.T) {
	c := newTestContainer(t)
	_, err := Create[memory.Id](c)
	require.NoError(t, err)

	_, err = Create[memory.Id](c)
	assert.IsType(t, AlreadyAcquired{}, err)
}

func TestTreeOpenRequiresTopID(t *testing.T) {
	c := newTestContainer(t)
	_, err := Open[memory.Id](c)
	assert.IsType(t, NotAcquired{}, err)
}

// TestTreeOrdinalMonotonicity exercises the ordinal-monotonicity property
// (testable property 8): ordinals are assigned 0..n-1 in acquire order and
// Lookup always returns the same id for the same ordinal.
func TestTreeOrdinalMonotonicity(t *testing.T) {
	c := newTestContainer(t)
	tr, err := Create[memory.Id](c)
	require.NoError(t, err)

	const n = 40
	ids := make([]memory.Id, n)
	for i := 0; i < n; i++ {
		id, err := tr.AcquireForNextEntry()
		require.NoError(t, err)
		ids[i] = id
		assert.Equal(t, uint64(i+1), tr.NFiles())
	}

	for i := 0; i < n; i++ {
		got, err := tr.Lookup(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, ids[i], got)
	}

	_, err = tr.Lookup(n)
	assert.IsType(t, OrdinalOutOfRange{}, err)
}

func TestTreeSurvivesReopen(t *testing.T) {
	c := newTestContainer(t)
	tr, err := Create[memory.Id](c)
	require.NoError(t, err)

	const n = 20
	ids := make([]memory.Id, n)
	for i := 0; i < n; i++ {
		id, err := tr.AcquireForNextEntry()
		require.NoError(t, err)
		ids[i] = id
	}

	tr2, err := Open[memory.Id](c)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), tr2.NFiles())
	for i := 0; i < n; i++ {
		got, err := tr2.Lookup(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, ids[i], got)
	}
}

// buildLegacyRevision0HeaderForTest hand-assembles a revision-0 header
// slot (cipher None, KDF None) whose secret carries arbitrary userdata,
// for exercising the "no migration registered" path through a real
// backend instead of ReadHeader directly.
func buildLegacyRevision0HeaderForTest(t *testing.T) []byte {
	t.Helper()

	var secretBuf stdbytes.Buffer
	sw := nbytes.NewWriter(&secretBuf, nbytes.Fixed)
	require.NoError(t, sw.PutU32(7))          // magic1
	require.NoError(t, sw.PutU32(7))          // magic2 == magic1
	require.NoError(t, sw.PutByteSeq(nil))    // key
	require.NoError(t, sw.PutByteSeq(nil))    // iv
	require.NoError(t, sw.PutByteSeq([]byte{0x00, 0x00, 0x12, 0x67})) // userdata
	require.NoError(t, sw.PutByteSeq(nil))    // settings

	ctx, err := ncrypto.NewContext(ncrypto.CipherNone, nil, nil)
	require.NoError(t, err)
	ciphertext, err := ctx.Encrypt(nil, secretBuf.Bytes())
	require.NoError(t, err)

	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	require.NoError(t, w.PutRaw([]byte("nuts-io")))
	require.NoError(t, w.PutU32(0))                         // revision 0
	require.NoError(t, w.PutU32(uint32(ncrypto.CipherNone))) // cipher
	require.NoError(t, w.PutByteSeq(nil))                    // header iv
	require.NoError(t, w.PutU32(uint32(ncrypto.KdfNone)))    // kdf
	require.NoError(t, w.PutByteSeq(ciphertext))             // sealed secret

	out := make([]byte, container.HeaderMaxSize)
	copy(out, buf.Bytes())
	return out
}

func TestTreeOpenRefusesMigrationRequiredWithoutMigrator(t *testing.T) {
	b := memory.New(64)
	require.NoError(t, b.HeaderSlot().PutHeaderBytes(buildLegacyRevision0HeaderForTest(t)))

	c, err := container.Open[memory.Id](b, nil, nil)
	require.NoError(t, err)
	assert.True(t, c.NeedsMigration())
	_, has := c.TopID()
	assert.False(t, has)

	_, err = Open[memory.Id](c)
	assert.IsType(t, container.MigrationRequired{}, err)
}
