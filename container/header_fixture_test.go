package container

import (
	stdbytes "bytes"
	"testing"

	nbytes "github.com/drobin/nuts-go/bytes"
	ncrypto "github.com/drobin/nuts-go/crypto"
	"github.com/stretchr/testify/require"
)

// encodeLegacyForTest serializes a revision0Secret the same way
// decodeRevision0Secret expects to read one, for building legacy header
// fixtures by hand in tests (there is no production encoder for the
// legacy shape since the container only ever writes revision 1).
func encodeLegacyForTest(t *testing.T, s *revision0Secret) []byte {
	t.Helper()
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	require.NoError(t, w.PutU32(s.magic1))
	require.NoError(t, w.PutU32(s.magic2))
	require.NoError(t, w.PutByteSeq(s.key))
	require.NoError(t, w.PutByteSeq(s.iv))
	require.NoError(t, w.PutByteSeq(s.userdata))
	require.NoError(t, w.PutByteSeq(s.settings))
	return buf.Bytes()
}

// buildRawHeaderForTest assembles a full HeaderMaxSize-byte header slot
// from already-encrypted secret bytes, for exercising ReadHeader against
// hand-built fixtures (the S1/S2 legacy scenarios) without going through
// WriteHeader.
func buildRawHeaderForTest(t *testing.T, revision uint32, cipher ncrypto.Cipher, kdf ncrypto.Kdf, headerIV, ciphertext []byte) []byte {
	t.Helper()
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	require.NoError(t, w.PutRaw(magic[:]))
	require.NoError(t, w.PutU32(revision))
	require.NoError(t, w.PutU32(uint32(cipher)))
	require.NoError(t, w.PutByteSeq(headerIV))
	require.NoError(t, writeKdf(w, kdf))
	require.NoError(t, w.PutByteSeq(ciphertext))

	out := make([]byte, HeaderMaxSize)
	copy(out, buf.Bytes())
	return out
}
