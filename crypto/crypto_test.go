package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherNoneRoundTrip(t *testing.T) {
	ctx, err := NewContext(CipherNone, nil, nil)
	require.NoError(t, err)
	pt := []byte("hello world")
	ct, err := ctx.Encrypt(nil, pt)
	require.NoError(t, err)
	assert.Equal(t, pt, ct)
	out, err := ctx.Decrypt(nil, ct)
	require.NoError(t, err)
	assert.Equal(t, pt, out)
}

func TestCipherAesCtrRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	require.NoError(t, RandBytes(key))
	require.NoError(t, RandBytes(iv))
	ctx, err := NewContext(CipherAes128Ctr, key, iv)
	require.NoError(t, err)

	pt := []byte("0123456789abcdef0123")
	ct, err := ctx.Encrypt(iv, pt)
	require.NoError(t, err)
	assert.NotEqual(t, pt, ct)
	assert.Len(t, ct, len(pt))

	out, err := ctx.Decrypt(iv, ct)
	require.NoError(t, err)
	assert.Equal(t, pt, out)
}

func TestCipherAesGcmRoundTripAndTamperDetection(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 12)
	require.NoError(t, RandBytes(key))
	require.NoError(t, RandBytes(iv))
	ctx, err := NewContext(CipherAes128Gcm, key, iv)
	require.NoError(t, err)

	pt := []byte("secret block contents")
	ct, err := ctx.Encrypt(iv, pt)
	require.NoError(t, err)
	assert.Len(t, ct, len(pt)+CipherAes128Gcm.Overhead())

	out, err := ctx.Decrypt(iv, ct)
	require.NoError(t, err)
	assert.Equal(t, pt, out)

	tampered := append([]byte{}, ct...)
	tampered[0] ^= 0xff
	_, err = ctx.Decrypt(iv, tampered)
	require.Error(t, err)
	assert.IsType(t, BadCiphertext{}, err)
}

func TestKdfNoneEmptyKey(t *testing.T) {
	k := NoneKdf()
	key, err := k.CreateKey([]byte("whatever"), 0)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestKdfPbkdf2Deterministic(t *testing.T) {
	k := NewPbkdf2(Sha256, 4096, []byte("salt-value"))
	k1, err := k.CreateKey([]byte("password"), 16)
	require.NoError(t, err)
	k2, err := k.CreateKey([]byte("password"), 16)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)

	other, err := k.CreateKey([]byte("different"), 16)
	require.NoError(t, err)
	assert.NotEqual(t, k1, other)
}

func TestSecureBytesWipe(t *testing.T) {
	sb := NewSecureBytes([]byte{1, 2, 3, 4})
	buf := sb.Bytes()
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
	sb.Close()
	assert.Equal(t, 0, sb.Len())
	// the original backing array was zeroed in place
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}
