package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Cipher is the tagged union of symmetric cipher suites a container header
// may declare.
type Cipher uint32

const (
	CipherNone Cipher = iota
	CipherAes128Ctr
	CipherAes128Gcm
)

// UnsupportedCipher is returned when a header names a cipher discriminant
// this build does not know about.
type UnsupportedCipher uint32

func (e UnsupportedCipher) Error() string {
	return fmt.Sprintf("crypto: unsupported cipher: %d", uint32(e))
}

// BadCiphertext is returned when an AEAD tag fails to verify, or by
// NewContext when the key or IV length does not match the cipher. CTR
// decryption accepts input of any length and never returns it.
type BadCiphertext struct{ Reason string }

func (e BadCiphertext) Error() string { return "crypto: bad ciphertext: " + e.Reason }

func (c Cipher) String() string {
	switch c {
	case CipherNone:
		return "none"
	case CipherAes128Ctr:
		return "aes128-ctr"
	case CipherAes128Gcm:
		return "aes128-gcm"
	default:
		return fmt.Sprintf("cipher(%d)", uint32(c))
	}
}

// KeyLen returns the key length in bytes this cipher requires.
func (c Cipher) KeyLen() int {
	switch c {
	case CipherNone:
		return 0
	case CipherAes128Ctr, CipherAes128Gcm:
		return 16
	default:
		return 0
	}
}

// IVLen returns the IV/nonce length in bytes this cipher requires.
func (c Cipher) IVLen() int {
	switch c {
	case CipherNone:
		return 0
	case CipherAes128Ctr:
		return 16
	case CipherAes128Gcm:
		return 12
	default:
		return 0
	}
}

// Overhead returns the number of extra bytes a ciphertext carries beyond
// the plaintext length (the AEAD tag, for GCM).
func (c Cipher) Overhead() int {
	if c == CipherAes128Gcm {
		return 16
	}
	return 0
}

// Valid reports whether c is a known discriminant.
func (c Cipher) Valid() bool {
	return c == CipherNone || c == CipherAes128Ctr || c == CipherAes128Gcm
}

// Context performs whole-block encrypt/decrypt for a fixed cipher and key
// (the IV is passed on each call), built once per container open/create and
// reused for every block; the AES state itself is rebuilt on each call —
// mirroring CipherCtx::new being constructed once around Header::read/write
// in the original.
type Context struct {
	cipher Cipher
	key    []byte
	iv     []byte
}

// NewContext builds a cipher context for key/iv, which must already match
// cipher.KeyLen()/IVLen().
func NewContext(c Cipher, key, iv []byte) (*Context, error) {
	if !c.Valid() {
		return nil, UnsupportedCipher(uint32(c))
	}
	if len(key) != c.KeyLen() {
		return nil, BadCiphertext{Reason: fmt.Sprintf("key length %d, want %d", len(key), c.KeyLen())}
	}
	if len(iv) != c.IVLen() {
		return nil, BadCiphertext{Reason: fmt.Sprintf("iv length %d, want %d", len(iv), c.IVLen())}
	}
	return &Context{cipher: c, key: key, iv: iv}, nil
}

// Encrypt encrypts plaintext under iv (the caller derives a per-block IV;
// see container.Container for the XOR-with-block-id mixing). For
// CipherNone, output equals input. For Aes128Gcm the authentication tag is
// appended to the returned ciphertext.
func (ctx *Context) Encrypt(iv, plaintext []byte) ([]byte, error) {
	switch ctx.cipher {
	case CipherNone:
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil
	case CipherAes128Ctr:
		block, err := aes.NewCipher(ctx.key)
		if err != nil {
			return nil, err
		}
		stream := cipher.NewCTR(block, iv)
		out := make([]byte, len(plaintext))
		stream.XORKeyStream(out, plaintext)
		return out, nil
	case CipherAes128Gcm:
		block, err := aes.NewCipher(ctx.key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, err
		}
		return gcm.Seal(nil, iv, plaintext, nil), nil
	default:
		return nil, UnsupportedCipher(uint32(ctx.cipher))
	}
}

// Decrypt reverses Encrypt. An AEAD tag mismatch surfaces as BadCiphertext;
// CTR decryption does not check the input size. Neither is ever reported as
// a password-correctness signal (that comes from the secret-magic check).
func (ctx *Context) Decrypt(iv, ciphertext []byte) ([]byte, error) {
	switch ctx.cipher {
	case CipherNone:
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	case CipherAes128Ctr:
		block, err := aes.NewCipher(ctx.key)
		if err != nil {
			return nil, err
		}
		stream := cipher.NewCTR(block, iv)
		out := make([]byte, len(ciphertext))
		stream.XORKeyStream(out, ciphertext)
		return out, nil
	case CipherAes128Gcm:
		block, err := aes.NewCipher(ctx.key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, err
		}
		out, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, BadCiphertext{Reason: err.Error()}
		}
		return out, nil
	default:
		return nil, UnsupportedCipher(uint32(ctx.cipher))
	}
}
