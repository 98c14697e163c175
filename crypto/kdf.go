package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// Digest is the HMAC digest PBKDF2 runs under.
type Digest uint32

const (
	Sha1 Digest = iota
	Sha256
	Sha512
)

// UnsupportedKdf is returned when a header names a KDF discriminant this
// build does not know about.
type UnsupportedKdf uint32

func (e UnsupportedKdf) Error() string {
	return fmt.Sprintf("crypto: unsupported kdf: %d", uint32(e))
}

func (d Digest) new() (func() hash.Hash, error) {
	switch d {
	case Sha1:
		return sha1.New, nil
	case Sha256:
		return sha256.New, nil
	case Sha512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("crypto: unsupported digest: %d", uint32(d))
	}
}

func (d Digest) String() string {
	switch d {
	case Sha1:
		return "sha1"
	case Sha256:
		return "sha256"
	case Sha512:
		return "sha512"
	default:
		return fmt.Sprintf("digest(%d)", uint32(d))
	}
}

// KdfKind tags the Kdf union.
type KdfKind uint32

const (
	KdfNone KdfKind = iota
	KdfPbkdf2
)

// Kdf derives a symmetric key from a password.
type Kdf struct {
	Kind       KdfKind
	Digest     Digest // Pbkdf2 only
	Iterations uint32 // Pbkdf2 only, >= 1
	Salt       []byte // Pbkdf2 only
}

// NoneKdf returns the identity KDF: CreateKey always yields an empty key.
func NoneKdf() Kdf { return Kdf{Kind: KdfNone} }

// NewPbkdf2 builds a PBKDF2 KDF descriptor. iterations must be >= 1.
func NewPbkdf2(digest Digest, iterations uint32, salt []byte) Kdf {
	return Kdf{Kind: KdfPbkdf2, Digest: digest, Iterations: iterations, Salt: salt}
}

// CreateKey derives a key of keyLen bytes from password. For KdfNone,
// keyLen must be 0 and the result is always empty.
func (k Kdf) CreateKey(password []byte, keyLen int) ([]byte, error) {
	switch k.Kind {
	case KdfNone:
		return []byte{}, nil
	case KdfPbkdf2:
		if k.Iterations < 1 {
			return nil, fmt.Errorf("crypto: pbkdf2 iterations must be >= 1")
		}
		h, err := k.Digest.new()
		if err != nil {
			return nil, err
		}
		return pbkdf2.Key(password, k.Salt, int(k.Iterations), keyLen, h), nil
	default:
		return nil, UnsupportedKdf(uint32(k.Kind))
	}
}

func (k Kdf) String() string {
	if k.Kind == KdfNone {
		return "none"
	}
	return fmt.Sprintf("pbkdf2(%s, iterations=%d, salt=%d bytes)", k.Digest, k.Iterations, len(k.Salt))
}
