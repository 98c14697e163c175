package crypto

import (
	"crypto/rand"
	"encoding/binary"
)

// RandBytes fills b with cryptographically strong random bytes. Every salt,
// IV, and secret-magic generated by this package goes through this single
// choke point, the same role src/openssl/rand.rs plays in the original.
func RandBytes(b []byte) error {
	_, err := rand.Read(b)
	return err
}

// RandU32 returns a cryptographically strong random u32, used for the
// sealed secret's paired magic value.
func RandU32() (uint32, error) {
	var buf [4]byte
	if err := RandBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
