package main

import (
	"fmt"

	ncrypto "github.com/drobin/nuts-go/crypto"
	"github.com/urfave/cli/v2"
)

var cryptoFlags = []cli.Flag{
	&cli.StringFlag{Name: "cipher", Value: "aes128-gcm", Usage: "none, aes128-ctr, aes128-gcm"},
	&cli.StringFlag{Name: "kdf", Value: "pbkdf2-sha256", Usage: "none, pbkdf2-sha256, pbkdf2-sha1, pbkdf2-sha512"},
	&cli.UintFlag{Name: "pbkdf2-iterations", Value: 65536, Usage: "PBKDF2 iteration count"},
}

func parseCipher(name string) (ncrypto.Cipher, error) {
	switch name {
	case "none":
		return ncrypto.CipherNone, nil
	case "aes128-ctr":
		return ncrypto.CipherAes128Ctr, nil
	case "aes128-gcm":
		return ncrypto.CipherAes128Gcm, nil
	default:
		return 0, fmt.Errorf("unknown cipher %q", name)
	}
}

func parseKdf(c *cli.Context) (ncrypto.Kdf, error) {
	name := c.String("kdf")
	if name == "none" {
		return ncrypto.NoneKdf(), nil
	}

	var digest ncrypto.Digest
	switch name {
	case "pbkdf2-sha1":
		digest = ncrypto.Sha1
	case "pbkdf2-sha256":
		digest = ncrypto.Sha256
	case "pbkdf2-sha512":
		digest = ncrypto.Sha512
	default:
		return ncrypto.Kdf{}, fmt.Errorf("unknown kdf %q", name)
	}

	salt := make([]byte, 16)
	if err := ncrypto.RandBytes(salt); err != nil {
		return ncrypto.Kdf{}, err
	}
	return ncrypto.NewPbkdf2(digest, uint32(c.Uint("pbkdf2-iterations")), salt), nil
}
