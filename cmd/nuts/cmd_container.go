package main

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/drobin/nuts-go/backend"
	"github.com/drobin/nuts-go/backend/directory"
	"github.com/drobin/nuts-go/backend/plugin"
	"github.com/drobin/nuts-go/container"
	ncrypto "github.com/drobin/nuts-go/crypto"
	"github.com/urfave/cli/v2"
)

func newCmdContainer() *cli.Command {
	blockSizeFlag := &cli.UintFlag{Name: "block-size", Value: 4096, Usage: "backend block size in bytes"}

	return &cli.Command{
		Name:  "container",
		Usage: "manage a container's header: create, open, info, delete",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "create a fresh, empty container",
				Flags:  append(append([]cli.Flag{blockSizeFlag}, createBackendFlags...), cryptoFlags...),
				Action: runContainerCreate,
			},
			{
				Name:   "open",
				Usage:  "open an existing container and verify the password / header decode",
				Flags:  append([]cli.Flag{blockSizeFlag}, backendFlags...),
				Action: runContainerInfo,
			},
			{
				Name:   "info",
				Usage:  "print a container's geometry and a diagnostic header fingerprint",
				Flags:  append([]cli.Flag{blockSizeFlag}, backendFlags...),
				Action: runContainerInfo,
			},
			{
				Name:   "delete",
				Usage:  "irrecoverably delete a directory-backed container",
				Flags:  backendFlags,
				Action: runContainerDelete,
			},
		},
	}
}

func runContainerCreate(c *cli.Context) error {
	t, err := resolveCreateTarget(c)
	if err != nil {
		return err
	}
	cipher, err := parseCipher(c.String("cipher"))
	if err != nil {
		return err
	}
	kdf, err := parseKdf(c)
	if err != nil {
		return err
	}
	pw := container.NewPasswordStore(passwordCallback(c))
	blockSize := uint32(c.Uint("block-size"))

	switch t.kind {
	case "directory":
		if err := os.MkdirAll(t.dir, 0o700); err != nil {
			return err
		}
		b, err := directory.Create(t.dir, blockSize)
		if err != nil {
			return err
		}
		if err := createContainer[directory.Id](b, cipher, kdf, pw); err != nil {
			return err
		}
	case "plugin":
		b, err := plugin.Start(t.pluginPath, t.pluginArgs, blockSize)
		if err != nil {
			return err
		}
		if err := createContainer[plugin.Id](b, cipher, kdf, pw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unreachable backend kind %q", t.kind)
	}
	return registerIfRequested(t)
}

func createContainer[ID backend.Id](b backend.Backend[ID], cipher ncrypto.Cipher, kdf ncrypto.Kdf, pw *container.PasswordStore) error {
	c, err := container.Create[ID](b, cipher, kdf, pw)
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Printf("container created: block_size=%d payload_size=%d cipher=%s kdf=%s\n",
		c.BlockSize(), c.PayloadSize(), cipher, kdf)
	return nil
}

func runContainerInfo(c *cli.Context) error {
	t, err := resolveTarget(c)
	if err != nil {
		return err
	}
	pw := container.NewPasswordStore(passwordCallback(c))
	blockSize := uint32(c.Uint("block-size"))

	switch t.kind {
	case "directory":
		b, err := directory.Open(t.dir, blockSize)
		if err != nil {
			return err
		}
		return openAndPrintContainer[directory.Id](b, pw)
	case "plugin":
		b, err := plugin.Start(t.pluginPath, t.pluginArgs, blockSize)
		if err != nil {
			return err
		}
		return openAndPrintContainer[plugin.Id](b, pw)
	default:
		return fmt.Errorf("unreachable backend kind %q", t.kind)
	}
}

func openAndPrintContainer[ID backend.Id](b backend.Backend[ID], pw *container.PasswordStore) error {
	c, err := container.Open[ID](b, defaultMigrator(), pw)
	if err != nil {
		return err
	}
	defer c.Close()

	info := c.Info()
	_, hasTop := c.TopID()
	fmt.Printf("block_size=%d payload_size=%d has_archive=%t fingerprint=%016x\n",
		info.BlockSize, info.PayloadSize, hasTop, headerFingerprint(c))
	return nil
}

// headerFingerprint hashes the container's public geometry, a
// non-authoritative diagnostic an operator can eyeball to compare two
// containers or notice accidental corruption. It is never consulted by
// any read path or password check.
func headerFingerprint[ID backend.Id](c *container.Container[ID]) uint64 {
	digest := xxhash.New()
	fmt.Fprintf(digest, "%d:%d", c.BlockSize(), c.PayloadSize())
	if id, ok := c.TopID(); ok {
		digest.Write(c.EncodeId(id))
	}
	return digest.Sum64()
}

func runContainerDelete(c *cli.Context) error {
	t, err := resolveTarget(c)
	if err != nil {
		return err
	}
	if t.kind != "directory" {
		return fmt.Errorf("container delete only supports directory-backed containers")
	}
	if t.dir == "" {
		return fmt.Errorf("specify --dir")
	}
	if err := os.RemoveAll(t.dir); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", t.dir)
	return nil
}
