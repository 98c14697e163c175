package main

import (
	"fmt"
	"io"
	"os"

	"github.com/drobin/nuts-go/archive"
	"github.com/drobin/nuts-go/backend"
	"github.com/drobin/nuts-go/backend/directory"
	"github.com/drobin/nuts-go/backend/plugin"
	"github.com/drobin/nuts-go/container"
	"github.com/urfave/cli/v2"
)

func newCmdArchive() *cli.Command {
	blockSizeFlag := &cli.UintFlag{Name: "block-size", Value: 4096, Usage: "backend block size in bytes (must match the container's)"}
	flagsWithBlockSize := append([]cli.Flag{blockSizeFlag}, backendFlags...)

	return &cli.Command{
		Name:  "archive",
		Usage: "manage the hierarchical file archive layered on a container",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "acquire the container as the archive service (fails if already acquired)",
				Flags:  flagsWithBlockSize,
				Action: runArchiveCreate,
			},
			{
				Name:  "add",
				Usage: "append an entry",
				Subcommands: []*cli.Command{
					{
						Name:      "file",
						Usage:     "append a regular file, reading its content from a host path",
						ArgsUsage: "<entry-name> <host-path>",
						Flags:     flagsWithBlockSize,
						Action:    runArchiveAddFile,
					},
					{
						Name:      "directory",
						Usage:     "append an empty directory entry",
						ArgsUsage: "<entry-name>",
						Flags:     flagsWithBlockSize,
						Action:    runArchiveAddDirectory,
					},
					{
						Name:      "symlink",
						Usage:     "append a symlink entry",
						ArgsUsage: "<entry-name> <target>",
						Flags:     flagsWithBlockSize,
						Action:    runArchiveAddSymlink,
					},
					{
						Name:      "recursive",
						Usage:     "walk a host directory tree, appending an entry per file/directory/symlink found",
						ArgsUsage: "<host-path>",
						Flags:     flagsWithBlockSize,
						Action:    runArchiveAddRecursive,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "print every entry's name, one per line",
				Flags:  flagsWithBlockSize,
				Action: runArchiveList,
			},
			{
				Name:      "get",
				Usage:     "write an entry's content to stdout (or --out)",
				ArgsUsage: "<ordinal>",
				Flags:     append(flagsWithBlockSize, &cli.StringFlag{Name: "out", Usage: "destination path (default: stdout)"}),
				Action:    runArchiveGet,
			},
			{
				Name:   "info",
				Usage:  "print entry and block counts",
				Flags:  flagsWithBlockSize,
				Action: runArchiveInfo,
			},
			{
				Name:   "migrate",
				Usage:  "rewrite a legacy revision-0 container's header to the current revision",
				Flags:  flagsWithBlockSize,
				Action: runArchiveMigrate,
			},
		},
	}
}

func openBackendAndContainer(c *cli.Context) (any, error) {
	t, err := resolveTarget(c)
	if err != nil {
		return nil, err
	}
	pw := container.NewPasswordStore(passwordCallback(c))
	blockSize := uint32(c.Uint("block-size"))

	switch t.kind {
	case "directory":
		b, err := directory.Open(t.dir, blockSize)
		if err != nil {
			return nil, err
		}
		return container.Open[directory.Id](b, defaultMigrator(), pw)
	case "plugin":
		b, err := plugin.Start(t.pluginPath, t.pluginArgs, blockSize)
		if err != nil {
			return nil, err
		}
		return container.Open[plugin.Id](b, defaultMigrator(), pw)
	default:
		return nil, fmt.Errorf("unreachable backend kind %q", t.kind)
	}
}

func runArchiveCreate(c *cli.Context) error {
	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return archiveCreate[directory.Id](cc)
	case *container.Container[plugin.Id]:
		return archiveCreate[plugin.Id](cc)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func archiveCreate[ID backend.Id](c *container.Container[ID]) error {
	defer c.Close()
	_, err := archive.Create[ID](c)
	if err != nil {
		return err
	}
	fmt.Println("archive created")
	return nil
}

func runArchiveAddFile(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: nuts archive add file <entry-name> <host-path>")
	}
	name, hostPath := c.Args().Get(0), c.Args().Get(1)

	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return addFile[directory.Id](cc, name, f, info)
	case *container.Container[plugin.Id]:
		return addFile[plugin.Id](cc, name, f, info)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func addFile[ID backend.Id](c *container.Container[ID], name string, r io.Reader, info os.FileInfo) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	meta := archive.EntryMeta{Created: uint64(info.ModTime().Unix()), Changed: uint64(info.ModTime().Unix()), Modified: uint64(info.ModTime().Unix())}
	if err := archive.AppendFile(t, name, meta, r); err != nil {
		return err
	}
	fmt.Printf("a %s\n", name)
	return nil
}

func runArchiveAddDirectory(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: nuts archive add directory <entry-name>")
	}
	name := c.Args().Get(0)

	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return addDirectory[directory.Id](cc, name)
	case *container.Container[plugin.Id]:
		return addDirectory[plugin.Id](cc, name)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func addDirectory[ID backend.Id](c *container.Container[ID], name string) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	if err := archive.AppendDirectory(t, name, archive.EntryMeta{}); err != nil {
		return err
	}
	fmt.Printf("a %s\n", name)
	return nil
}

func runArchiveAddSymlink(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: nuts archive add symlink <entry-name> <target>")
	}
	name, targetPath := c.Args().Get(0), c.Args().Get(1)

	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return addSymlink[directory.Id](cc, name, targetPath)
	case *container.Container[plugin.Id]:
		return addSymlink[plugin.Id](cc, name, targetPath)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func addSymlink[ID backend.Id](c *container.Container[ID], name, targetPath string) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	if err := archive.AppendSymlink(t, name, targetPath, archive.EntryMeta{}); err != nil {
		return err
	}
	fmt.Printf("a %s\n", name)
	return nil
}

func runArchiveAddRecursive(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: nuts archive add recursive <host-path>")
	}
	hostPath := c.Args().Get(0)

	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	report := func(path string) { fmt.Printf("a %s\n", path) }

	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return addRecursive[directory.Id](cc, hostPath, report)
	case *container.Container[plugin.Id]:
		return addRecursive[plugin.Id](cc, hostPath, report)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func addRecursive[ID backend.Id](c *container.Container[ID], hostPath string, report func(string)) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	return archive.AppendRecursive(t, hostPath, report)
}

func runArchiveList(c *cli.Context) error {
	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return listEntries[directory.Id](cc)
	case *container.Container[plugin.Id]:
		return listEntries[plugin.Id](cc)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func listEntries[ID backend.Id](c *container.Container[ID]) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	for ord := uint64(0); ord < t.NFiles(); ord++ {
		r, err := archive.ReadEntry(t, ord)
		if err != nil {
			return err
		}
		fmt.Println(r.Meta().Name)
	}
	return nil
}

func runArchiveGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: nuts archive get <ordinal>")
	}
	var ordinal uint64
	if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &ordinal); err != nil {
		return fmt.Errorf("invalid ordinal %q", c.Args().Get(0))
	}

	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return getEntry[directory.Id](cc, ordinal, out)
	case *container.Container[plugin.Id]:
		return getEntry[plugin.Id](cc, ordinal, out)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func getEntry[ID backend.Id](c *container.Container[ID], ordinal uint64, out io.Writer) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	r, err := archive.ReadEntry(t, ordinal)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, r)
	return err
}

func runArchiveInfo(c *cli.Context) error {
	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return archiveInfo[directory.Id](cc)
	case *container.Container[plugin.Id]:
		return archiveInfo[plugin.Id](cc)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func archiveInfo[ID backend.Id](c *container.Container[ID]) error {
	defer c.Close()
	t, err := archive.Open[ID](c)
	if err != nil {
		return err
	}
	blocks := 0
	for ord := uint64(0); ord < t.NFiles(); ord++ {
		id, err := t.Lookup(ord)
		if err != nil {
			return err
		}
		n, err := archive.BlockCount(c, id)
		if err != nil {
			return err
		}
		blocks += n
	}
	fmt.Printf("files=%d, blocks=%d\n", t.NFiles(), blocks)
	return nil
}

func runArchiveMigrate(c *cli.Context) error {
	v, err := openBackendAndContainer(c)
	if err != nil {
		return err
	}
	switch cc := v.(type) {
	case *container.Container[directory.Id]:
		return migrateContainer[directory.Id](cc)
	case *container.Container[plugin.Id]:
		return migrateContainer[plugin.Id](cc)
	default:
		return fmt.Errorf("unreachable container type %T", v)
	}
}

func migrateContainer[ID backend.Id](c *container.Container[ID]) error {
	defer c.Close()
	if err := c.PersistMigration(); err != nil {
		return err
	}
	fmt.Println("header migrated to the current revision")
	return nil
}
