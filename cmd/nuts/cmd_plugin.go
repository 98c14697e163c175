package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func newCmdPlugin() *cli.Command {
	return &cli.Command{
		Name:  "plugin",
		Usage: "manage the registry of out-of-process backend plugins",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "register a plugin executable under a name",
				ArgsUsage: "<name> <executable-path> [args...]",
				Action:    runPluginAdd,
			},
			{
				Name:      "modify",
				Usage:     "change a registered plugin's executable path or args",
				ArgsUsage: "<name> <executable-path> [args...]",
				Action:    runPluginModify,
			},
			{
				Name:      "remove",
				Usage:     "unregister a plugin (fails if a container still references it)",
				ArgsUsage: "<name>",
				Action:    runPluginRemove,
			},
			{
				Name:      "info",
				Usage:     "print a registered plugin's executable and args",
				ArgsUsage: "<name>",
				Action:    runPluginInfo,
			},
			{
				Name:   "list",
				Usage:  "list every registered plugin",
				Action: runPluginList,
			},
		},
	}
}

func runPluginAdd(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: nuts plugin add <name> <executable-path> [args...]")
	}
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	name, path := c.Args().Get(0), c.Args().Get(1)
	p, err := store.AddPlugin(name, path, c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("registered plugin %q (id %s)\n", p.Name, p.ID)
	return nil
}

func runPluginModify(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: nuts plugin modify <name> <executable-path> [args...]")
	}
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	name, path := c.Args().Get(0), c.Args().Get(1)
	if err := store.ModifyPlugin(name, path, c.Args().Slice()[2:]); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("modified plugin %q\n", name)
	return nil
}

func runPluginRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: nuts plugin remove <name>")
	}
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	name := c.Args().Get(0)
	if err := store.RemovePlugin(name); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("removed plugin %q\n", name)
	return nil
}

func runPluginInfo(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: nuts plugin info <name>")
	}
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	name := c.Args().Get(0)
	p, ok := store.FindPlugin(name)
	if !ok {
		return fmt.Errorf("unknown plugin %q", name)
	}
	fmt.Printf("name=%s id=%s path=%s args=%s\n", p.Name, p.ID, p.Path, strings.Join(p.Args, " "))
	return nil
}

func runPluginList(c *cli.Context) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	for _, p := range store.ListPlugins() {
		fmt.Printf("%s\t%s\n", p.Name, p.Path)
	}
	return nil
}
