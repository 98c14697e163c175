package main

import (
	"fmt"

	nconfig "github.com/drobin/nuts-go/internal/config"
	"github.com/urfave/cli/v2"
)

// backendFlags are shared by every subcommand that operates on an
// already-existing container: it is addressed either directly by
// filesystem path (--dir, always the directory backend) or by a name
// registered in the container registry (--container, resolved through
// the plugin it was registered against).
var backendFlags = []cli.Flag{
	&cli.StringFlag{Name: "dir", Usage: "directory backend root"},
	&cli.StringFlag{Name: "container", Usage: "name of a container registered via 'nuts container create --plugin'", EnvVars: []string{"NUTS_CONTAINER"}},
	&cli.StringFlag{Name: "password-from-fd", Usage: "read the password from this open file descriptor"},
	&cli.StringFlag{Name: "password-from-file", Usage: "read the password from this file"},
}

// createBackendFlags additionally lets 'container create' name a fresh
// plugin-backed container and register it in one step, since --container
// on its own has nothing to resolve yet.
var createBackendFlags = append(append([]cli.Flag{}, backendFlags...),
	&cli.StringFlag{Name: "plugin", Usage: "name of a registered plugin to back a new container"},
	&cli.StringFlag{Name: "register-as", Usage: "container name to register the new plugin-backed container under"},
)

// target names which concrete backend.Backend[ID] instantiation a
// subcommand must dispatch to. Container[ID] and Tree[ID] are compiled
// generically over ID, so a CLI that only learns the backend kind at
// runtime (from flags or the plugin registry) has to fan out to an
// explicit type argument per kind; target carries exactly the
// information that fan-out needs.
type target struct {
	kind       string // "directory" or "plugin"
	dir        string
	pluginPath string
	pluginArgs []string

	// registerAs and pluginName are set only by resolveCreateTarget, to
	// let the caller register the freshly created container afterward.
	registerAs, pluginName string
}

// resolveTarget inspects --dir/--container and, for --container, looks
// the name up in the container registry.
func resolveTarget(c *cli.Context) (target, error) {
	name := c.String("container")
	dir := c.String("dir")
	if name != "" && dir != "" {
		return target{}, fmt.Errorf("specify only one of --dir or --container")
	}
	if name != "" {
		store, err := openConfigStore()
		if err != nil {
			return target{}, err
		}
		p, err := store.ResolvePlugin(name)
		if err != nil {
			return target{}, err
		}
		return target{kind: "plugin", pluginPath: p.Path, pluginArgs: p.Args}, nil
	}
	if dir == "" {
		return target{}, fmt.Errorf("specify --dir or --container")
	}
	return target{kind: "directory", dir: dir}, nil
}

// resolveCreateTarget is resolveTarget plus --plugin/--register-as, used
// only by 'container create' since a container name has nothing to
// resolve against until this call registers it.
func resolveCreateTarget(c *cli.Context) (target, error) {
	pluginName := c.String("plugin")
	dir := c.String("dir")
	if pluginName != "" && dir != "" {
		return target{}, fmt.Errorf("specify only one of --dir or --plugin")
	}
	if pluginName != "" {
		registerAs := c.String("register-as")
		if registerAs == "" {
			return target{}, fmt.Errorf("--plugin requires --register-as <container-name>")
		}
		store, err := openConfigStore()
		if err != nil {
			return target{}, err
		}
		p, ok := store.FindPlugin(pluginName)
		if !ok {
			return target{}, fmt.Errorf("unknown plugin %q", pluginName)
		}
		return target{kind: "plugin", pluginPath: p.Path, pluginArgs: p.Args, registerAs: registerAs, pluginName: pluginName}, nil
	}
	if dir == "" {
		return target{}, fmt.Errorf("specify --dir or --plugin")
	}
	return target{kind: "directory", dir: dir}, nil
}

// registerIfRequested persists the container-name/plugin-name mapping a
// 'container create --plugin --register-as' call asked for.
func registerIfRequested(t target) error {
	if t.registerAs == "" {
		return nil
	}
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.RegisterContainer(t.registerAs, t.pluginName); err != nil {
		return err
	}
	return store.Save()
}

func openConfigStore() (*nconfig.Store, error) {
	dir, err := nconfig.Dir()
	if err != nil {
		return nil, err
	}
	return nconfig.Open(dir)
}
