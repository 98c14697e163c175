package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "nuts",
		Usage:       "encrypted, block-addressed container and hierarchical archive",
		Description: "get, manage and interact with nuts containers and the archives layered on top of them.",
		Flags:       newKlogFlags(),
		Before: func(c *cli.Context) error {
			applyVerbosity(c)
			return nil
		},
		Commands: []*cli.Command{
			newCmdPlugin(),
			newCmdContainer(),
			newCmdArchive(),
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
