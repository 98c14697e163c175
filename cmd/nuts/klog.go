package main

import (
	"flag"
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var verboseCount int

// newKlogFlags wires the global --verbose/-v (repeatable) and --quiet/-q
// flags into klog's verbosity, the same indirection through a private
// flag.FlagSet that klog.InitFlags expects.
func newKlogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase log verbosity (repeatable, up to trace)",
			Count:   &verboseCount,
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "set klog's verbosity level to -1 (unleveled messages still print)",
		},
	}
}

// applyVerbosity maps the CLI's --verbose count and --quiet flag onto
// klog's numeric -v level.
func applyVerbosity(c *cli.Context) {
	fs := flag.NewFlagSet("klog", flag.PanicOnError)
	klog.InitFlags(fs)
	fs.Set("logtostderr", "true")

	level := verboseCount
	if c.Bool("quiet") {
		level = -1
	}
	fs.Set("v", fmt.Sprint(level))
}
