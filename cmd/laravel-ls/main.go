package main

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func newApp() *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "logfile",
			Usage: "Write logs to this file instead of stderr",
		},
		&cli.IntFlag{
			Name:  "verbose",
			Usage: "Log verbosity (0 errors only, 1 info, 2 debug)",
			Value: 1,
		},
	}

	return &cli.App{
		Name:    "laravel-ls",
		Usage:   "Go-to-definition from view('...') calls to Blade templates",
		Version: Version,
		// Running without a command serves, so the serve flags are global too.
		Flags: append(flags, serveFlags()...),
		Before: func(c *cli.Context) error {
			var logfile *string
			if path := c.String("logfile"); path != "" {
				logfile = &path
			}
			commonlog.Configure(c.Int("verbose"), logfile)
			return nil
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newResolveCommand(),
		},
		Action: serve,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
