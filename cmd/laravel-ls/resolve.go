package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"laravells/internal/config"
	"laravells/internal/grammar"
	"laravells/internal/parser"
	"laravells/internal/resolver"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func newResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Print the template path referenced at each position of a PHP file",
		ArgsUsage: "FILE ROW:COL...",
		Description: "Rows and columns are zero-based; columns count bytes. One line is printed\n" +
			"per position: the template path, or - when the position references nothing.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file (" + config.FileName + " format)",
			},
			&cli.IntFlag{
				Name:  "parsers",
				Usage: "Number of pooled parsers",
				Value: 4,
			},
		},
		Action: resolve,
	}
}

// parsePosition parses a zero-based ROW:COL pair.
func parsePosition(s string) (parser.Point, error) {
	row, col, ok := strings.Cut(s, ":")
	if !ok {
		return parser.Point{}, fmt.Errorf("invalid position %q: want ROW:COL", s)
	}
	r, err := strconv.ParseUint(row, 10, 32)
	if err != nil {
		return parser.Point{}, fmt.Errorf("invalid row in %q: %w", s, err)
	}
	cl, err := strconv.ParseUint(col, 10, 32)
	if err != nil {
		return parser.Point{}, fmt.Errorf("invalid column in %q: %w", s, err)
	}
	return parser.Point{Row: uint32(r), Column: uint32(cl)}, nil
}

func resolve(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: %s %s", c.Command.HelpName, c.Command.ArgsUsage)
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return err
		}
	}

	source, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	args := c.Args().Tail()
	points := make([]parser.Point, len(args))
	for i, arg := range args {
		if points[i], err = parsePosition(arg); err != nil {
			return err
		}
	}

	g, err := grammar.Load()
	if err != nil {
		return err
	}
	pool := parser.NewParserPool(c.Int("parsers"), g)
	defer pool.Close()

	results := make([]string, len(points))
	eg, ctx := errgroup.WithContext(c.Context)
	for i, pt := range points {
		eg.Go(func() error {
			tree, err := pool.Parse(ctx, source)
			if err != nil {
				return err
			}
			if path, outcome := resolver.Explain(tree, pt, cfg); outcome == resolver.Resolved {
				results[i] = path
			} else {
				results[i] = "-"
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintln(c.App.Writer, r)
	}
	return nil
}
