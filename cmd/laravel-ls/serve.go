package main

import (
	"errors"
	"fmt"
	"net/http"

	"laravells/internal/grammar"
	"laravells/internal/metrics"
	"laravells/internal/server"

	"github.com/tliron/commonlog"
	"github.com/urfave/cli/v2"
)

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "tcp",
			Usage: "Listen for a client on this TCP address instead of stdio",
		},
		&cli.StringFlag{
			Name:  "websocket",
			Usage: "Listen for a client on this WebSocket address instead of stdio",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Expose Prometheus metrics on this address (e.g. :9090)",
		},
		&cli.IntFlag{
			Name:  "parsers",
			Usage: "Number of pooled parsers",
			Value: 4,
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the language server (default)",
		Flags:  serveFlags(),
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	log := commonlog.GetLogger(server.Name)

	tcp, websocket := c.String("tcp"), c.String("websocket")
	if tcp != "" && websocket != "" {
		return fmt.Errorf("--tcp and --websocket are mutually exclusive")
	}

	g, err := grammar.Load()
	if err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		ms := metrics.NewServer(addr)
		defer ms.Close()
		go func() {
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server: %v", err)
			}
		}()
		log.Infof("metrics on %s", addr)
	}

	ls := server.NewServer(g, server.Options{
		Version: Version,
		Parsers: c.Int("parsers"),
	})
	defer ls.Close()

	transport := ls.Transport(c.Int("verbose") > 1)
	log.Infof("starting %s %s", server.Name, Version)

	switch {
	case tcp != "":
		return transport.RunTCP(tcp)
	case websocket != "":
		return transport.RunWebSocket(websocket)
	default:
		return transport.RunStdio()
	}
}
