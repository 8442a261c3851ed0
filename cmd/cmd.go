package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nexosim/nexosim-go/internal/config"
)

const (
	ServiceName      = "nexosim-go"
	ServiceNamespace = "nexosim"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

// Run is the process entry point: it builds the CLI app and hands off to
// urfave/cli, the same top-level shape the teacher's own cmd.Run uses.
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Discrete-event simulation runtime server",
		Commands: []*cli.Command{
			serverCmd(),
		},
	}

	return app.Run(os.Args)
}

// serverCmd runs the control-plane server: it resolves configuration from
// file/env via internal/config, applies any flags the operator actually
// passed, builds the fx graph, starts it, and blocks until
// SIGINT/SIGTERM.
func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the simulation control-plane server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config_file", Usage: "Path to the configuration file"},
			&cli.IntFlag{Name: "mailbox_capacity", Usage: "default mailbox capacity for models added without an explicit override"},
			&cli.IntFlag{Name: "num_threads", Usage: "executor worker count (not read: the single-threaded executor is always used)"},
			&cli.StringFlag{Name: "clock_mode", Usage: "no_clock or system (not read: simulations always run free)"},
			&cli.StringFlag{Name: "grpc_addr", Usage: "gRPC control-plane listen address"},
			&cli.StringFlag{Name: "ws_addr", Usage: "websocket listen address (not read: the websocket is served on http_addr)"},
			&cli.StringFlag{Name: "http_addr", Usage: "HTTP debug/health listen address"},
			&cli.StringFlag{Name: "amqp_url", Usage: "AMQP broker URL for sink export / event ingest (disabled if empty)"},
			&cli.StringFlag{Name: "log_level", Usage: "debug, info, warn or error"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config_file"), nil)
			if err != nil {
				return err
			}
			applyFlagOverrides(cfg, c)

			app := NewApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down")
			return app.Stop(context.Background())
		},
	}
}

// applyFlagOverrides layers in only the flags the operator explicitly
// set, so an unset flag never clobbers a value internal/config already
// resolved from file or environment — flags are the highest-priority
// layer, not an unconditional one.
func applyFlagOverrides(cfg *config.Config, c *cli.Context) {
	if c.IsSet("mailbox_capacity") {
		cfg.MailboxCapacity = c.Int("mailbox_capacity")
	}
	if c.IsSet("num_threads") {
		cfg.NumThreads = c.Int("num_threads")
	}
	if c.IsSet("clock_mode") {
		cfg.ClockMode = c.String("clock_mode")
	}
	if c.IsSet("grpc_addr") {
		cfg.GRPCAddr = c.String("grpc_addr")
	}
	if c.IsSet("ws_addr") {
		cfg.WSAddr = c.String("ws_addr")
	}
	if c.IsSet("http_addr") {
		cfg.HTTPAddr = c.String("http_addr")
	}
	if c.IsSet("amqp_url") {
		cfg.AMQPURL = c.String("amqp_url")
	}
	if c.IsSet("log_level") {
		cfg.LogLevel = c.String("log_level")
	}
}
