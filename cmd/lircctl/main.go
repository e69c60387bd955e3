// Command lircctl talks to lircd: it sends commands, watches button presses
// and bridges lircd to NATS.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"libdb.so/lirc"
	"libdb.so/lirc/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(
			"lircctl failed",
			"err", err)
		cancel()
		os.Exit(1)
	}
}

// app carries state shared by all subcommands. It is filled in by the root
// command before any subcommand runs.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	defaults := config.Default()

	root := &cobra.Command{
		Use:           "lircctl",
		Short:         "Control lircd and watch infrared button presses",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.String("network", defaults.Network, "lircd socket network, unix or tcp")
	flags.String("address", defaults.Address, "lircd socket path or host:port")
	flags.Duration("reply-timeout", defaults.ReplyTimeout, "how long to wait for a reply")
	flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn or error")

	root.AddCommand(newSendOnceCmd(a))
	root.AddCommand(newSendStartCmd(a))
	root.AddCommand(newSendStopCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newSetInputLogCmd(a))
	root.AddCommand(newDrvOptionCmd(a))
	root.AddCommand(newSimulateCmd(a))
	root.AddCommand(newSetTransmittersCmd(a))
	root.AddCommand(newRawCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newBridgeCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(a.logger)
	return nil
}

// withConnection runs fn while a connection to lircd is up. The connection is
// torn down once fn returns.
func (a *app) withConnection(ctx context.Context, fn func(context.Context, *lirc.Connection) error) error {
	conn := a.cfg.Connection()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := conn.Start(ctx, a.logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer cancel()
		return fn(ctx, conn)
	})

	return g.Wait()
}

// shutdownTimeout bounds how long lircctl waits for NATS to drain.
const shutdownTimeout = 5 * time.Second
