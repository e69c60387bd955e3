package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"libdb.so/lirc"
	"libdb.so/lirc/internal/bridge"
)

func newBridgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Forward button presses to NATS and accept commands from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Bridge

			nc, err := nats.Connect(cfg.NATSURL, nats.Name("lircctl"))
			if err != nil {
				return fmt.Errorf("cannot connect to NATS at %s: %w", cfg.NATSURL, err)
			}
			defer nc.Close()

			var shadow bridge.Shadow
			if cfg.RedisAddr != "" {
				client := redis.NewClient(&redis.Options{
					Addr: cfg.RedisAddr,
					DB:   cfg.RedisDB,
				})
				defer client.Close()

				if err := client.Ping(cmd.Context()).Err(); err != nil {
					return fmt.Errorf("cannot connect to Redis at %s: %w", cfg.RedisAddr, err)
				}
				shadow = bridge.NewRedisShadow(client, cfg.ShadowTTL)
			}

			return a.withConnection(cmd.Context(), func(ctx context.Context, conn *lirc.Connection) error {
				b := bridge.New(nc, conn, shadow, cfg.SubjectPrefix, a.logger)

				err := b.Run(ctx, nc, conn.Events, conn.Reloads)
				if errors.Is(err, context.Canceled) {
					err = nil
				}

				if derr := drain(nc); derr != nil {
					a.logger.Warn(
						"cannot drain NATS connection",
						"err", derr)
				}
				return err
			})
		},
	}
}

// drain flushes pending NATS messages before the connection closes.
func drain(nc *nats.Conn) error {
	closed := make(chan struct{})
	nc.SetClosedHandler(func(*nats.Conn) { close(closed) })

	if err := nc.Drain(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
