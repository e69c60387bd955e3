package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"libdb.so/lirc"
)

// newCommandCmd creates a subcommand that sends the command built from its
// arguments and prints the reply data.
func newCommandCmd(a *app, cmd *cobra.Command, build func(args []string) (lirc.Command, error)) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		command, err := build(args)
		if err != nil {
			return err
		}
		return a.send(cmd, command)
	}
	return cmd
}

func (a *app) send(cmd *cobra.Command, command lirc.Command) error {
	return a.withConnection(cmd.Context(), func(ctx context.Context, conn *lirc.Connection) error {
		reply, err := conn.SendCommand(ctx, command)
		if err != nil && !errors.Is(err, lirc.ErrUnsuccessfulCommand) {
			return fmt.Errorf("cannot send %s: %w", command.Kind(), err)
		}

		out := cmd.OutOrStdout()
		if err != nil {
			out = cmd.ErrOrStderr()
		}
		if perr := printLines(out, reply.Lines()); perr != nil {
			return perr
		}

		if err != nil {
			return fmt.Errorf("lircd rejected %q: %w", lirc.Serialize(command), err)
		}
		return nil
	})
}

func printLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newSendOnceCmd(a *app) *cobra.Command {
	var repeats uint
	cmd := newCommandCmd(a, &cobra.Command{
		Use:   "send-once REMOTE BUTTON",
		Short: "Send a button press once",
		Args:  cobra.ExactArgs(2),
	}, func(args []string) (lirc.Command, error) {
		return lirc.SendOnce{RemoteControl: args[0], ButtonName: args[1], Repeats: repeats}, nil
	})
	cmd.Flags().UintVarP(&repeats, "repeats", "r", 0, "number of times to repeat the signal")
	return cmd
}

func newSendStartCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "send-start REMOTE BUTTON",
		Short: "Start repeating a button until send-stop",
		Args:  cobra.ExactArgs(2),
	}, func(args []string) (lirc.Command, error) {
		return lirc.SendStart{RemoteControl: args[0], ButtonName: args[1]}, nil
	})
}

func newSendStopCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "send-stop REMOTE BUTTON",
		Short: "Stop repeating a button",
		Args:  cobra.ExactArgs(2),
	}, func(args []string) (lirc.Command, error) {
		return lirc.SendStop{RemoteControl: args[0], ButtonName: args[1]}, nil
	})
}

func newListCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "list [REMOTE]",
		Short: "List remotes, or the buttons of a remote",
		Args:  cobra.MaximumNArgs(1),
	}, func(args []string) (lirc.Command, error) {
		var cmd lirc.List
		if len(args) == 1 {
			cmd.RemoteControl = args[0]
		}
		return cmd, nil
	})
}

func newVersionCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "version",
		Short: "Print the lircd version",
		Args:  cobra.NoArgs,
	}, func([]string) (lirc.Command, error) {
		return lirc.Version{}, nil
	})
}

func newSetInputLogCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "set-inputlog [PATH]",
		Short: "Log received IR data to PATH, or stop logging",
		Args:  cobra.MaximumNArgs(1),
	}, func(args []string) (lirc.Command, error) {
		var cmd lirc.SetInputLog
		if len(args) == 1 {
			cmd.Path = args[0]
		}
		return cmd, nil
	})
}

func newDrvOptionCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "drv-option KEY VALUE",
		Short: "Set a driver option",
		Args:  cobra.ExactArgs(2),
	}, func(args []string) (lirc.Command, error) {
		return lirc.DrvOption{Key: args[0], Value: args[1]}, nil
	})
}

func newSimulateCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "simulate KEY DATA...",
		Short: "Make lircd broadcast a fake button press",
		Long: "Make lircd broadcast a fake button press. lircd must run with " +
			"--allow-simulate. Example: simulate 0000000000f40bf0 00 KEY_UP ANIMAX",
		Args: cobra.MinimumNArgs(2),
	}, func(args []string) (lirc.Command, error) {
		return lirc.Simulate{Key: args[0], Data: strings.Join(args[1:], " ")}, nil
	})
}

func newSetTransmittersCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "set-transmitters TRANSMITTER [MASK]",
		Short: "Select the transmitters used for sending",
		Args:  cobra.RangeArgs(1, 2),
	}, func(args []string) (lirc.Command, error) {
		cmd := lirc.SetTransmitters{Transmitter: args[0]}
		if len(args) == 2 {
			cmd.Mask = args[1]
		}
		return cmd, nil
	})
}

func newRawCmd(a *app) *cobra.Command {
	return newCommandCmd(a, &cobra.Command{
		Use:   "raw LINE...",
		Short: "Send a command given in lircd's own syntax, e.g. raw LIST PS2",
		Args:  cobra.MinimumNArgs(1),
	}, func(args []string) (lirc.Command, error) {
		return lirc.ParseCommand(strings.Join(args, " "))
	})
}
