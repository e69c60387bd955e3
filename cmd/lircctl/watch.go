package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"libdb.so/lirc"
)

type watchEvent struct {
	Type   string `json:"type" yaml:"type"`
	Remote string `json:"remote,omitempty" yaml:"remote,omitempty"`
	Button string `json:"button,omitempty" yaml:"button,omitempty"`
	Code   string `json:"code,omitempty" yaml:"code,omitempty"`
	Repeat uint   `json:"repeat" yaml:"repeat"`
}

// eventPrinter writes watch events in one of the supported formats.
type eventPrinter struct {
	w    io.Writer
	json *json.Encoder
	yaml *yaml.Encoder
}

func newEventPrinter(w io.Writer, format string) (*eventPrinter, error) {
	p := &eventPrinter{w: w}
	switch format {
	case "text":
	case "json":
		p.json = json.NewEncoder(w)
	case "yaml":
		p.yaml = yaml.NewEncoder(w)
	default:
		return nil, fmt.Errorf("unknown output format %q, expected text, json or yaml", format)
	}
	return p, nil
}

func (p *eventPrinter) print(ev watchEvent) error {
	switch {
	case p.json != nil:
		return p.json.Encode(ev)
	case p.yaml != nil:
		return p.yaml.Encode(ev)
	case ev.Type == "reload":
		_, err := fmt.Fprintln(p.w, lirc.SIGHUP)
		return err
	default:
		_, err := fmt.Fprintf(p.w, "%s %d %s %s\n", ev.Code, ev.Repeat, ev.Button, ev.Remote)
		return err
	}
}

func (p *eventPrinter) close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		format string
		remote string
		button string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print button presses and reloads until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := newEventPrinter(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			defer printer.close()

			var printErr error
			handlers := lirc.RemoteHandlers{
				remote: lirc.ButtonHandlers{
					button: func(ev lirc.ButtonPress) {
						printErr = printer.print(watchEvent{
							Type:   "button",
							Remote: ev.RemoteControlName,
							Button: ev.ButtonName,
							Code:   fmt.Sprintf("%016x", ev.Code),
							Repeat: ev.RepeatCount,
						})
					},
				},
			}

			return a.withConnection(cmd.Context(), func(ctx context.Context, conn *lirc.Connection) error {
				for {
					select {
					case <-ctx.Done():
						return nil

					case ev := <-conn.Events:
						handlers.Dispatch(ev)

					case <-conn.Reloads:
						printErr = printer.print(watchEvent{Type: "reload"})
					}

					if printErr != nil {
						return printErr
					}
				}
			})
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&remote, "remote", "*", "only print presses of remotes matching this pattern")
	cmd.Flags().StringVar(&button, "button", "*", "only print presses of buttons matching this pattern")
	return cmd
}
