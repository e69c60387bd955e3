// Package bridge forwards lircd events to NATS and accepts commands from it.
//
// Button presses are published to <prefix>.button.<remote>.<button> and
// <prefix>.button.all, reload notices to <prefix>.reload. Requests on
// <prefix>.command are sent to lircd and answered with the reply.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"libdb.so/lirc"
)

// Publisher publishes a message on a subject. *nats.Conn implements it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Sender sends a command to lircd. *lirc.Connection implements it.
type Sender interface {
	SendCommand(ctx context.Context, command lirc.Command) (lirc.Reply, error)
}

// Shadow remembers the last button press of each remote.
type Shadow interface {
	Record(ctx context.Context, ev lirc.ButtonPress, at time.Time) error
}

// ButtonEvent is the JSON payload published for a button press.
type ButtonEvent struct {
	Remote string    `json:"remote"`
	Button string    `json:"button"`
	Code   string    `json:"code"`
	Repeat uint      `json:"repeat"`
	Time   time.Time `json:"time"`
}

// ReloadEvent is the JSON payload published when lircd reloads.
type ReloadEvent struct {
	Time time.Time `json:"time"`
}

// CommandRequest is the JSON payload expected on the command subject.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse is the JSON answer to a CommandRequest.
type CommandResponse struct {
	Command string   `json:"command,omitempty"`
	Success bool     `json:"success"`
	Data    []string `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Bridge connects an lircd connection to NATS.
type Bridge struct {
	pub    Publisher
	sender Sender
	shadow Shadow // optional
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a bridge. shadow may be nil.
func New(pub Publisher, sender Sender, shadow Shadow, prefix string, logger *slog.Logger) *Bridge {
	return &Bridge{
		pub:    pub,
		sender: sender,
		shadow: shadow,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

// Subject joins tokens onto the prefix, replacing characters NATS treats
// specially within a token.
func (b *Bridge) Subject(tokens ...string) string {
	parts := make([]string, 0, len(tokens)+1)
	parts = append(parts, b.prefix)
	for _, tok := range tokens {
		parts = append(parts, sanitizeToken(tok))
	}
	return strings.Join(parts, ".")
}

func sanitizeToken(tok string) string {
	if tok == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, tok)
}

// HandleButtonPress publishes ev and records it in the shadow.
func (b *Bridge) HandleButtonPress(ctx context.Context, ev lirc.ButtonPress) error {
	now := b.now()

	data, err := json.Marshal(ButtonEvent{
		Remote: ev.RemoteControlName,
		Button: ev.ButtonName,
		Code:   fmt.Sprintf("%016x", ev.Code),
		Repeat: ev.RepeatCount,
		Time:   now,
	})
	if err != nil {
		return fmt.Errorf("cannot encode button press: %w", err)
	}

	var errs []error
	for _, subject := range []string{
		b.Subject("button", ev.RemoteControlName, ev.ButtonName),
		b.Subject("button", "all"),
	} {
		if err := b.pub.Publish(subject, data); err != nil {
			errs = append(errs, fmt.Errorf("cannot publish to %s: %w", subject, err))
		}
	}

	if b.shadow != nil {
		if err := b.shadow.Record(ctx, ev, now); err != nil {
			errs = append(errs, fmt.Errorf("cannot record shadow: %w", err))
		}
	}

	return errors.Join(errs...)
}

// HandleReload publishes a reload notice.
func (b *Bridge) HandleReload(ctx context.Context) error {
	data, err := json.Marshal(ReloadEvent{Time: b.now()})
	if err != nil {
		return fmt.Errorf("cannot encode reload: %w", err)
	}
	return b.pub.Publish(b.Subject("reload"), data)
}

// HandleCommand decodes a CommandRequest, sends it to lircd and returns the
// encoded CommandResponse. Failures are reported inside the response.
func (b *Bridge) HandleCommand(ctx context.Context, payload []byte) []byte {
	resp := b.handleCommand(ctx, payload)

	data, err := json.Marshal(resp)
	if err != nil {
		// CommandResponse only holds strings and bools.
		panic(fmt.Sprintf("bridge: cannot encode command response: %v", err))
	}
	return data
}

func (b *Bridge) handleCommand(ctx context.Context, payload []byte) CommandResponse {
	var req CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return CommandResponse{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	cmd, err := lirc.ParseCommand(req.Command)
	if err != nil {
		return CommandResponse{Error: err.Error()}
	}

	reply, err := b.sender.SendCommand(ctx, cmd)
	resp := CommandResponse{
		Command: reply.Command,
		Success: err == nil && reply.Success(),
		Data:    reply.Lines(),
	}
	if resp.Command == "" {
		resp.Command = lirc.Serialize(cmd)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Run subscribes to the command subject and forwards events until ctx is
// done.
func (b *Bridge) Run(ctx context.Context, nc *nats.Conn, events <-chan lirc.ButtonPress, reloads <-chan lirc.Reply) error {
	subject := b.Subject("command")

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		resp := b.HandleCommand(ctx, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(resp); err != nil {
			b.logger.Warn(
				"cannot respond to command request",
				"subject", msg.Subject,
				"err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	b.logger.Info(
		"bridge is running",
		"command_subject", subject)

	return b.forward(ctx, events, reloads)
}

func (b *Bridge) forward(ctx context.Context, events <-chan lirc.ButtonPress, reloads <-chan lirc.Reply) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			if err := b.HandleButtonPress(ctx, ev); err != nil {
				b.logger.Error(
					"cannot forward button press",
					"remote", ev.RemoteControlName,
					"button", ev.ButtonName,
					"err", err)
			}

		case <-reloads:
			if err := b.HandleReload(ctx); err != nil {
				b.logger.Error(
					"cannot forward reload notice",
					"err", err)
			}
		}
	}
}
