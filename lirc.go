// Package lirc provides a Go client for the Linux Infrared Remote Control
// (LIRC) daemon.
package lirc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReplyTimeout is how long [Connection.SendCommand] waits for a reply
// unless [Connection.ReplyTimeout] says otherwise.
const DefaultReplyTimeout = 10 * time.Second

// EventBuffer is the capacity of [Connection.Events].
const EventBuffer = 64

// ErrConnectionClosed is returned by [Connection.Start] when lircd closes the
// connection.
var ErrConnectionClosed = errors.New("lirc: connection closed by lircd")

// Connection is a connection to lircd.
type Connection struct {
	// Events is a channel that will receive ButtonPress events.
	// These events are received asynchronously for as long as [Start] is
	// running. It holds up to EventBuffer presses; presses arriving while it
	// is full are logged and dropped so that replies keep flowing. This
	// channel is never closed.
	Events chan ButtonPress
	// Reloads receives a SIGHUP reply every time lircd reloads its
	// configuration. Notices are dropped if nobody drains the channel. This
	// channel is never closed.
	Reloads chan Reply
	// ReplyTimeout bounds how long SendCommand waits for a reply once the
	// command is written. Zero means DefaultReplyTimeout.
	ReplyTimeout time.Duration

	send   chan sendRequest
	dialer func(context.Context) (net.Conn, error)
}

type sendRequest struct {
	command Command
	result  chan sendResult
}

type sendResult struct {
	pending *Pending
	err     error
}

// NewUnix creates a new lirc connection that connects to lircd using a Unix
// socket.
// Connection will not be established; you must call Start to connect to lircd.
func NewUnix(path string) *Connection {
	return newConnection(func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", path)
	})
}

// NewTCP creates a new lirc connection that connects to lircd using a TCP
// socket.
// Connection will not be established; you must call Start to connect to lircd.
func NewTCP(host string) *Connection {
	return newConnection(func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", host)
	})
}

func newConnection(dialer func(ctx context.Context) (net.Conn, error)) *Connection {
	return &Connection{
		Events:  make(chan ButtonPress, EventBuffer),
		Reloads: make(chan Reply, 1),
		send:    make(chan sendRequest),
		dialer:  dialer,
	}
}

// SendCommand sends a command to lirc daemon and waits for its reply. Several
// commands may be in flight at once. If lircd reports a failure, the reply is
// returned along with [ErrUnsuccessfulCommand].
func (l *Connection) SendCommand(ctx context.Context, command Command) (Reply, error) {
	req := sendRequest{
		command: command,
		result:  make(chan sendResult, 1),
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case l.send <- req:
		// safe to continue
	}

	var res sendResult
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case res = <-req.result:
		if res.err != nil {
			return Reply{}, res.err
		}
	}

	timeout := l.ReplyTimeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return res.pending.Wait(ctx)
}

// RepeatButton tells lircd to keep sending the given button until the returned
// callback is called.
func (l *Connection) RepeatButton(ctx context.Context, remote, button string) (stop func(), err error) {
	if _, err := l.SendCommand(ctx, SendStart{remote, button}); err != nil {
		return nil, err
	}

	return func() {
		l.SendCommand(ctx, SendStop{remote, button})
	}, nil
}

// Start starts the lirc connection. It blocks until the connection is closed or
// ctx is done.
func (l *Connection) Start(ctx context.Context, logger *slog.Logger) error {
	conn, err := l.dialer(ctx)
	if err != nil {
		return fmt.Errorf("cannot dial lircd connection: %w", err)
	}

	logger = logger.With("connection", conn.RemoteAddr().String())

	g, gctx := errgroup.WithContext(ctx)

	proto := NewProtocol(conn, ProtocolHooks{
		OnMessage: func(msg Message) {
			l.dispatch(gctx, logger, msg)
		},
		OnUnparsedLine: func(line string) {
			logger.Warn(
				"ignoring unrecognized line from lircd",
				"line", line)
		},
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			if err := proto.AcceptLine(scanner.Text()); err != nil {
				logger.Error(
					"lirc error",
					"err", err)
			}
		}

		if gctx.Err() != nil {
			return nil
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("error reading from lircd socket: %w", err)
		}
		return ErrConnectionClosed
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil

			case req := <-l.send:
				pending, err := proto.Submit(req.command)
				req.result <- sendResult{pending, err}
				if err != nil {
					return fmt.Errorf("error writing to lircd socket: %w", err)
				}

				logger.Debug(
					"sent command to lircd",
					"command", pending.Command(),
					"pending", proto.PendingCount())
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		if err := conn.Close(); err != nil {
			return fmt.Errorf("error closing lircd connection: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (l *Connection) dispatch(ctx context.Context, logger *slog.Logger, msg Message) {
	switch msg := msg.(type) {
	case ButtonPress:
		select {
		case l.Events <- msg:
		default:
			logger.Warn(
				"dropping button press, nobody is reading events",
				"remote", msg.RemoteControlName,
				"button", msg.ButtonName)
		}

	case Reply:
		if msg.IsSIGHUP() {
			logger.InfoContext(ctx, "lircd has been reloaded")
			select {
			case l.Reloads <- msg:
			default:
			}
			return
		}

		logger.Debug(
			"received reply from lircd",
			"command", msg.Command,
			"status", msg.Status)
	}
}
