package lirc

import (
	"context"
	"io"
	"sync"
)

// ProtocolHooks are the callbacks invoked by a [Protocol]. Both are optional.
type ProtocolHooks struct {
	// OnMessage receives every complete [Reply] and [ButtonPress], including
	// replies that were not requested through this Protocol and SIGHUP
	// notices.
	OnMessage func(Message)
	// OnUnparsedLine receives lines that are neither part of a reply nor a
	// button press. Such lines are dropped otherwise.
	OnUnparsedLine func(line string)
}

// Protocol is the lircd line protocol without the socket. Lines read from
// lircd are fed in with [Protocol.AcceptLine]; commands are written out with
// [Protocol.Submit], which returns a handle that resolves once lircd replies.
//
// lircd only echoes the command line back, so replies are matched to requests
// by their serialized text. Submitting a command while an identical one is
// still waiting returns the same [Pending].
//
// All methods are safe for concurrent use, but lines must be fed in the order
// they were received.
type Protocol struct {
	w     io.Writer
	hooks ProtocolHooks

	mu      sync.Mutex
	parser  *ResponseParser
	pending map[string]*Pending
	wmu     sync.Mutex
}

// NewProtocol creates a Protocol that writes commands to w.
func NewProtocol(w io.Writer, hooks ProtocolHooks) *Protocol {
	return &Protocol{
		w:       w,
		hooks:   hooks,
		pending: make(map[string]*Pending),
	}
}

// AcceptLine processes one line received from lircd. It returns a
// [*ParseError] if the line breaks the reply grammar, in which case the
// partial reply is discarded, or an error wrapping [ErrMalformedButtonPress].
// Lines that can't be classified are passed to OnUnparsedLine and are not an
// error.
func (p *Protocol) AcceptLine(line string) error {
	line = chomp(line)

	p.mu.Lock()
	if p.parser != nil || line == "BEGIN" {
		reply, done, err := p.parseReplyLine(line)
		var pending *Pending
		if done {
			pending = p.pending[reply.Command]
			delete(p.pending, reply.Command)
		}
		p.mu.Unlock()

		if err != nil || !done {
			return err
		}

		if pending != nil {
			pending.resolve(reply)
		}
		p.emit(reply)
		return nil
	}
	p.mu.Unlock()

	if looksLikeButtonPress(line) {
		ev, err := ParseButtonPress(line)
		if err != nil {
			return err
		}
		p.emit(ev)
		return nil
	}

	if p.hooks.OnUnparsedLine != nil {
		p.hooks.OnUnparsedLine(line)
	}
	return nil
}

// parseReplyLine must be called with mu held.
func (p *Protocol) parseReplyLine(line string) (Reply, bool, error) {
	if p.parser == nil {
		p.parser = NewResponseParser()
	}

	if err := p.parser.ParseLine(line); err != nil {
		p.parser = nil
		return Reply{}, false, err
	}

	if !p.parser.Valid() {
		return Reply{}, false, nil
	}

	reply := p.parser.Reply()
	p.parser = nil
	return reply, true, nil
}

func (p *Protocol) emit(msg Message) {
	if p.hooks.OnMessage != nil {
		p.hooks.OnMessage(msg)
	}
}

// Submit writes the command to lircd and returns a handle for its reply. It
// never waits for the reply itself.
func (p *Protocol) Submit(cmd Command) (*Pending, error) {
	text := Serialize(cmd)

	p.mu.Lock()
	pending, ok := p.pending[text]
	if !ok {
		pending = newPending(text)
		p.pending[text] = pending
	}
	pending.writers++
	p.mu.Unlock()

	p.wmu.Lock()
	_, err := io.WriteString(p.w, text+"\n")
	p.wmu.Unlock()

	if err != nil {
		// The entry stays as long as another Submit of the same text is
		// writing or has written it.
		p.mu.Lock()
		pending.writers--
		if pending.writers == 0 && p.pending[text] == pending {
			delete(p.pending, text)
		}
		p.mu.Unlock()
		return nil, err
	}

	return pending, nil
}

// PendingCount returns the number of commands still waiting for a reply.
func (p *Protocol) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Pending is a command waiting for its reply.
type Pending struct {
	command string
	done    chan struct{}
	reply   Reply
	err     error

	writers int // guarded by Protocol.mu
}

func newPending(command string) *Pending {
	return &Pending{
		command: command,
		done:    make(chan struct{}),
	}
}

// Command returns the serialized command.
func (p *Pending) Command() string {
	return p.command
}

// Done returns a channel that is closed once the reply has arrived.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the reply. It must only be called after Done is closed. The
// error is [ErrUnsuccessfulCommand] if lircd reported a failure.
func (p *Pending) Result() (Reply, error) {
	return p.reply, p.err
}

// Wait blocks until the reply arrives or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-p.done:
		return p.reply, p.err
	}
}

// resolve is only called by the goroutine that removed p from the table, so
// it runs at most once.
func (p *Pending) resolve(reply Reply) {
	p.reply = reply
	if !reply.Success() {
		p.err = ErrUnsuccessfulCommand
	}
	close(p.done)
}
