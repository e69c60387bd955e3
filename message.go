package lirc

import (
	"errors"
	"fmt"
	"strings"
)

// Message is something received from lircd: either a [Reply] or a
// [ButtonPress].
type Message interface {
	message()
}

// ButtonPress represents the IR Remote Key Press ButtonPress
type ButtonPress struct {
	// Code is a 16 hexadecimal digits number encoding of the IR signal.
	// It's usage in applications is deprecated and it should be ignored.
	Code uint64
	// RepeatCount shows how long the user has been holding down a button.
	// The counter will start at 0 and increment each time a new IR signal has been received.
	RepeatCount uint
	// ButtonName is the name of a key defined in the lircd.conf file.
	ButtonName string
	// RemoteControlName is the mandatory name attribute in the lircd.conf config file.
	RemoteControlName string
}

// Status is the outcome reported in a [Reply].
type Status uint8

const (
	// StatusNone means the reply carried no status. Only SIGHUP replies have
	// no status.
	StatusNone Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// SIGHUP is the command of the reply lircd sends to every client after it
// reloaded its configuration.
const SIGHUP = "SIGHUP"

// Reply is the message received after sending a command, or the unsolicited
// notice sent when lircd reloads.
type Reply struct {
	// Command is the command line echoed back by lircd, e.g.
	// "SEND_ONCE remote button", or [SIGHUP].
	Command string
	// Status is whether the command was successful.
	Status Status
	// Data is the data received from lircd, joined with newlines.
	Data string
	// HasData is true if the reply had a DATA section, even an empty one.
	HasData bool
}

// Success returns true if lircd reported the command as successful.
func (r Reply) Success() bool {
	return r.Status == StatusSuccess
}

// IsSIGHUP returns true if the reply is a reload notice.
func (r Reply) IsSIGHUP() bool {
	return r.Command == SIGHUP
}

// Lines returns the data section split into its lines. It returns nil if the
// data section was absent or empty.
func (r Reply) Lines() []string {
	if r.Data == "" {
		return nil
	}
	return strings.Split(r.Data, "\n")
}

func (Reply) message()       {}
func (ButtonPress) message() {}

var (
	// ErrUnsuccessfulCommand is returned with a reply when a command was not successful.
	ErrUnsuccessfulCommand = errors.New("lirc: unsuccessful command")
	// ErrMalformedButtonPress is returned when a button press line has the
	// wrong shape.
	ErrMalformedButtonPress = errors.New("lirc: malformed button press")
	// ErrAlreadyComplete is wrapped by the [ParseError] returned when a line
	// is fed to a parser that has already finished its reply.
	ErrAlreadyComplete = errors.New("lirc: reply already complete")
)

// ParseError is returned when a reply line violates the reply grammar. The
// parser is left exactly as it was before the offending line.
type ParseError struct {
	// State is the state the parser was in.
	State ParserState
	// Line is the offending line.
	Line string
	// Reason describes what was expected instead.
	Reason string

	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lirc: invalid reply line in state %s: %s, got %q", e.State, e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.err
}
