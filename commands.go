package lirc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Kind identifies one of the commands understood by lircd.
type Kind uint8

const (
	KindSendOnce Kind = iota
	KindSendStart
	KindSendStop
	KindList
	KindSetInputLog
	KindDrvOption
	KindSimulate
	KindSetTransmitters
	KindVersion
	kindCount
)

// kindIdentifiers holds the identifier each wire name is derived from.
// SET_INPUTLOG is a single word on the wire, hence the lower-case l.
var kindIdentifiers = [kindCount]string{
	KindSendOnce:        "SendOnce",
	KindSendStart:       "SendStart",
	KindSendStop:        "SendStop",
	KindList:            "List",
	KindSetInputLog:     "SetInputlog",
	KindDrvOption:       "DrvOption",
	KindSimulate:        "Simulate",
	KindSetTransmitters: "SetTransmitters",
	KindVersion:         "Version",
}

var (
	kindNames   [kindCount]string
	kindsByName = make(map[string]Kind, kindCount)
)

func init() {
	for k, ident := range kindIdentifiers {
		name := ScreamingSnake(ident)
		kindNames[k] = name
		kindsByName[name] = Kind(k)
	}
}

// String returns the wire name of the command, e.g. "SEND_ONCE".
func (k Kind) String() string {
	if k >= kindCount {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Kinds returns every command kind.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// LookupKind returns the kind whose wire name is name.
func LookupKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// ScreamingSnake rewrites a mixed-case identifier such as "SendOnce" into
// "SEND_ONCE" by splitting before every upper-case letter after the first.
func ScreamingSnake(ident string) string {
	var b strings.Builder
	b.Grow(len(ident) + 4)
	for i, r := range ident {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Command describes a command that can be sent to lirc. The set of commands is
// closed; see [Kinds].
type Command interface {
	// Kind returns the kind of the command.
	Kind() Kind
	command()
}

// SendOnce tells lircd to send the IR signal associated with the given remote
// control and button name, and then repeat it repeats times. repeats is a
// decimal number between 0 and repeat_max. The latter can be given as a
// --repeat-max command line argument to lircd, and defaults to 600. If repeats
// is not specified or is less than the minimum number of repeats for the
// selected remote control, the minimum value will be used.
type SendOnce struct {
	RemoteControl string
	ButtonName    string
	Repeats       uint // optional
}

// SendStart tells lircd to start repeating the given button until it receives a
// [SendStop] command. However, the number of repeats is limited to repeat_max.
// lircd won't accept any new send commands while it is repeating.
type SendStart struct {
	RemoteControl string
	ButtonName    string
}

// SendStop tells lircd to abort a [SendStart] command.
type SendStop struct {
	RemoteControl string
	ButtonName    string
}

// List returns a list of all defined remote controls, or the buttons of
// RemoteControl if it is set.
type List struct {
	RemoteControl string // optional
}

// SetInputLog starts logging all received data on that file. The log is printable
// lines as defined in mode2(1) describing pulse/space durations. An empty Path
// stops logging.
type SetInputLog struct {
	Path string
}

// DrvOption makes lircd invoke the drvctl_func(DRVCTL_SET_OPTION, option) with
// option being made up by the parsed key and value. The return package reflects
// the outcome of the drvctl_func call.
type DrvOption struct {
	Key   string
	Value string
}

// Simulate instructs lircd to send this to all clients i. e., to simulate that
// this key has been decoded. The key data must be formatted exactly as the packet
// described in [SOCKET BROADCAST MESSAGES FORMAT], notably is the number of digits
// in code and repeat count hardcoded. This command is only accepted if the
// --allow-simulate command line option is active.
type Simulate struct {
	Key  string
	Data string
}

// SetTransmitters makes lircd invoke the drvctl_func(LIRC_SET_TRANSMITTER_MASK,
// &channels), where channels is the decoded value of transmitter mask. See lirc(4)
// for more information.
type SetTransmitters struct {
	Transmitter string
	Mask        string
}

// Version tells lircd to send a version packet response.
type Version struct{}

func (SendOnce) Kind() Kind        { return KindSendOnce }
func (SendStart) Kind() Kind       { return KindSendStart }
func (SendStop) Kind() Kind        { return KindSendStop }
func (List) Kind() Kind            { return KindList }
func (SetInputLog) Kind() Kind     { return KindSetInputLog }
func (DrvOption) Kind() Kind       { return KindDrvOption }
func (Simulate) Kind() Kind        { return KindSimulate }
func (SetTransmitters) Kind() Kind { return KindSetTransmitters }
func (Version) Kind() Kind         { return KindVersion }

func (SendOnce) command()        {}
func (SendStart) command()       {}
func (SendStop) command()        {}
func (List) command()            {}
func (SetInputLog) command()     {}
func (DrvOption) command()       {}
func (Simulate) command()        {}
func (SetTransmitters) command() {}
func (Version) command()         {}

// Serialize encodes the command as a single line without the trailing newline.
// Empty fields are left out entirely, as is a zero SendOnce.Repeats.
func Serialize(cmd Command) string {
	var fields []string
	switch cmd := cmd.(type) {
	case SendOnce:
		var repeats string
		if cmd.Repeats > 0 {
			repeats = strconv.FormatUint(uint64(cmd.Repeats), 10)
		}
		fields = []string{cmd.RemoteControl, cmd.ButtonName, repeats}
	case SendStart:
		fields = []string{cmd.RemoteControl, cmd.ButtonName}
	case SendStop:
		fields = []string{cmd.RemoteControl, cmd.ButtonName}
	case List:
		fields = []string{cmd.RemoteControl}
	case SetInputLog:
		fields = []string{cmd.Path}
	case DrvOption:
		fields = []string{cmd.Key, cmd.Value}
	case Simulate:
		fields = []string{cmd.Key, cmd.Data}
	case SetTransmitters:
		fields = []string{cmd.Transmitter, cmd.Mask}
	case Version:
	}

	var b strings.Builder
	b.WriteString(cmd.Kind().String())
	for _, f := range fields {
		if f == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

var (
	// ErrUnknownCommand is returned by [ParseCommand] when the command name is
	// not one lircd understands.
	ErrUnknownCommand = errors.New("lirc: unknown command")
	// ErrInvalidCommand is returned by [ParseCommand] when the arguments don't
	// fit the command.
	ErrInvalidCommand = errors.New("lirc: invalid command arguments")
)

// ParseCommand parses a line in the format produced by [Serialize].
func ParseCommand(line string) (Command, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	kind, ok := LookupKind(words[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, words[0])
	}

	args := words[1:]
	argc := func(lo, hi int) error {
		if len(args) < lo || len(args) > hi {
			if lo == hi {
				return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidCommand, kind, lo, len(args))
			}
			return fmt.Errorf("%w: %s takes %d to %d arguments, got %d", ErrInvalidCommand, kind, lo, hi, len(args))
		}
		return nil
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch kind {
	case KindSendOnce:
		if err := argc(2, 3); err != nil {
			return nil, err
		}
		var repeats uint64
		if len(args) == 3 {
			var err error
			repeats, err = strconv.ParseUint(args[2], 10, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid repeat count %q", ErrInvalidCommand, args[2])
			}
		}
		return SendOnce{args[0], args[1], uint(repeats)}, nil
	case KindSendStart:
		if err := argc(2, 2); err != nil {
			return nil, err
		}
		return SendStart{args[0], args[1]}, nil
	case KindSendStop:
		if err := argc(2, 2); err != nil {
			return nil, err
		}
		return SendStop{args[0], args[1]}, nil
	case KindList:
		if err := argc(0, 1); err != nil {
			return nil, err
		}
		return List{arg(0)}, nil
	case KindSetInputLog:
		if err := argc(0, 1); err != nil {
			return nil, err
		}
		return SetInputLog{arg(0)}, nil
	case KindDrvOption:
		if err := argc(2, 2); err != nil {
			return nil, err
		}
		return DrvOption{args[0], args[1]}, nil
	case KindSimulate:
		// The simulated packet contains spaces itself.
		if len(args) < 2 {
			return nil, argc(2, 2)
		}
		return Simulate{args[0], strings.Join(args[1:], " ")}, nil
	case KindSetTransmitters:
		if err := argc(1, 2); err != nil {
			return nil, err
		}
		return SetTransmitters{args[0], arg(1)}, nil
	case KindVersion:
		if err := argc(0, 0); err != nil {
			return nil, err
		}
		return Version{}, nil
	}

	panic("unreachable")
}
