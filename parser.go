package lirc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParserState is the state of a [ResponseParser].
type ParserState uint8

const (
	StateWaitingBegin ParserState = iota
	StateWaitingType
	StateWaitingSuccess
	StateWaitingData
	StateWaitingDataLength
	StateReadingData
	StateWaitingEnd
	StateValid
)

var parserStateNames = [...]string{
	StateWaitingBegin:      "WaitingBegin",
	StateWaitingType:       "WaitingType",
	StateWaitingSuccess:    "WaitingSuccess",
	StateWaitingData:       "WaitingData",
	StateWaitingDataLength: "WaitingDataLength",
	StateReadingData:       "ReadingData",
	StateWaitingEnd:        "WaitingEnd",
	StateValid:             "Valid",
}

func (s ParserState) String() string {
	if int(s) < len(parserStateNames) {
		return parserStateNames[s]
	}
	return fmt.Sprintf("ParserState(%d)", uint8(s))
}

// maxDataPrealloc bounds how many data lines are allocated up front, since
// the declared length comes from the wire.
const maxDataPrealloc = 64

// ResponseParser assembles a single [Reply] from the lines lircd sends after
// BEGIN. It is fed one line at a time and never waits for more input.
//
// A ResponseParser is not safe for concurrent use.
type ResponseParser struct {
	state     ParserState
	reply     Reply
	data      []string
	remaining uint64
}

// NewResponseParser returns a parser waiting for BEGIN.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{state: StateWaitingBegin}
}

// State returns the current state.
func (p *ResponseParser) State() ParserState {
	return p.state
}

// Valid returns true once the reply is complete.
func (p *ResponseParser) Valid() bool {
	return p.state == StateValid
}

// Reply returns the reply parsed so far. It is only final once [Valid]
// returns true.
func (p *ResponseParser) Reply() Reply {
	r := p.reply
	if p.state == StateReadingData {
		r.Data = strings.Join(p.data, "\n")
	}
	return r
}

func (p *ResponseParser) fail(line, reason string) *ParseError {
	return &ParseError{
		State:  p.state,
		Line:   line,
		Reason: reason,
	}
}

// ParseLine feeds the next line to the parser. A trailing line terminator is
// ignored. On error the parser is left untouched, so the same parser may be
// fed a different line afterwards.
func (p *ResponseParser) ParseLine(line string) error {
	line = chomp(line)

	switch p.state {
	case StateWaitingBegin:
		if line != "BEGIN" {
			return p.fail(line, "expecting BEGIN")
		}
		p.state = StateWaitingType

	case StateWaitingType:
		if line == SIGHUP {
			p.reply.Command = line
			p.state = StateWaitingEnd
			return nil
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			return p.fail(line, "expecting a command name or SIGHUP")
		}
		if _, ok := LookupKind(words[0]); !ok {
			return p.fail(line, "expecting a command name or SIGHUP")
		}

		p.reply.Command = line
		p.state = StateWaitingSuccess

	case StateWaitingSuccess:
		switch line {
		case "SUCCESS":
			p.reply.Status = StatusSuccess
		case "ERROR":
			p.reply.Status = StatusError
		default:
			return p.fail(line, "expecting SUCCESS or ERROR")
		}
		p.state = StateWaitingData

	case StateWaitingData:
		switch line {
		case "DATA":
			p.state = StateWaitingDataLength
		case "END":
			p.state = StateValid
		default:
			return p.fail(line, "expecting DATA or END")
		}

	case StateWaitingDataLength:
		n, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return p.fail(line, "expecting a data line count")
		}

		p.remaining = n
		p.data = make([]string, 0, min(n, maxDataPrealloc))
		p.reply.HasData = true
		p.state = StateReadingData

	case StateReadingData:
		if p.remaining > 0 {
			p.data = append(p.data, line)
			p.remaining--
			return nil
		}

		if line != "END" {
			return p.fail(line, "more data than declared, expecting END")
		}

		p.reply.Data = strings.Join(p.data, "\n")
		p.data = nil
		p.state = StateValid

	case StateWaitingEnd:
		if line != "END" {
			return p.fail(line, "expecting END")
		}
		p.state = StateValid

	case StateValid:
		err := p.fail(line, "reply already complete")
		err.err = ErrAlreadyComplete
		return err

	default:
		panic(fmt.Sprintf("lirc: invalid parser state %d", p.state))
	}

	return nil
}

func chomp(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
