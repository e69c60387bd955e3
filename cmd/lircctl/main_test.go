package main

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"libdb.so/lirc"
)

// fakeReplies maps command lines to the raw replies the fake lircd writes.
var fakeReplies = map[string]string{
	"VERSION": "BEGIN\nVERSION\nSUCCESS\nDATA\n1\n0.10.1\nEND\n",
	"LIST":    "BEGIN\nLIST\nSUCCESS\nDATA\n2\nPS2\nANIMAX\nEND\n",
	"LIST PS2": "BEGIN\nLIST PS2\nSUCCESS\nDATA\n2\n" +
		"000000000000f50a KEY_POWER\n000000000000750a KEY_EJECTCD\nEND\n",
	"SEND_ONCE PS2 KEY_POWER 3": "BEGIN\nSEND_ONCE PS2 KEY_POWER 3\nSUCCESS\nEND\n",
	"SEND_ONCE nope KEY_POWER": "BEGIN\nSEND_ONCE nope KEY_POWER\nERROR\nDATA\n1\n" +
		"unknown remote: \"nope\"\nEND\n",
}

// startFakeLircd serves fakeReplies on a Unix socket and returns its path.
func startFakeLircd(t *testing.T) string {
	t.Helper()

	// t.TempDir can exceed the Unix socket path limit.
	dir, err := os.MkdirTemp("", "lircctl")
	assert.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "lircd")
	ln, err := net.Listen("unix", path)
	assert.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFake(conn)
		}
	}()

	return path
}

func serveFake(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		reply, ok := fakeReplies[scanner.Text()]
		if !ok {
			reply = "BEGIN\n" + scanner.Text() + "\nERROR\nDATA\n1\nbad command\nEND\n"
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
	}
}

func runLircctl(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	root := newRootCmd()
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)

	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestCommands(t *testing.T) {
	path := startFakeLircd(t)

	tests := []struct {
		name string
		args []string
		out  string
	}{
		{
			name: "version",
			args: []string{"version"},
			out:  "0.10.1\n",
		},
		{
			name: "list remotes",
			args: []string{"list"},
			out:  "PS2\nANIMAX\n",
		},
		{
			name: "list buttons",
			args: []string{"list", "PS2"},
			out:  "000000000000f50a KEY_POWER\n000000000000750a KEY_EJECTCD\n",
		},
		{
			name: "send once with repeats",
			args: []string{"send-once", "--repeats", "3", "PS2", "KEY_POWER"},
			out:  "",
		},
		{
			name: "raw",
			args: []string{"raw", "LIST", "PS2"},
			out:  "000000000000f50a KEY_POWER\n000000000000750a KEY_EJECTCD\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := append([]string{"--address", path, "--log-level", "debug"}, test.args...)
			out, _, err := runLircctl(t, args...)
			assert.NoError(t, err)
			assert.Equal(t, test.out, out)
		})
	}
}

func TestCommandRejected(t *testing.T) {
	path := startFakeLircd(t)

	out, stderr, err := runLircctl(t, "--address", path, "send-once", "nope", "KEY_POWER")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, lirc.ErrUnsuccessfulCommand), "got %v", err)
	assert.Equal(t, "", out)
	assert.Contains(t, stderr, `unknown remote: "nope"`)
}

func TestRawInvalid(t *testing.T) {
	path := startFakeLircd(t)

	_, _, err := runLircctl(t, "--address", path, "raw", "FROBNICATE")
	assert.True(t, errors.Is(err, lirc.ErrUnknownCommand), "got %v", err)

	_, _, err = runLircctl(t, "--address", path, "raw", "SEND_ONCE", "PS2")
	assert.True(t, errors.Is(err, lirc.ErrInvalidCommand), "got %v", err)
}

func TestDialFailure(t *testing.T) {
	dir, err := os.MkdirTemp("", "lircctl")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	_, _, err = runLircctl(t, "--address", filepath.Join(dir, "missing"), "version")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot dial lircd connection")
}

func TestConfigCommand(t *testing.T) {
	out, _, err := runLircctl(t, "--address", "lircd.example:8765", "--network", "tcp", "config")
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "network: tcp\n"), "got %q", out)
	assert.True(t, strings.Contains(out, "lircd.example:8765"), "got %q", out)
	assert.True(t, strings.Contains(out, "reply_timeout: 10s\n"), "got %q", out)
}

func TestWatchOutputFormat(t *testing.T) {
	var buf bytes.Buffer

	_, err := newEventPrinter(&buf, "xml")
	assert.Error(t, err)

	for _, test := range []struct {
		format string
		want   string
	}{
		{"text", "000000000000f50a 0 KEY_POWER PS2\nSIGHUP\n"},
		{"json", `{"type":"button","remote":"PS2","button":"KEY_POWER","code":"000000000000f50a","repeat":0}` + "\n" +
			`{"type":"reload","repeat":0}` + "\n"},
	} {
		t.Run(test.format, func(t *testing.T) {
			buf.Reset()
			p, err := newEventPrinter(&buf, test.format)
			assert.NoError(t, err)
			assert.NoError(t, p.print(watchEvent{
				Type:   "button",
				Remote: "PS2",
				Button: "KEY_POWER",
				Code:   "000000000000f50a",
			}))
			assert.NoError(t, p.print(watchEvent{Type: "reload"}))
			assert.NoError(t, p.close())
			assert.Equal(t, test.want, buf.String())
		})
	}
}
