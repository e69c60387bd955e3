package lirc_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"libdb.so/lirc"
)

func TestScreamingSnake(t *testing.T) {
	for ident, want := range map[string]string{
		"HypotheticalFutureCommand": "HYPOTHETICAL_FUTURE_COMMAND",
		"SendOnce":                  "SEND_ONCE",
		"SetInputlog":               "SET_INPUTLOG",
		"Version":                   "VERSION",
		"TestStruct":                "TEST_STRUCT",
	} {
		assert.Equal(t, want, lirc.ScreamingSnake(ident), ident)
	}
}

func TestKinds(t *testing.T) {
	var names []string
	for _, k := range lirc.Kinds() {
		names = append(names, k.String())

		back, ok := lirc.LookupKind(k.String())
		assert.True(t, ok, "lookup %s", k)
		assert.Equal(t, k, back)
	}

	assert.Equal(t, []string{
		"SEND_ONCE",
		"SEND_START",
		"SEND_STOP",
		"LIST",
		"SET_INPUTLOG",
		"DRV_OPTION",
		"SIMULATE",
		"SET_TRANSMITTERS",
		"VERSION",
	}, names)

	_, ok := lirc.LookupKind("SIGHUP")
	assert.False(t, ok, "SIGHUP is not a command")
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		command lirc.Command
		want    string
	}{
		{lirc.SendOnce{RemoteControl: "cool_remote", ButtonName: "eject"}, "SEND_ONCE cool_remote eject"},
		{lirc.SendOnce{RemoteControl: "cool_remote", ButtonName: "eject", Repeats: 100}, "SEND_ONCE cool_remote eject 100"},
		{lirc.SendStart{RemoteControl: "cool_remote", ButtonName: "eject"}, "SEND_START cool_remote eject"},
		{lirc.SendStop{RemoteControl: "cool_remote", ButtonName: "eject"}, "SEND_STOP cool_remote eject"},
		{lirc.List{}, "LIST"},
		{lirc.List{RemoteControl: "PS2"}, "LIST PS2"},
		{lirc.SetInputLog{}, "SET_INPUTLOG"},
		{lirc.SetInputLog{Path: "/tmp/ir.log"}, "SET_INPUTLOG /tmp/ir.log"},
		{lirc.DrvOption{Key: "device", Value: "/dev/lirc1"}, "DRV_OPTION device /dev/lirc1"},
		{lirc.Simulate{Key: "0000000000f40bf0", Data: "00 KEY_UP ANIMAX"}, "SIMULATE 0000000000f40bf0 00 KEY_UP ANIMAX"},
		{lirc.SetTransmitters{Transmitter: "1", Mask: "3"}, "SET_TRANSMITTERS 1 3"},
		{lirc.SetTransmitters{Transmitter: "1"}, "SET_TRANSMITTERS 1"},
		{lirc.Version{}, "VERSION"},
		// Absent fields are skipped wherever they are.
		{lirc.SendStart{ButtonName: "eject"}, "SEND_START eject"},
		{lirc.DrvOption{}, "DRV_OPTION"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, lirc.Serialize(test.command), "%#v", test.command)
	}
}

func TestParseCommand(t *testing.T) {
	for _, line := range []string{
		"SEND_ONCE cool_remote eject",
		"SEND_ONCE cool_remote eject 100",
		"SEND_START PS2 Reset",
		"SEND_STOP PS2 Reset",
		"LIST",
		"LIST PS2",
		"SET_INPUTLOG",
		"SET_INPUTLOG /tmp/ir.log",
		"DRV_OPTION device /dev/lirc1",
		"SIMULATE 0000111144443333 1 TEST TEST",
		"SET_TRANSMITTERS 1 3",
		"VERSION",
	} {
		cmd, err := lirc.ParseCommand(line)
		assert.NoError(t, err, line)
		assert.Equal(t, line, lirc.Serialize(cmd), "round trip")
	}

	cmd, err := lirc.ParseCommand("  SEND_ONCE   tv   power ")
	assert.NoError(t, err)
	assert.Equal(t, lirc.Command(lirc.SendOnce{RemoteControl: "tv", ButtonName: "power"}), cmd)

	for line, want := range map[string]error{
		"":                        lirc.ErrUnknownCommand,
		"send_once tv power":      lirc.ErrUnknownCommand,
		"SIGHUP":                  lirc.ErrUnknownCommand,
		"SEND_ONCE tv":            lirc.ErrInvalidCommand,
		"SEND_ONCE tv power many": lirc.ErrInvalidCommand,
		"SEND_START tv power 3":   lirc.ErrInvalidCommand,
		"LIST a b":                lirc.ErrInvalidCommand,
		"VERSION now":             lirc.ErrInvalidCommand,
		"SIMULATE 0000":           lirc.ErrInvalidCommand,
		"SET_TRANSMITTERS":        lirc.ErrInvalidCommand,
	} {
		_, err := lirc.ParseCommand(line)
		assert.IsError(t, err, want, "%q", line)
	}
}
