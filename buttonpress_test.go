package lirc_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"libdb.so/lirc"
)

func TestParseButtonPress(t *testing.T) {
	tests := []struct {
		line string
		want lirc.ButtonPress
	}{
		{
			"1234567890abcdef 325 R1 PS2",
			lirc.ButtonPress{Code: 0x1234567890abcdef, RepeatCount: 325, ButtonName: "R1", RemoteControlName: "PS2"},
		},
		{
			"0000000000f40bf0 00 KEY_UP ANIMAX",
			lirc.ButtonPress{Code: 0xf40bf0, RepeatCount: 0, ButtonName: "KEY_UP", RemoteControlName: "ANIMAX"},
		},
		{
			"FFFFFFFFFFFFFFFF 1 KEY_POWER tv",
			lirc.ButtonPress{Code: 0xFFFFFFFFFFFFFFFF, RepeatCount: 1, ButtonName: "KEY_POWER", RemoteControlName: "tv"},
		},
		{
			"00000000deadbeef 7\tKEY_OK  tv",
			lirc.ButtonPress{Code: 0xdeadbeef, RepeatCount: 7, ButtonName: "KEY_OK", RemoteControlName: "tv"},
		},
	}

	for _, test := range tests {
		got, err := lirc.ParseButtonPress(test.line)
		assert.NoError(t, err, test.line)
		assert.Equal(t, test.want, got, test.line)
	}
}

func TestParseButtonPressMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"xyz 1 KEY_OK tv",
		"0x12 1 KEY_OK tv",
		"-12 1 KEY_OK tv",
		"12 one KEY_OK tv",
		"12 -1 KEY_OK tv",
		"12 +1 KEY_OK tv",
		"12 1 KEY_OK",
		"12 1 KEY_OK tv extra",
		"1ffffffffffffffff 1 KEY_OK tv",
	} {
		_, err := lirc.ParseButtonPress(line)
		assert.IsError(t, err, lirc.ErrMalformedButtonPress, "%q", line)
	}
}
