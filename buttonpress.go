package lirc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseButtonPress decodes a button press broadcast by lircd. The line has
// the format
//
//	<code> <repeat count> <button name> <remote control name>
//
// where code is hexadecimal and repeat count is decimal.
func ParseButtonPress(line string) (ButtonPress, error) {
	w := strings.Fields(line)
	if len(w) != 4 {
		return ButtonPress{}, fmt.Errorf(
			"%w: expected 4 fields, got %d in %q",
			ErrMalformedButtonPress, len(w), line)
	}

	// ParseUint without a base prefix accepts nothing but digits of that base.
	code, err := strconv.ParseUint(w[0], 16, 64)
	if err != nil {
		return ButtonPress{}, fmt.Errorf(
			"%w: code %q is not a 64-bit hex number",
			ErrMalformedButtonPress, w[0])
	}

	repeats, err := strconv.ParseUint(w[1], 10, 0)
	if err != nil {
		return ButtonPress{}, fmt.Errorf(
			"%w: repeat count %q is not a decimal number",
			ErrMalformedButtonPress, w[1])
	}

	return ButtonPress{
		Code:              code,
		RepeatCount:       uint(repeats),
		ButtonName:        w[2],
		RemoteControlName: w[3],
	}, nil
}

// looksLikeButtonPress reports whether line should be decoded as a button
// press rather than dropped. lircd prints codes in lower case, which keeps
// stray reply keywords such as END or DATA from being taken for codes.
func looksLikeButtonPress(line string) bool {
	if line == "" {
		return false
	}
	c := line[0]
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}
