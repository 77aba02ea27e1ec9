package vt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFixtures(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"csi-color", "\x1b[31mred\x1b[0m", "red"},
		{"osc-title", "\x1b]0;title\x07body", "body"},
		{"csi-clear-and-home", "\x1b[2J\x1b[Hx", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Strip([]byte(tc.in)))
		})
	}
}

func TestStripPassesThroughWhitespaceControls(t *testing.T) {
	in := "a\nb\rc\td"
	assert.Equal(t, in, Strip([]byte(in)))
}

func TestStripDropsOtherC0Controls(t *testing.T) {
	in := "a\x00b\x01c\x07d" // NUL, SOH, BEL outside any OSC
	assert.Equal(t, "abcd", Strip([]byte(in)))
}

func TestStripConsumesDCSSequence(t *testing.T) {
	in := "a\x1bPsome dcs data\x1b\\b"
	assert.Equal(t, "ab", Strip([]byte(in)))
}

func TestStripConsumesGenericESCSequence(t *testing.T) {
	in := "a\x1b=b" // ESC = (DECKPAM), single byte terminates it
	assert.Equal(t, "ab", Strip([]byte(in)))
}

func TestStripInvalidUTF8Replaced(t *testing.T) {
	in := []byte{'a', 0xff, 'b'}
	got := Strip(in)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.Contains(t, got, "�")
}

func TestStripEmptyInput(t *testing.T) {
	assert.Equal(t, "", Strip(nil))
	assert.Equal(t, "", Strip([]byte{}))
}
