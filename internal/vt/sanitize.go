// Package vt implements C6: a plain-text sanitizer that strips terminal
// control sequences, and a virtual-screen model for interactive output.
//
// The sanitizer's escape-recognition shape is grounded on wandb-catnip's
// extractTitleFromEscapeSequence, which scans raw PTY bytes for an OSC
// sequence (\x1b]0; ... \x07); this generalizes that single-sequence scan
// into a full CSI/OSC/DCS/ESC-consuming state machine per spec §4.6/§8.
package vt

import "unicode/utf8"

// parserState tracks where Strip currently is within an escape sequence.
type parserState int

const (
	stateGround parserState = iota
	stateEscape             // just saw ESC (0x1b)
	stateCSI                // inside a CSI sequence (ESC [ ... final-byte)
	stateOSC                // inside an OSC sequence (ESC ] ... BEL or ST)
	stateOSCEsc             // inside OSC, just saw ESC (maybe ST = ESC \)
	stateDCS                // inside a DCS sequence (ESC P ... ST)
	stateDCSEsc             // inside DCS, just saw ESC
)

const (
	bel = 0x07
	esc = 0x1b
)

// Strip consumes a raw byte buffer and returns a UTF-8 string containing
// every printed character plus {\n, \r, \t}. All other C0/C1 controls are
// dropped, and every CSI/OSC/DCS/ESC sequence is consumed fully and
// produces no output. Invalid UTF-8 is replaced lossily with U+FFFD.
// The sanitizer is stateless across calls: it must be given a whole
// output buffer, not a fragment of one.
func Strip(raw []byte) string {
	out := make([]byte, 0, len(raw))
	state := stateGround

	for i := 0; i < len(raw); {
		b := raw[i]
		switch state {
		case stateGround:
			if b == esc {
				state = stateEscape
				i++
				continue
			}
			if isPassthroughControl(b) {
				n := appendRune(&out, raw[i:])
				i += n
				continue
			}
			if b == 0x7f || (b >= 0x80 && b <= 0x9f) {
				// DEL and the raw C1 control range: drop, never pass
				// through and never treated as a UTF-8 lead byte (real
				// multi-byte sequences lead with 0xC2 or above).
				i++
				continue
			}
			if b >= 0x20 {
				n := appendRune(&out, raw[i:])
				i += n
				continue
			}
			// other C0 control: drop
			i++

		case stateEscape:
			switch b {
			case '[':
				state = stateCSI
			case ']':
				state = stateOSC
			case 'P':
				state = stateDCS
			default:
				// generic ESC sequence (e.g. ESC c, ESC =, ESC M): a
				// single following byte terminates it.
				state = stateGround
			}
			i++

		case stateCSI:
			// CSI ends at the first byte in the 0x40-0x7e final-byte
			// range; everything before that is parameter/intermediate.
			if b >= 0x40 && b <= 0x7e {
				state = stateGround
			}
			i++

		case stateOSC:
			switch b {
			case bel:
				state = stateGround
			case esc:
				state = stateOSCEsc
			}
			i++

		case stateOSCEsc:
			if b == '\\' {
				state = stateGround
			} else {
				// Not a valid ST; stay in OSC body, reinterpreting the ESC
				// byte we consumed as part of the (malformed) body.
				state = stateOSC
			}
			i++

		case stateDCS:
			if b == esc {
				state = stateDCSEsc
			}
			i++

		case stateDCSEsc:
			if b == '\\' {
				state = stateGround
			} else {
				state = stateDCS
			}
			i++
		}
	}
	return string(out)
}

func isPassthroughControl(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t'
}

// appendRune decodes one UTF-8 rune (or a lossy replacement) from buf and
// appends its encoded bytes to *out, returning the number of input bytes
// consumed.
func appendRune(out *[]byte, buf []byte) int {
	r, n := utf8.DecodeRune(buf)
	if r == utf8.RuneError && n <= 1 {
		*out = utf8.AppendRune(*out, utf8.RuneError)
		return 1
	}
	*out = append(*out, buf[:n]...)
	return n
}
