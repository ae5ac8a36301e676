// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import "strings"

// fmtAliases maps the "{alias}" names accepted by Format onto raw IRC
// control sequences.
var fmtAliases = map[string]string{
	"white":       "\x0300",
	"black":       "\x0301",
	"blue":        "\x0302",
	"navy":        "\x0302",
	"green":       "\x0303",
	"red":         "\x0304",
	"brown":       "\x0305",
	"maroon":      "\x0305",
	"purple":      "\x0306",
	"orange":      "\x0307",
	"olive":       "\x0307",
	"gold":        "\x0307",
	"yellow":      "\x0308",
	"lightgreen":  "\x0309",
	"lime":        "\x0309",
	"teal":        "\x0310",
	"cyan":        "\x0311",
	"lightblue":   "\x0312",
	"royal":       "\x0312",
	"lightpurple": "\x0313",
	"pink":        "\x0313",
	"fuchsia":     "\x0313",
	"grey":        "\x0314",
	"gray":        "\x0314",
	"lightgrey":   "\x0315",
	"silver":      "\x0315",
	"bold":        "\x02",
	"b":           "\x02",
	"italic":      "\x1d",
	"i":           "\x1d",
	"reset":       "\x0f",
	"r":           "\x0f",
	"clear":       "\x03",
	"c":           "\x03",
	"reverse":     "\x16",
	"underline":   "\x1f",
	"ul":          "\x1f",
}

// fmtSequences lists every control sequence Format can emit. Two-digit
// color codes come before the bare color toggle so that stripping
// "\x0304" never leaves "04" behind.
var fmtSequences = []string{
	"\x0300", "\x0301", "\x0302", "\x0303", "\x0304", "\x0305",
	"\x0306", "\x0307", "\x0308", "\x0309", "\x0310", "\x0311",
	"\x0312", "\x0313", "\x0314", "\x0315",
	"\x02", "\x1d", "\x0f", "\x03", "\x16", "\x1f",
}

// Format takes color strings like "{red}" and turns them into the
// resulting ASCII color code for IRC. Unknown aliases are passed
// through untouched.
func Format(text string) string {
	return expandAliases(text, false)
}

// StripFormat strips all "{color}" formatting strings from the input
// text. See Format() for more information.
func StripFormat(text string) string {
	return expandAliases(text, true)
}

// expandAliases walks text once, replacing each "{alias}" token with
// its control sequence (or nothing, when stripping).
func expandAliases(text string, strip bool) string {
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	for open >= 0 {
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			break
		}

		code, ok := fmtAliases[text[open+1:open+end]]
		if !ok {
			// Not an alias; emit the brace and rescan right after it.
			out.WriteString(text[:open+1])
			text = text[open+1:]
			open = strings.IndexByte(text, '{')
			continue
		}

		out.WriteString(text[:open])
		if !strip {
			out.WriteString(code)
		}

		text = text[open+end+1:]
		open = strings.IndexByte(text, '{')
	}

	out.WriteString(text)

	return out.String()
}

// StripColors removes all ASCII color/formatting codes that Format can
// produce from the given text.
func StripColors(text string) string {
	for _, seq := range fmtSequences {
		text = strings.ReplaceAll(text, seq, "")
	}

	return text
}

// StripRaw tries to strip all control bytes (color codes, formatting
// toggles, CTCP delimiters) from the given input. Useful before writing
// server-supplied text to a log.
func StripRaw(text string) string {
	var out []byte

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case 0x01, 0x02, 0x0f, 0x16, 0x1d, 0x1f:
			continue
		case 0x03:
			// Color codes are the control byte plus up to "NN,NN".
			for n := 0; i+1 < len(text) && n < 2; n++ {
				if text[i+1] >= '0' && text[i+1] <= '9' {
					i++
					if i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
						i++
					}
				}

				if n == 0 && i+2 < len(text) && text[i+1] == ',' && text[i+2] >= '0' && text[i+2] <= '9' {
					i++
					continue
				}

				break
			}
			continue
		default:
			out = append(out, text[i])
		}
	}

	return string(out)
}
