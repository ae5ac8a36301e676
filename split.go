// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import "strings"

// The functions in this file fragment over-long PRIVMSG/NOTICE and CTCP
// payloads across multiple raw lines, each within sendBudget bytes of
// content. The budget already reserves the nick!user@host prefix the
// server prepends when relaying, so a fragment that fits here also fits
// when it reaches the other side.

// splitMessage forms "<cmd> <target> :<text>" lines, fragmenting text as
// needed. Fragments prefer to break at the last space that fits; the
// space stays at the end of the emitted fragment so that no two words
// are ever glued together. Spaceless text is hard-split at the budget.
func splitMessage(cmd, target, text string) (lines []string) {
	prefix := cmd + " " + target + " :"

	for len(prefix)+len(text) > sendBudget {
		chunk := text[:sendBudget-len(prefix)]

		cut := len(chunk)
		if i := strings.LastIndexByte(chunk, ' '); i > 0 {
			cut = i + 1
		}

		lines = append(lines, prefix+text[:cut])
		text = text[cut:]
	}

	return append(lines, prefix+text)
}

// splitCTCP forms "<cmd> <target> :\x01<tag> <text>\x01" lines. Every
// fragment is closed with the CTCP delimiter and every continuation is
// re-wrapped with the tag, so each line stands alone as a valid CTCP.
// Fragments prefer to break at the last space after the tag separator,
// keeping the tag intact on the first fragment. A CTCP with no text is
// a single "\x01<tag>\x01" frame.
func splitCTCP(cmd, target, tag, text string) (lines []string) {
	prefix := cmd + " " + target + " :"

	if len(text) == 0 {
		return []string{prefix + string(ctcpDelim) + tag + string(ctcpDelim)}
	}

	// Room for the payload once the prefix and both delimiters are
	// accounted for.
	max := sendBudget - len(prefix) - 2

	body := tag + " " + text
	for len(body) > max {
		chunk := body[:max]

		cut := len(chunk)
		if first := strings.IndexByte(chunk, ' '); first >= 0 {
			if i := strings.LastIndexByte(chunk[first+1:], ' '); i >= 0 {
				cut = first + 1 + i + 1
			}
		}

		lines = append(lines, prefix+string(ctcpDelim)+body[:cut]+string(ctcpDelim))
		body = tag + " " + body[cut:]
	}

	return append(lines, prefix+string(ctcpDelim)+body+string(ctcpDelim))
}
