// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"runtime"
	"strings"
	"time"
)

// ctcpDelim is the delimiter used for CTCP formatted events/messages.
const ctcpDelim byte = 0x01 // Prefix and suffix for CTCP messages.

// CTCPEvent is the necessary information from an IRC message.
type CTCPEvent struct {
	// Source is the author of the CTCP event.
	Source *Source
	// Target is the nickname or channel the CTCP was sent to.
	Target string
	// Command is the type of CTCP event. E.g. PING, TIME, VERSION.
	Command string
	// Text is the raw arguments following the command.
	Text string
	// Reply is true if the CTCP event is intended to be a reply to a
	// previous CTCP (e.g, if we sent one).
	Reply bool
}

// decodeCTCP decodes an incoming CTCP event, if it is CTCP. nil is
// returned if the incoming event does not match a valid CTCP.
func decodeCTCP(e *Event) *CTCPEvent {
	// http://www.irchelp.org/protocol/ctcpspec.html

	// Must be targeting a user/channel, AND trailing must have
	// DELIM+TAG+DELIM minimum (at least 3 chars).
	if len(e.Params) != 1 || len(e.Trailing) < 3 {
		return nil
	}

	if e.Command != PRIVMSG && e.Command != NOTICE {
		return nil
	}

	if e.Trailing[0] != ctcpDelim || e.Trailing[len(e.Trailing)-1] != ctcpDelim {
		return nil
	}

	// Strip delimiters.
	text := e.Trailing[1 : len(e.Trailing)-1]

	s := strings.IndexByte(text, eventSpace)

	// Check to see if it only contains a tag.
	if s < 0 {
		if !isValidCTCPTag(text) {
			return nil
		}

		return &CTCPEvent{
			Source:  e.Source,
			Target:  e.Params[0],
			Command: text,
			Reply:   e.Command == NOTICE,
		}
	}

	if !isValidCTCPTag(text[0:s]) {
		return nil
	}

	return &CTCPEvent{
		Source:  e.Source,
		Target:  e.Params[0],
		Command: text[0:s],
		Text:    text[s+1:],
		Reply:   e.Command == NOTICE,
	}
}

// isValidCTCPTag checks that the tag is solely A-Z, 0-9, or "_".
func isValidCTCPTag(tag string) bool {
	if len(tag) == 0 {
		return false
	}

	for i := 0; i < len(tag); i++ {
		if (tag[i] < 0x41 || tag[i] > 0x5A) && (tag[i] < 0x30 || tag[i] > 0x39) && tag[i] != 0x5F {
			return false
		}
	}

	return true
}

// encodeCTCPRaw wraps a raw command and argument text in CTCP delimiters.
func encodeCTCPRaw(cmd, text string) (out string) {
	if len(cmd) <= 0 {
		return ""
	}

	out = string(ctcpDelim) + cmd

	if len(text) > 0 {
		out += string(eventSpace) + text
	}

	return out + string(ctcpDelim)
}

// CTCP handles the storage and execution of CTCP handlers against
// incoming CTCP queries.
type CTCP struct {
	// handlers is a map of CTCP command -> functions.
	handlers map[string]CTCPHandler
}

// CTCPHandler is a type that represents the function necessary to
// implement a CTCP handler.
type CTCPHandler func(client *Client, ctcp CTCPEvent)

// newCTCP returns a new clean CTCP handler with the default responders
// registered.
func newCTCP() *CTCP {
	c := &CTCP{handlers: map[string]CTCPHandler{}}
	c.addDefaultHandlers()

	return c
}

// call executes the necessary CTCP handler for the incoming CTCP query.
func (c *CTCP) call(client *Client, event *CTCPEvent) {
	// Support wildcard CTCP event handling. Gets executed first before
	// regular event handlers.
	if handler, ok := c.handlers["*"]; ok {
		handler(client, *event)
	}

	handler, ok := c.handlers[event.Command]
	if !ok {
		// Send a ERRMSG reply, if we know who sent it.
		if event.Source != nil && IsValidNick(event.Source.Name) {
			_ = client.Cmd.CTCPReply(event.Source.Name, CTCP_ERRMSG, "that is an unknown CTCP query")
		}
		return
	}

	handler(client, *event)
}

// parseCMD parses a CTCP command/tag, ensuring it's valid. If not, an
// empty string is returned.
func (c *CTCP) parseCMD(cmd string) string {
	// Check if wildcard.
	if cmd == "*" {
		return "*"
	}

	cmd = strings.ToUpper(cmd)

	if !isValidCTCPTag(cmd) {
		return ""
	}

	return cmd
}

// Set saves a handler for execution upon a matching incoming CTCP query.
// If you would like to have a handler which will catch ALL CTCP requests,
// simply use "*" in place of the command.
func (c *CTCP) Set(cmd string, handler func(client *Client, ctcp CTCPEvent)) {
	if cmd = c.parseCMD(cmd); cmd == "" {
		return
	}

	c.handlers[cmd] = CTCPHandler(handler)
}

// Clear removes the currently setup handler for cmd, if one is set. This
// also disables the default handler for that cmd.
func (c *CTCP) Clear(cmd string) {
	if cmd = c.parseCMD(cmd); cmd == "" {
		return
	}

	delete(c.handlers, cmd)
}

// ClearAll removes all currently setup handlers and re-registers the
// defaults.
func (c *CTCP) ClearAll() {
	c.handlers = map[string]CTCPHandler{}
	c.addDefaultHandlers()
}

// addDefaultHandlers adds some useful default CTCP response handlers.
func (c *CTCP) addDefaultHandlers() {
	c.Set(CTCP_PING, handleCTCPPing)
	c.Set(CTCP_VERSION, handleCTCPVersion)
	c.Set(CTCP_SOURCE, handleCTCPSource)
	c.Set(CTCP_TIME, handleCTCPTime)
}

// handleCTCPPing replies with a ping and whatever was originally
// requested.
func handleCTCPPing(client *Client, ctcp CTCPEvent) {
	_ = client.Cmd.CTCPReply(ctcp.Source.Name, CTCP_PING, ctcp.Text)
}

// handleCTCPVersion replies with the name of the client, Go version, as
// well as the os type (darwin, linux, windows, etc) and architecture
// type (x86, arm, etc).
func handleCTCPVersion(client *Client, ctcp CTCPEvent) {
	if client.Config.Version != "" {
		_ = client.Cmd.CTCPReply(ctcp.Source.Name, CTCP_VERSION, client.Config.Version)
		return
	}

	_ = client.Cmd.CTCPReplyf(
		ctcp.Source.Name, CTCP_VERSION,
		"libdirc (github.com/michael-fadely/libdirc) using %s (%s, %s)",
		runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
}

// handleCTCPSource replies with the public git location of this library.
func handleCTCPSource(client *Client, ctcp CTCPEvent) {
	_ = client.Cmd.CTCPReply(ctcp.Source.Name, CTCP_SOURCE, "https://github.com/michael-fadely/libdirc")
}

// handleCTCPTime replies with a RFC 1123 (Z) formatted version of Go's
// local time.
func handleCTCPTime(client *Client, ctcp CTCPEvent) {
	_ = client.Cmd.CTCPReply(ctcp.Source.Name, CTCP_TIME, time.Now().Format(time.RFC1123Z))
}
