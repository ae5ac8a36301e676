// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"fmt"
	"strings"
)

// Commands holds a large list of useful methods to interact with the
// server, and wrappers for common events.
type Commands struct {
	c *Client
}

// Join attempts to enter an IRC channel.
func (cmd *Commands) Join(channel string) error {
	if channel == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.c.write(JOIN + " " + channel)
}

// JoinKey attempts to enter an IRC channel with a password.
func (cmd *Commands) JoinKey(channel, key string) error {
	if channel == "" || key == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.c.write(JOIN + " " + channel + " " + key)
}

// Part leaves an IRC channel with an optional leave message.
func (cmd *Commands) Part(channel string, message ...string) error {
	if channel == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	if len(message) > 0 && message[0] != "" {
		return cmd.c.write(PART + " " + channel + " :" + message[0])
	}

	return cmd.c.write(PART + " " + channel)
}

// Kick sends a KICK query to the server, attempting to kick nick from
// channel, with reason. If reason is blank, one will not be sent to the
// server.
func (cmd *Commands) Kick(channel, nick string, reason ...string) error {
	if channel == "" || nick == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	if len(reason) > 0 && reason[0] != "" {
		return cmd.c.write(KICK + " " + channel + " " + nick + " :" + reason[0])
	}

	return cmd.c.write(KICK + " " + channel + " " + nick)
}

// Invite sends an INVITE query to the server, to invite nick to channel.
func (cmd *Commands) Invite(channel, nick string) error {
	if channel == "" || nick == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.c.write(INVITE + " " + nick + " " + channel)
}

// Ban adds an entry to the channels ban list ("MODE <chan> +b <mask>").
func (cmd *Commands) Ban(channel, mask string) error {
	return cmd.AddToChannelList(channel, 'b', mask)
}

// Unban removes an entry from the channels ban list.
func (cmd *Commands) Unban(channel, mask string) error {
	return cmd.RemoveFromChannelList(channel, 'b', mask)
}

// KickBan bans the given mask from the channel and kicks the nick, with
// an optional reason.
func (cmd *Commands) KickBan(channel, nick, mask string, reason ...string) error {
	if err := cmd.Ban(channel, mask); err != nil {
		return err
	}

	return cmd.Kick(channel, nick, reason...)
}

// Mode sends a raw mode change for target, e.g.
// Mode("#channel", "+o", "nick"). The flag string must carry its own
// +/- prefix.
func (cmd *Commands) Mode(target, flags string, args ...string) error {
	if target == "" || flags == "" {
		return ErrInvalidArgument
	}

	line := MODE + " " + target + " " + flags
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	return cmd.c.write(line)
}

// AddUserModes gives our own connection the supplied user modes, e.g.
// AddUserModes("iw").
func (cmd *Commands) AddUserModes(modes string) error {
	return cmd.Mode(cmd.c.Nick(), "+"+modes)
}

// RemoveUserModes removes the supplied user modes from our own
// connection.
func (cmd *Commands) RemoveUserModes(modes string) error {
	return cmd.Mode(cmd.c.Nick(), "-"+modes)
}

// AddChannelModes sets modes on a channel, with optional mode
// arguments, e.g. AddChannelModes("#channel", "ov", "nick1", "nick2").
func (cmd *Commands) AddChannelModes(channel, modes string, args ...string) error {
	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.Mode(channel, "+"+modes, args...)
}

// RemoveChannelModes unsets modes on a channel, with optional mode
// arguments.
func (cmd *Commands) RemoveChannelModes(channel, modes string, args ...string) error {
	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.Mode(channel, "-"+modes, args...)
}

// AddToChannelList adds entries to one of the channels list modes
// (bans, exemptions, invitations, ...), e.g.
// AddToChannelList("#channel", 'b', "*!*@host").
func (cmd *Commands) AddToChannelList(channel string, mode byte, entries ...string) error {
	if len(entries) == 0 {
		return ErrInvalidArgument
	}

	return cmd.AddChannelModes(channel, strings.Repeat(string(mode), len(entries)), entries...)
}

// RemoveFromChannelList removes entries from one of the channels list
// modes.
func (cmd *Commands) RemoveFromChannelList(channel string, mode byte, entries ...string) error {
	if len(entries) == 0 {
		return ErrInvalidArgument
	}

	return cmd.RemoveChannelModes(channel, strings.Repeat(string(mode), len(entries)), entries...)
}

// Message sends a PRIVMSG to target (either channel, service, or user),
// splitting the text across however many lines it needs.
func (cmd *Commands) Message(target, message string) error {
	if target == "" || message == "" {
		return ErrInvalidArgument
	}

	for _, line := range splitMessage(PRIVMSG, target, message) {
		if err := cmd.c.write(line); err != nil {
			return err
		}
	}

	return nil
}

// Messagef sends a formatted PRIVMSG to target.
func (cmd *Commands) Messagef(target, format string, a ...interface{}) error {
	return cmd.Message(target, fmt.Sprintf(format, a...))
}

// Notice sends a NOTICE to target (either channel, service, or user),
// splitting the text across however many lines it needs.
func (cmd *Commands) Notice(target, message string) error {
	if target == "" || message == "" {
		return ErrInvalidArgument
	}

	for _, line := range splitMessage(NOTICE, target, message) {
		if err := cmd.c.write(line); err != nil {
			return err
		}
	}

	return nil
}

// Noticef sends a formatted NOTICE to target.
func (cmd *Commands) Noticef(target, format string, a ...interface{}) error {
	return cmd.Notice(target, fmt.Sprintf(format, a...))
}

// Action sends a PRIVMSG ACTION (/me) to target.
func (cmd *Commands) Action(target, message string) error {
	return cmd.CTCPQuery(target, CTCP_ACTION, message)
}

// Actionf sends a formatted PRIVMSG ACTION (/me) to target.
func (cmd *Commands) Actionf(target, format string, a ...interface{}) error {
	return cmd.Action(target, fmt.Sprintf(format, a...))
}

// CTCPQuery sends a CTCP request to target. Note that this method uses
// PRIVMSG specifically. message may be empty for a bare query like
// VERSION.
func (cmd *Commands) CTCPQuery(target, tag string, message ...string) error {
	if target == "" || tag == "" {
		return ErrInvalidArgument
	}

	var text string
	if len(message) > 0 {
		text = message[0]
	}

	for _, line := range splitCTCP(PRIVMSG, target, strings.ToUpper(tag), text) {
		if err := cmd.c.write(line); err != nil {
			return err
		}
	}

	return nil
}

// CTCPReply sends a CTCP response to target. Note that this method uses
// NOTICE specifically.
func (cmd *Commands) CTCPReply(target, tag string, message ...string) error {
	if target == "" || tag == "" {
		return ErrInvalidArgument
	}

	var text string
	if len(message) > 0 {
		text = message[0]
	}

	for _, line := range splitCTCP(NOTICE, target, strings.ToUpper(tag), text) {
		if err := cmd.c.write(line); err != nil {
			return err
		}
	}

	return nil
}

// CTCPReplyf sends a formatted CTCP response to target.
func (cmd *Commands) CTCPReplyf(target, tag, format string, a ...interface{}) error {
	return cmd.CTCPReply(target, tag, fmt.Sprintf(format, a...))
}

// Whois sends a WHOIS query to the server, targeted at a specific user.
func (cmd *Commands) Whois(nick string) error {
	if nick == "" {
		return ErrInvalidArgument
	}

	return cmd.c.write(WHOIS + " " + nick)
}

// Who sends a WHO query to the server for a channel or mask, optionally
// narrowed by additional filter arguments.
func (cmd *Commands) Who(target string, filters ...string) error {
	if target == "" {
		return ErrInvalidArgument
	}

	line := WHO + " " + target
	if len(filters) > 0 {
		line += " " + strings.Join(filters, " ")
	}

	return cmd.c.write(line)
}

// WhoUser sends a WHO query narrowed down to a single user within a
// channel.
func (cmd *Commands) WhoUser(channel, user string) error {
	if channel == "" || user == "" {
		return ErrInvalidArgument
	}

	if !IsValidChannel(channel) {
		return ErrNotAChannel{Target: channel}
	}

	return cmd.c.write(WHO + " " + channel + " " + user)
}

// Ping sends a PING query to the server, with a specific identifier that
// the server should respond with.
func (cmd *Commands) Ping(id string) error {
	return cmd.c.write(PING + " " + id)
}

// Pong sends a PONG query to the server, with an identifier which was
// received from a previous PING query received by the client.
func (cmd *Commands) Pong(id string) error {
	return cmd.c.write(PONG + " :" + id)
}

// SendRaw sends a raw line to the server, without carriage returns or
// newlines.
func (cmd *Commands) SendRaw(raw string) error {
	raw = strings.TrimFunc(raw, cutCRFunc)
	if raw == "" {
		return ErrInvalidArgument
	}

	return cmd.c.write(raw)
}

// SendRawf sends a formatted raw line to the server.
func (cmd *Commands) SendRawf(format string, a ...interface{}) error {
	return cmd.SendRaw(fmt.Sprintf(format, a...))
}
