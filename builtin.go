// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// handlerFunc is an internal per-command handler. A returned error is
// either fatal to the line (ProtocolError) or to the session
// (ServerError, ErrNickInUseUnhandled); Poll decides which.
type handlerFunc func(c *Client, e *Event) error

// registerBuiltins sets up the built-in command handlers.
func (c *Client) registerBuiltins() {
	c.debug.Print("registering built-in handlers")

	c.handlers = map[string]handlerFunc{
		PING:    handlePING,
		PONG:    handlePONG,
		ERROR:   handleERROR,
		PRIVMSG: handlePRIVMSG,
		NOTICE:  handleNOTICE,

		// Joins/parts/anything that may add/remove/rename users.
		JOIN: handleJOIN,
		PART: handlePART,
		KICK: handleKICK,
		QUIT: handleQUIT,
		NICK: handleNICK,

		MODE:   handleMODE,
		TOPIC:  handleTOPIC,
		INVITE: handleINVITE,

		RPL_WELCOME:  handleWELCOME,
		RPL_ISUPPORT: handleISUPPORT,

		RPL_TOPIC:        handleTOPICREPLY,
		RPL_TOPICWHOTIME: handleTOPICWHOTIME,
		RPL_WHOREPLY:     handleWHO,
		RPL_NAMREPLY:     handleNAMES,
		RPL_ENDOFNAMES:   handleENDOFNAMES,

		RPL_MOTDSTART: handleMOTD,
		RPL_MOTD:      handleMOTD,
		RPL_ENDOFMOTD: handleMOTD,

		RPL_VISIBLEHOST:   handleVISIBLEHOST,
		ERR_NICKNAMEINUSE: handleNICKINUSE,
		ERR_JOINTOOSOON:   handleJOINTOOSOON,

		// WHOIS family.
		RPL_WHOISUSER:     handleWHOISUSER,
		RPL_WHOISSERVER:   handleWHOISSERVER,
		RPL_WHOISOPERATOR: handleWHOISOPERATOR,
		RPL_WHOISIDLE:     handleWHOISIDLE,
		RPL_ENDOFWHOIS:    handleWHOISEND,
		RPL_WHOISCHANNELS: handleWHOISCHANNELS,
		RPL_WHOISACCOUNT:  handleWHOISACCOUNT,
		RPL_WHOISREGNICK:  handleWHOISREGNICK,

		// Server details. These fire no events; the info is retained on
		// Client.IRCd.
		RPL_YOURHOST:      handleYOURHOST,
		RPL_CREATED:       handleCREATED,
		RPL_MYINFO:        handleMYINFO,
		RPL_LUSEROP:       handleLUSEROP,
		RPL_LUSERCHANNELS: handleLUSERCHANNELS,
		RPL_LOCALUSERS:    handleLOCALUSERS,
		RPL_GLOBALUSERS:   handleGLOBALUSERS,
	}
}

// dispatch routes one parsed line to its built-in handler. Unknown
// commands are ignored.
func (c *Client) dispatch(e *Event) error {
	handler, ok := c.handlers[e.Command]
	if !ok {
		c.debug.Printf("unhandled command %q", e.Command)
		return nil
	}

	return handler(c, e)
}

// handlePING responds to ping requests from the server.
func handlePING(c *Client, e *Event) error {
	return c.write(PONG + " :" + e.Last())
}

// handlePONG is a no-op; any inbound line already feeds the keep-alive
// timer.
func handlePONG(c *Client, e *Event) error {
	return nil
}

// handleERROR surfaces a server-initiated ERROR; the server hangs up
// right after sending one.
func handleERROR(c *Client, e *Event) error {
	return ServerError{Text: e.Last()}
}

// handlePRIVMSG resolves the sender, refreshes their activity time, and
// routes the payload as either a plain message or a CTCP query.
func handlePRIVMSG(c *Client, e *Event) error {
	user := c.state.upsertUser(e.Source)
	if user == nil || len(e.Params) < 1 {
		return nil
	}

	user.LastActive = c.now()

	if ctcp := decodeCTCP(e); ctcp != nil {
		for _, fn := range c.Handlers.ctcpQuery {
			fn(c, user, ctcp.Target, ctcp.Command, ctcp.Text)
		}

		c.CTCP.call(c, ctcp)
		return nil
	}

	for _, fn := range c.Handlers.message {
		fn(c, user, e.Params[0], e.Last())
	}

	return nil
}

// handleNOTICE mirrors handlePRIVMSG for notices and CTCP replies.
func handleNOTICE(c *Client, e *Event) error {
	user := c.state.upsertUser(e.Source)
	if user == nil || len(e.Params) < 1 {
		return nil
	}

	user.LastActive = c.now()

	if ctcp := decodeCTCP(e); ctcp != nil {
		for _, fn := range c.Handlers.ctcpReply {
			fn(c, user, ctcp.Target, ctcp.Command, ctcp.Text)
		}
		return nil
	}

	for _, fn := range c.Handlers.notice {
		fn(c, user, e.Params[0], e.Last())
	}

	return nil
}

// handleJOIN creates the channel when we are the one joining, and tracks
// the new member otherwise.
func handleJOIN(c *Client, e *Event) error {
	args := e.Args()
	if e.Source == nil || len(args) < 1 || args[0] == "" {
		return nil
	}

	channelName := args[0]

	if c.state.isSelf(e.Source.Name) {
		ch := c.state.createChannel(channelName)
		c.state.trackUser(ch, c.state.self)

		// The join echo is the first place the server shows us our own
		// ident/host.
		if e.Source.Ident != "" {
			c.state.self.Ident = e.Source.Ident
		}
		if e.Source.Host != "" {
			c.state.self.Host = e.Source.Host
		}

		for _, fn := range c.Handlers.successfulJoin {
			fn(c, channelName)
		}

		return nil
	}

	user := c.state.upsertUser(e.Source)
	if ch := c.state.lookupChannel(channelName); ch != nil {
		c.state.trackUser(ch, user)
	}

	for _, fn := range c.Handlers.join {
		fn(c, user, channelName)
	}

	return nil
}

// handlePART fires the event while the membership still exists, then
// cleans up: the whole channel when it was us, otherwise just the user.
func handlePART(c *Client, e *Event) error {
	args := e.Args()
	if e.Source == nil || len(args) < 1 || args[0] == "" {
		return nil
	}

	channelName := args[0]

	var reason string
	if len(args) > 1 {
		reason = args[len(args)-1]
	}

	user := c.state.upsertUser(e.Source)

	for _, fn := range c.Handlers.part {
		fn(c, user, channelName, reason)
	}

	if c.state.isSelf(user.Nick) {
		c.state.deleteChannel(channelName)
		return nil
	}

	c.state.deleteUser(channelName, user.Nick)

	return nil
}

// handleKICK mirrors handlePART for forced removals. The kicker clearly
// just did something, so their activity time is refreshed too.
func handleKICK(c *Client, e *Event) error {
	args := e.Args()
	if e.Source == nil || len(args) < 2 {
		return nil
	}

	channelName, kicked := args[0], args[1]

	var reason string
	if len(args) > 2 {
		reason = args[len(args)-1]
	}

	kicker := c.state.upsertUser(e.Source)
	kicker.LastActive = c.now()

	for _, fn := range c.Handlers.kick {
		fn(c, kicker, channelName, kicked, reason)
	}

	if c.state.isSelf(kicked) {
		c.state.deleteChannel(channelName)
		return nil
	}

	c.state.deleteUser(channelName, kicked)

	return nil
}

// handleQUIT drops a user from everywhere they were visible.
func handleQUIT(c *Client, e *Event) error {
	if e.Source == nil {
		return nil
	}

	var reason string
	if args := e.Args(); len(args) > 0 {
		reason = args[len(args)-1]
	}

	user := c.state.upsertUser(e.Source)

	for _, fn := range c.Handlers.quit {
		fn(c, user, reason)
	}

	if c.state.isSelf(user.Nick) {
		return nil
	}

	c.state.deleteUser("", user.Nick)

	return nil
}

// handleNICK renames a user across every channel they appear in,
// carrying channel-user modes along.
func handleNICK(c *Client, e *Event) error {
	args := e.Args()
	if e.Source == nil || len(args) < 1 || args[0] == "" {
		return nil
	}

	newNick := args[0]
	user := c.state.upsertUser(e.Source)

	for _, fn := range c.Handlers.nickChange {
		fn(c, user, newNick)
	}

	c.state.renameUser(e.Source.Name, newNick)

	return nil
}

// handleMODE reports the change and, for channel targets, applies any
// channel-user mode updates.
func handleMODE(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	target, flags := args[0], args[1]
	modeArgs := args[2:]

	user := c.state.upsertUser(e.Source)

	for _, fn := range c.Handlers.mode {
		fn(c, user, target, flags, modeArgs)
	}

	if !IsChannel(target) {
		return nil
	}

	ch := c.state.lookupChannel(target)
	if ch == nil {
		return nil
	}

	return c.state.applyChannelUserModes(ch, flags, modeArgs)
}

// handleTOPIC tracks topic changes made while we watch.
func handleTOPIC(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	channelName, topic := args[0], args[len(args)-1]

	user := c.state.upsertUser(e.Source)

	if ch := c.state.lookupChannel(channelName); ch != nil {
		ch.Topic = topic
	}

	for _, fn := range c.Handlers.topicChange {
		fn(c, user, channelName, topic)
	}

	return nil
}

// handleINVITE reports an invitation; no state is attached to one.
func handleINVITE(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	user := c.state.upsertUser(e.Source)

	for _, fn := range c.Handlers.invite {
		fn(c, user, args[0], args[1])
	}

	return nil
}

// handleWELCOME marks registration as accepted. The nick in the reply is
// authoritative; some networks rename on connect.
func handleWELCOME(c *Client, e *Event) error {
	if len(e.Params) > 0 && e.Params[0] != "" {
		c.state.self.Nick = e.Params[0]
	}

	for _, fn := range c.Handlers.connect {
		fn(c)
	}

	return nil
}

// handleISUPPORT digests the RPL_ISUPPORT tokens; the last argument is a
// human-readable suffix, the first is our nick.
func handleISUPPORT(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	return c.state.applyISUPPORT(args[1:len(args)-1], e.String())
}

// handleTOPICREPLY stores and reports the topic sent when joining.
func handleTOPICREPLY(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	channelName, topic := args[1], args[2]

	if ch := c.state.lookupChannel(channelName); ch != nil {
		ch.Topic = topic
	}

	for _, fn := range c.Handlers.topic {
		fn(c, channelName, topic)
	}

	return nil
}

// handleTOPICWHOTIME reports who set the topic and when.
func handleTOPICWHOTIME(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 4 {
		return nil
	}

	for _, fn := range c.Handlers.topicInfo {
		fn(c, args[1], args[2], args[3])
	}

	return nil
}

// handleWHO patches identity details from a WHO reply into the tracked
// user, and derives their channel prefix from the flags field.
//
// format: "<client> <channel> <user> <host> <server> <nick> <H|G>[*][@|+] :<hopcount> <real_name>"
func handleWHO(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 8 {
		return nil
	}

	channelName, ident, host, nick, flags := args[1], args[2], args[3], args[5], args[6]

	user := c.state.lookupUser(nick)
	if user == nil {
		return nil
	}

	user.Ident = ident
	user.Host = host
	user.Name = stripHopCount(args[7])

	if prefix := c.state.firstPrefix(flags); prefix != "" {
		if ch := c.state.lookupChannel(channelName); ch != nil {
			ch.setMode(nick, prefix)
		}
	}

	return nil
}

// stripHopCount removes the "<hopcount> " prefix a WHO reply sticks in
// front of the realname.
func stripHopCount(trailing string) string {
	i := 0
	for i < len(trailing) && trailing[i] >= '0' && trailing[i] <= '9' {
		i++
	}

	return strings.TrimLeft(trailing[i:], " ")
}

// handleNAMES tracks every member a NAMES page lists, recording the
// highest prefix each carries.
func handleNAMES(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 4 {
		return nil
	}

	channelName := args[2]
	ch := c.state.lookupChannel(channelName)

	parts := strings.Fields(args[3])
	nicks := make([]string, 0, len(parts))

	for _, part := range parts {
		prefixes, rest := c.state.cutPrefixes(part)
		if rest == "" {
			continue
		}

		// With userhost-in-names the token is a full nick!user@host.
		src := ParseSource(rest)
		nicks = append(nicks, src.Name)

		if ch == nil {
			continue
		}

		if !c.state.isSelf(src.Name) {
			user := c.state.upsertUser(src)
			c.state.trackUser(ch, user)
		}

		if len(prefixes) > 0 {
			ch.setMode(src.Name, string(prefixes[0]))
		}
	}

	for _, fn := range c.Handlers.nameList {
		fn(c, channelName, nicks)
	}

	return nil
}

// handleENDOFNAMES follows a completed NAMES listing with a WHO, which
// fills in the ident/host/realname NAMES doesn't carry.
func handleENDOFNAMES(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	for _, fn := range c.Handlers.nameListEnd {
		fn(c, args[1])
	}

	return c.write(WHO + " " + args[1])
}

// handleMOTD buffers the message of the day and reports each stage.
func handleMOTD(c *Client, e *Event) error {
	text := e.Last()

	switch e.Command {
	case RPL_MOTDSTART:
		c.state.motd = ""

		for _, fn := range c.Handlers.motdStart {
			fn(c, text)
		}
	case RPL_MOTD:
		if len(c.state.motd) != 0 {
			c.state.motd += "\n"
		}
		c.state.motd += text

		for _, fn := range c.Handlers.motdLine {
			fn(c, text)
		}
	case RPL_ENDOFMOTD:
		for _, fn := range c.Handlers.motdEnd {
			fn(c, text)
		}
	}

	return nil
}

// handleVISIBLEHOST records the cloaked/displayed host the server
// assigned to us.
func handleVISIBLEHOST(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	c.state.self.Host = args[1]

	return nil
}

// handleNICKINUSE polls the OnNickInUse callbacks in registration order;
// if none claims the collision the session cannot register, so the
// client disconnects.
func handleNICKINUSE(c *Client, e *Event) error {
	args := e.Args()

	var oldNick string
	if len(args) > 1 {
		oldNick = args[1]
	}

	if c.Handlers.fireNickInUse(c, oldNick) {
		return nil
	}

	return ErrNickInUseUnhandled
}

var joinDelayPattern = regexp.MustCompile(`([0-9]+) *second`)

// handleJOINTOOSOON extracts the rejoin delay out of the free-form 495
// reason, e.g. "You must wait 5 seconds after being kicked to rejoin".
func handleJOINTOOSOON(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	var seconds int
	if m := joinDelayPattern.FindStringSubmatch(args[2]); m != nil {
		seconds, _ = strconv.Atoi(m[1])
	}

	for _, fn := range c.Handlers.joinTooSoon {
		fn(c, args[1], seconds)
	}

	return nil
}

// handleWHOISUSER upserts the identity tuple out of a WHOIS response.
func handleWHOISUSER(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 6 {
		return nil
	}

	nick, ident, host, name := args[1], args[2], args[3], args[5]

	user := c.state.upsertUser(&Source{Name: nick, Ident: ident, Host: host})
	if user == nil {
		return nil
	}

	user.Ident = ident
	user.Host = host
	user.Name = name

	for _, fn := range c.Handlers.whoisReply {
		fn(c, user)
	}

	return nil
}

func handleWHOISSERVER(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	var info string
	if len(args) > 3 {
		info = args[3]
	}

	for _, fn := range c.Handlers.whoisServer {
		fn(c, args[1], args[2], info)
	}

	return nil
}

func handleWHOISOPERATOR(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	for _, fn := range c.Handlers.whoisOperator {
		fn(c, args[1], e.Last())
	}

	return nil
}

func handleWHOISIDLE(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	seconds, err := strconv.Atoi(args[2])
	if err != nil {
		return nil
	}

	for _, fn := range c.Handlers.whoisIdle {
		fn(c, args[1], seconds)
	}

	return nil
}

func handleWHOISEND(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	for _, fn := range c.Handlers.whoisEnd {
		fn(c, args[1])
	}

	return nil
}

// handleWHOISCHANNELS reports the channels a WHOIS target is in, and
// refreshes the prefixes we can see for channels we share.
func handleWHOISCHANNELS(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	nick := args[1]
	parts := strings.Fields(args[2])
	channels := make([]string, 0, len(parts))

	for _, part := range parts {
		prefixes, rest := c.state.cutPrefixes(part)
		if rest == "" {
			continue
		}

		channels = append(channels, rest)

		if len(prefixes) == 0 {
			continue
		}

		if ch := c.state.lookupChannel(rest); ch != nil && ch.UserIn(nick) {
			ch.setMode(nick, string(prefixes[0]))
		}
	}

	for _, fn := range c.Handlers.whoisChannels {
		fn(c, nick, channels)
	}

	return nil
}

func handleWHOISACCOUNT(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	for _, fn := range c.Handlers.whoisAccount {
		fn(c, args[1], args[2])
	}

	return nil
}

func handleWHOISREGNICK(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	for _, fn := range c.Handlers.whoisRegnick {
		fn(c, args[1])
	}

	return nil
}

// handleYOURHOST parses "Your host is <name>, running version <ver>".
func handleYOURHOST(c *Client, e *Event) error {
	const prefix = "Your host is "
	const suffix = " running version "

	text := e.Last()
	if !strings.HasPrefix(text, prefix) || !strings.Contains(text, ",") {
		return nil
	}

	split := strings.SplitN(strings.TrimPrefix(text, prefix), ",", 2)
	if len(split) != 2 {
		return nil
	}

	c.IRCd.Host = split[0]
	c.IRCd.Version = strings.Replace(split[1], suffix, "", 1)

	return nil
}

// handleCREATED parses the daemon build date out of RPL_CREATED.
func handleCREATED(c *Client, e *Event) error {
	split := strings.Split(e.Last(), " ")
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	found := -1
	for i, word := range split {
		for _, day := range days {
			if word == day+"," {
				found = i
				break
			}
		}
	}
	if found == -1 {
		return nil
	}

	compiled, err := dateparse.ParseAny(strings.Join(split[found:], " "))
	if err != nil {
		return nil
	}

	c.IRCd.Compiled = compiled

	return nil
}

// handleMYINFO records the daemon name and version.
func handleMYINFO(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	if c.IRCd.Host == "" {
		c.IRCd.Host = args[1]
	}
	c.IRCd.Version = args[2]

	return nil
}

func handleLUSEROP(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	count, err := strconv.Atoi(args[1])
	if err != nil {
		return nil
	}

	c.IRCd.OperCount = count

	return nil
}

func handleLUSERCHANNELS(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 2 {
		return nil
	}

	count, err := strconv.Atoi(args[1])
	if err != nil {
		return nil
	}

	c.IRCd.ChannelCount = count

	return nil
}

func handleLOCALUSERS(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	cusers, err := strconv.Atoi(args[1])
	if err != nil {
		return nil
	}
	musers, err := strconv.Atoi(args[2])
	if err != nil {
		return nil
	}

	c.IRCd.LocalUserCount = cusers
	c.IRCd.LocalMaxUserCount = musers

	return nil
}

func handleGLOBALUSERS(c *Client, e *Event) error {
	args := e.Args()
	if len(args) < 3 {
		return nil
	}

	cusers, err := strconv.Atoi(args[1])
	if err != nil {
		return nil
	}
	musers, err := strconv.Atoi(args[2])
	if err != nil {
		return nil
	}

	c.IRCd.UserCount = cusers
	c.IRCd.MaxUserCount = musers

	return nil
}
