// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

// Callbacks holds the ordered subscriber lists for every event kind the
// client can deliver. Registration appends; firing walks the list in
// registration order. For joins, messages, modes and numerics the state
// update completes before the event fires, so callbacks observe
// post-transition state. Departures and renames (OnPart, OnKick, OnQuit,
// OnNickChange) fire first and clean up afterwards, so callbacks still
// see the departing state. Callbacks may issue commands or mutate state
// themselves.
//
// Only OnNickInUse has return semantics: the first callback returning
// true stops the walk and marks the collision handled.
type Callbacks struct {
	connect        []func(c *Client)
	message        []func(c *Client, src *User, target, text string)
	notice         []func(c *Client, src *User, target, text string)
	ctcpQuery      []func(c *Client, src *User, target, tag, text string)
	ctcpReply      []func(c *Client, src *User, target, tag, text string)
	join           []func(c *Client, src *User, channel string)
	successfulJoin []func(c *Client, channel string)
	joinTooSoon    []func(c *Client, channel string, seconds int)
	part           []func(c *Client, src *User, channel, reason string)
	quit           []func(c *Client, src *User, reason string)
	kick           []func(c *Client, src *User, channel, kicked, reason string)
	mode           []func(c *Client, src *User, target, modes string, args []string)
	nickChange     []func(c *Client, src *User, newNick string)
	nickInUse      []func(c *Client, oldNick string) bool
	invite         []func(c *Client, src *User, target, channel string)
	motdStart      []func(c *Client, text string)
	motdLine       []func(c *Client, text string)
	motdEnd        []func(c *Client, text string)
	nameList       []func(c *Client, channel string, nicks []string)
	nameListEnd    []func(c *Client, channel string)
	topic          []func(c *Client, channel, topic string)
	topicChange    []func(c *Client, src *User, channel, topic string)
	topicInfo      []func(c *Client, channel, setBy, setAt string)
	whoisReply     []func(c *Client, user *User)
	whoisServer    []func(c *Client, nick, server, info string)
	whoisOperator  []func(c *Client, nick, info string)
	whoisIdle      []func(c *Client, nick string, idleSeconds int)
	whoisChannels  []func(c *Client, nick string, channels []string)
	whoisAccount   []func(c *Client, nick, account string)
	whoisRegnick   []func(c *Client, nick string)
	whoisEnd       []func(c *Client, nick string)
}

// OnConnect fires once the server has accepted registration (001).
func (cb *Callbacks) OnConnect(fn func(c *Client)) {
	cb.connect = append(cb.connect, fn)
}

// OnMessage fires for every non-CTCP PRIVMSG.
func (cb *Callbacks) OnMessage(fn func(c *Client, src *User, target, text string)) {
	cb.message = append(cb.message, fn)
}

// OnNotice fires for every non-CTCP NOTICE.
func (cb *Callbacks) OnNotice(fn func(c *Client, src *User, target, text string)) {
	cb.notice = append(cb.notice, fn)
}

// OnCTCPQuery fires for a CTCP request carried by a PRIVMSG. The default
// responders (see Client.CTCP) run after these callbacks.
func (cb *Callbacks) OnCTCPQuery(fn func(c *Client, src *User, target, tag, text string)) {
	cb.ctcpQuery = append(cb.ctcpQuery, fn)
}

// OnCTCPReply fires for a CTCP response carried by a NOTICE.
func (cb *Callbacks) OnCTCPReply(fn func(c *Client, src *User, target, tag, text string)) {
	cb.ctcpReply = append(cb.ctcpReply, fn)
}

// OnJoin fires when another user joins a channel we are in.
func (cb *Callbacks) OnJoin(fn func(c *Client, src *User, channel string)) {
	cb.join = append(cb.join, fn)
}

// OnSuccessfulJoin fires when the server confirms our own JOIN.
func (cb *Callbacks) OnSuccessfulJoin(fn func(c *Client, channel string)) {
	cb.successfulJoin = append(cb.successfulJoin, fn)
}

// OnJoinTooSoon fires when the server rejects a JOIN with a rejoin delay
// (numeric 495), with the delay in seconds.
func (cb *Callbacks) OnJoinTooSoon(fn func(c *Client, channel string, seconds int)) {
	cb.joinTooSoon = append(cb.joinTooSoon, fn)
}

// OnPart fires when any user, including us, parts a channel. Callbacks
// run before the membership is dropped, so the departing state is still
// visible.
func (cb *Callbacks) OnPart(fn func(c *Client, src *User, channel, reason string)) {
	cb.part = append(cb.part, fn)
}

// OnQuit fires when a visible user quits the network. Callbacks run
// before the user is dropped from tracking.
func (cb *Callbacks) OnQuit(fn func(c *Client, src *User, reason string)) {
	cb.quit = append(cb.quit, fn)
}

// OnKick fires when a user is kicked from a channel we are in. Callbacks
// run before the membership is dropped.
func (cb *Callbacks) OnKick(fn func(c *Client, src *User, channel, kicked, reason string)) {
	cb.kick = append(cb.kick, fn)
}

// OnMode fires for every MODE change we can see.
func (cb *Callbacks) OnMode(fn func(c *Client, src *User, target, modes string, args []string)) {
	cb.mode = append(cb.mode, fn)
}

// OnNickChange fires when a visible user changes nickname. Callbacks run
// before the rename is applied, so src still carries the old nick.
func (cb *Callbacks) OnNickChange(fn func(c *Client, src *User, newNick string)) {
	cb.nickChange = append(cb.nickChange, fn)
}

// OnNickInUse fires when the server reports our nickname as taken.
// Returning true marks the collision handled (e.g. after picking a new
// nick); if no callback returns true the client disconnects.
func (cb *Callbacks) OnNickInUse(fn func(c *Client, oldNick string) bool) {
	cb.nickInUse = append(cb.nickInUse, fn)
}

// OnInvite fires when someone invites target to channel.
func (cb *Callbacks) OnInvite(fn func(c *Client, src *User, target, channel string)) {
	cb.invite = append(cb.invite, fn)
}

// OnMOTDStart fires for the MOTD header (375).
func (cb *Callbacks) OnMOTDStart(fn func(c *Client, text string)) {
	cb.motdStart = append(cb.motdStart, fn)
}

// OnMOTDLine fires for each MOTD body line (372).
func (cb *Callbacks) OnMOTDLine(fn func(c *Client, text string)) {
	cb.motdLine = append(cb.motdLine, fn)
}

// OnMOTDEnd fires when the MOTD is complete (376).
func (cb *Callbacks) OnMOTDEnd(fn func(c *Client, text string)) {
	cb.motdEnd = append(cb.motdEnd, fn)
}

// OnNameList fires for each NAMES page (353) with the bare nicknames,
// prefixes stripped.
func (cb *Callbacks) OnNameList(fn func(c *Client, channel string, nicks []string)) {
	cb.nameList = append(cb.nameList, fn)
}

// OnNameListEnd fires when a NAMES listing completes (366).
func (cb *Callbacks) OnNameListEnd(fn func(c *Client, channel string)) {
	cb.nameListEnd = append(cb.nameListEnd, fn)
}

// OnTopic fires for a topic delivered on join (332).
func (cb *Callbacks) OnTopic(fn func(c *Client, channel, topic string)) {
	cb.topic = append(cb.topic, fn)
}

// OnTopicChange fires when a user changes a channel topic.
func (cb *Callbacks) OnTopicChange(fn func(c *Client, src *User, channel, topic string)) {
	cb.topicChange = append(cb.topicChange, fn)
}

// OnTopicInfo fires for topic metadata (333): who set it and when.
func (cb *Callbacks) OnTopicInfo(fn func(c *Client, channel, setBy, setAt string)) {
	cb.topicInfo = append(cb.topicInfo, fn)
}

// OnWhoisReply fires for the identity line of a WHOIS response (311).
func (cb *Callbacks) OnWhoisReply(fn func(c *Client, user *User)) {
	cb.whoisReply = append(cb.whoisReply, fn)
}

// OnWhoisServerReply fires for the server line of a WHOIS response (312).
func (cb *Callbacks) OnWhoisServerReply(fn func(c *Client, nick, server, info string)) {
	cb.whoisServer = append(cb.whoisServer, fn)
}

// OnWhoisOperatorReply fires when WHOIS reports the user is an operator
// (313).
func (cb *Callbacks) OnWhoisOperatorReply(fn func(c *Client, nick, info string)) {
	cb.whoisOperator = append(cb.whoisOperator, fn)
}

// OnWhoisIdleReply fires for the idle time line of a WHOIS response
// (317).
func (cb *Callbacks) OnWhoisIdleReply(fn func(c *Client, nick string, idleSeconds int)) {
	cb.whoisIdle = append(cb.whoisIdle, fn)
}

// OnWhoisChannelsReply fires for the channel list line of a WHOIS
// response (319), prefixes stripped.
func (cb *Callbacks) OnWhoisChannelsReply(fn func(c *Client, nick string, channels []string)) {
	cb.whoisChannels = append(cb.whoisChannels, fn)
}

// OnWhoisAccountReply fires when WHOIS reports the services account the
// user is logged in as (330).
func (cb *Callbacks) OnWhoisAccountReply(fn func(c *Client, nick, account string)) {
	cb.whoisAccount = append(cb.whoisAccount, fn)
}

// OnWhoisRegisteredReply fires when WHOIS reports the nickname as
// registered (307).
func (cb *Callbacks) OnWhoisRegisteredReply(fn func(c *Client, nick string)) {
	cb.whoisRegnick = append(cb.whoisRegnick, fn)
}

// OnWhoisEnd fires when a WHOIS response completes (318).
func (cb *Callbacks) OnWhoisEnd(fn func(c *Client, nick string)) {
	cb.whoisEnd = append(cb.whoisEnd, fn)
}

// fireNickInUse polls the OnNickInUse callbacks in order and reports
// whether one of them handled the collision. A panicking callback is
// treated as "not handled" rather than terminating the poll.
func (cb *Callbacks) fireNickInUse(c *Client, oldNick string) (handled bool) {
	call := func(fn func(c *Client, oldNick string) bool) (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				c.debug.Printf("recovered OnNickInUse callback panic: %v", r)
				ok = false
			}
		}()

		return fn(c, oldNick)
	}

	for _, fn := range cb.nickInUse {
		if call(fn) {
			return true
		}
	}

	return false
}
