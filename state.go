// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// User represents an IRC user and the state attached to them. Users are
// created on first sighting (JOIN, NAMES, WHO, WHOIS, or a message
// prefix) and dropped once they are no longer visible in any tracked
// channel, or on QUIT.
type User struct {
	// Nick is the users current nickname. rfc1459 compliant.
	Nick string
	// Ident is the users username/ident. Ident is commonly prefixed with
	// a "~", which indicates that they do not have a identd server setup
	// for authentication.
	Ident string
	// Host is the visible host of the users connection that the server
	// has provided to us. May not always be accurate due to many
	// networks spoofing/hiding parts of the hostname for privacy
	// reasons.
	Host string
	// Name is the users "realname" or full name. Commonly contains links
	// to the IRC client being used, or something of non-importance. May
	// be empty if the server has not told us yet.
	Name string

	// ChannelList is the list of channels we are tracking the user in,
	// in the order we saw them join. Names keep the server's spelling;
	// membership checks are case-insensitive.
	ChannelList []string

	// LastActive represents the last time that we saw the user active,
	// which could be during nickname change, message, channel join, etc.
	LastActive time.Time
}

// String returns the nick!user@host representation of the user.
func (u *User) String() string {
	return u.Nick + "!" + u.Ident + "@" + u.Host
}

// Active represents the amount of time that has passed since we have
// last seen the user do something.
func (u *User) Active() time.Duration {
	return time.Since(u.LastActive)
}

// IsIdle returns true if the user has shown no activity for at least d.
func (u *User) IsIdle(d time.Duration) bool {
	return u.Active() >= d
}

// InChannel checks to see if the user is in the given channel.
func (u *User) InChannel(name string) bool {
	name = ToRFC1459(name)

	for i := 0; i < len(u.ChannelList); i++ {
		if ToRFC1459(u.ChannelList[i]) == name {
			return true
		}
	}

	return false
}

// addChannel adds the channel to the users channel list.
func (u *User) addChannel(name string) {
	if u.InChannel(name) {
		return
	}

	u.ChannelList = append(u.ChannelList, name)
}

// deleteChannel removes an existing channel from the users channel list.
func (u *User) deleteChannel(name string) {
	name = ToRFC1459(name)

	for i := 0; i < len(u.ChannelList); i++ {
		if ToRFC1459(u.ChannelList[i]) == name {
			u.ChannelList = append(u.ChannelList[:i], u.ChannelList[i+1:]...)
			return
		}
	}
}

// Channel represents an IRC channel and the state attached to it.
// Channels exist from the moment the server confirms our JOIN until we
// part, are kicked, or disconnect.
type Channel struct {
	// Name of the channel, as spelled by the server.
	Name string
	// Topic of the channel.
	Topic string

	// userList is the channels membership in join order. Nicknames keep
	// the server's spelling.
	userList []string
	// userModes maps rfc1459-folded nicknames to the members highest
	// channel-user prefix ("@", "+", ...). Only prefixes from the
	// networks PREFIX vocabulary are ever stored.
	userModes map[string]string
}

// Users returns the channel membership in join order.
func (ch *Channel) Users() []string {
	out := make([]string, len(ch.userList))
	copy(out, ch.userList)

	return out
}

// Len returns the count of users in the channel.
func (ch *Channel) Len() int {
	return len(ch.userList)
}

// UserIn checks to see if a given user is in the channel.
func (ch *Channel) UserIn(nick string) bool {
	nick = ToRFC1459(nick)

	for i := 0; i < len(ch.userList); i++ {
		if ToRFC1459(ch.userList[i]) == nick {
			return true
		}
	}

	return false
}

// Mode returns the channel-user prefix for nick, if one is set.
func (ch *Channel) Mode(nick string) (prefix string, ok bool) {
	prefix, ok = ch.userModes[ToRFC1459(nick)]
	return prefix, ok
}

// setMode records the channel-user prefix for nick.
func (ch *Channel) setMode(nick, prefix string) {
	ch.userModes[ToRFC1459(nick)] = prefix
}

// removeMode drops the channel-user prefix for nick.
func (ch *Channel) removeMode(nick string) {
	delete(ch.userModes, ToRFC1459(nick))
}

// addUser adds a user to the member list.
func (ch *Channel) addUser(nick string) {
	if ch.UserIn(nick) {
		return
	}

	ch.userList = append(ch.userList, nick)
}

// deleteUser removes an existing user from the member list, along with
// any mode they held.
func (ch *Channel) deleteUser(nick string) {
	id := ToRFC1459(nick)

	delete(ch.userModes, id)

	for i := 0; i < len(ch.userList); i++ {
		if ToRFC1459(ch.userList[i]) == id {
			ch.userList = append(ch.userList[:i], ch.userList[i+1:]...)
			return
		}
	}
}

// renameUser renames a member in place, carrying over any channel-user
// mode associated with the old nickname.
func (ch *Channel) renameUser(from, to string) {
	id := ToRFC1459(from)

	for i := 0; i < len(ch.userList); i++ {
		if ToRFC1459(ch.userList[i]) == id {
			ch.userList[i] = to
			break
		}
	}

	if mode, ok := ch.userModes[id]; ok {
		delete(ch.userModes, id)
		ch.userModes[ToRFC1459(to)] = mode
	}
}

// state represents the actively-changing variables within the client
// runtime: the channels we are in, the users visible in them, our own
// identity, and the vocabulary the network advertised via RPL_ISUPPORT.
type state struct {
	// client is a useful pointer to the state's related Client instance.
	client *Client

	// self is our own user. It is held here, never in users, and nick
	// lookups short-circuit to it.
	self *User

	// channels represents all channels we're active in. Keyed by the
	// channel name exactly as the server emits it.
	channels cmap.ConcurrentMap
	// users represents all of the users that we're tracking. Keyed by
	// rfc1459-folded nickname.
	users cmap.ConcurrentMap
	// serverOptions are the raw RPL_ISUPPORT entries supplied by the
	// server at connection time.
	serverOptions cmap.ConcurrentMap

	// network is the NETWORK= value from RPL_ISUPPORT.
	network string
	// motd is the servers message of the day.
	motd string

	// userModes and userPrefixes are the paired PREFIX= vocabulary, most
	// privileged first. Always equal in length.
	userModes    string
	userPrefixes string
	// listModes, argModes, setModes, noArgModes are the four CHANMODES=
	// categories (A,B,C,D).
	listModes  string
	argModes   string
	setModes   string
	noArgModes string
	// maxNickLen is NICKLEN=, 0 meaning unlimited.
	maxNickLen int
}

// reset resets the state back to its original form.
func (s *state) reset(initial bool) {
	cmaps := []*cmap.ConcurrentMap{&s.channels, &s.users, &s.serverOptions}
	for _, cm := range cmaps {
		if initial {
			*cm = cmap.New()
		} else {
			cm.Clear()
		}
	}

	if s.self != nil {
		s.self.Host = ""
		s.self.ChannelList = nil
	}

	s.network = ""
	s.motd = ""
	s.userModes = defaultUserModes
	s.userPrefixes = defaultUserPrefixes
	s.listModes = defaultListModes
	s.argModes = ""
	s.setModes = ""
	s.noArgModes = ""
	s.maxNickLen = 0
}

// isSelf reports whether nick refers to us, case-insensitively.
func (s *state) isSelf(nick string) bool {
	return ToRFC1459(nick) == ToRFC1459(s.self.Nick)
}

// lookupChannel returns a reference to a channel. nil is returned if no
// results are found.
func (s *state) lookupChannel(name string) *Channel {
	if ci, ok := s.channels.Get(name); ok {
		return ci.(*Channel)
	}

	// The server almost always echoes the spelling we joined with, but
	// not every daemon preserves case everywhere.
	id := ToRFC1459(name)
	for item := range s.channels.IterBuffered() {
		if ToRFC1459(item.Key) == id {
			return item.Val.(*Channel)
		}
	}

	return nil
}

// lookupUser returns a reference to a tracked user, short-circuiting to
// self on a nick match. nil is returned if no results are found.
func (s *state) lookupUser(nick string) *User {
	if nick == "" {
		return nil
	}

	if s.isSelf(nick) {
		return s.self
	}

	if ui, ok := s.users.Get(ToRFC1459(nick)); ok {
		return ui.(*User)
	}

	return nil
}

// createChannel creates the channel in state, if not already done.
func (s *state) createChannel(name string) *Channel {
	if ch := s.lookupChannel(name); ch != nil {
		return ch
	}

	ch := &Channel{
		Name:      name,
		userModes: make(map[string]string),
	}
	s.channels.Set(name, ch)

	return ch
}

// deleteChannel removes the channel from state along with every
// membership it implied, dropping users that are no longer visible
// anywhere.
func (s *state) deleteChannel(name string) {
	ch := s.lookupChannel(name)
	if ch == nil {
		return
	}

	for _, nick := range ch.Users() {
		user := s.lookupUser(nick)
		if user == nil {
			continue
		}

		user.deleteChannel(ch.Name)

		if user != s.self && len(user.ChannelList) == 0 {
			s.users.Remove(ToRFC1459(nick))
		}
	}

	s.channels.Remove(ch.Name)
}

// upsertUser resolves the tracked user for a message source, creating
// one on first sighting. Senders carrying a richer identity than what we
// hold patch the stored user in place.
func (s *state) upsertUser(src *Source) *User {
	if src == nil || src.Name == "" {
		return nil
	}

	if user := s.lookupUser(src.Name); user != nil {
		if src.Ident != "" {
			user.Ident = src.Ident
		}
		if src.Host != "" {
			user.Host = src.Host
		}

		return user
	}

	user := &User{
		Nick:       src.Name,
		Ident:      src.Ident,
		Host:       src.Host,
		LastActive: s.client.now(),
	}
	s.users.Set(src.ID(), user)

	return user
}

// trackUser records a membership, keeping the channel member list and
// the users channel list in lockstep.
func (s *state) trackUser(ch *Channel, user *User) {
	ch.addUser(user.Nick)
	user.addChannel(ch.Name)
}

// deleteUser removes a user from the given channel, or from everywhere
// when channelName is empty (e.g. a QUIT). Users visible in no channel
// are dropped entirely.
func (s *state) deleteUser(channelName, nick string) {
	user := s.lookupUser(nick)
	if user == nil {
		s.client.debug.Print(nick + ": was not found when trying to deleteUser from " + channelName)
		return
	}

	if user == s.self {
		return
	}

	if channelName == "" {
		for _, name := range user.ChannelList {
			if ch := s.lookupChannel(name); ch != nil {
				ch.deleteUser(nick)
			}
		}

		user.ChannelList = nil
		s.users.Remove(ToRFC1459(nick))
		return
	}

	ch := s.lookupChannel(channelName)
	if ch == nil {
		return
	}

	ch.deleteUser(nick)
	user.deleteChannel(ch.Name)

	if len(user.ChannelList) == 0 {
		s.users.Remove(ToRFC1459(nick))
	}
}

// renameUser renames the user in state, in all locations where relevant.
// A rename onto a nickname we already track merges the two records; two
// users cannot share a nick, so the pre-existing record is stale.
func (s *state) renameUser(from, to string) {
	if s.isSelf(from) {
		old := s.self.Nick
		s.self.Nick = to

		for item := range s.channels.IterBuffered() {
			item.Val.(*Channel).renameUser(old, to)
		}
		return
	}

	ui, ok := s.users.Pop(ToRFC1459(from))
	if !ok {
		return
	}

	user := ui.(*User)

	if stale := s.lookupUser(to); stale != nil && stale != s.self && stale != user {
		s.mergeUsers(user, stale)
	}

	user.Nick = to
	user.LastActive = s.client.now()
	s.users.Set(ToRFC1459(to), user)

	caseOnly := ToRFC1459(from) == ToRFC1459(to)

	for item := range s.channels.IterBuffered() {
		ch := item.Val.(*Channel)

		// A merge can leave both spellings in one channel; keep the
		// entry already carrying the new nick.
		if !caseOnly && ch.UserIn(to) && ch.UserIn(from) {
			ch.deleteUser(from)
			continue
		}

		ch.renameUser(from, to)
	}
}

// mergeUsers folds a stale record into the surviving user: empty
// identity fields are patched and memberships are unioned. The channel
// member lists already carry the target nickname, so only the users side
// needs the union.
func (s *state) mergeUsers(user, stale *User) {
	if user.Ident == "" {
		user.Ident = stale.Ident
	}
	if user.Host == "" {
		user.Host = stale.Host
	}
	if user.Name == "" {
		user.Name = stale.Name
	}

	for _, name := range stale.ChannelList {
		user.addChannel(name)
	}

	s.users.Remove(ToRFC1459(stale.Nick))
}
