// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// Client contains all of the information necessary to run a single IRC
// client.
type Client struct {
	// Config represents the configuration. Entries should not be edited
	// while the client is connected.
	Config Config
	// Handlers holds the ordered callback lists for every event kind.
	Handlers *Callbacks
	// CTCP manages automatic responses to incoming CTCP queries.
	CTCP *CTCP
	// Cmd contains various helper methods to interact with the server.
	Cmd *Commands
	// IRCd encapsulates IRC server details gathered during registration.
	IRCd Server

	// state represents the throw-away state for the irc session.
	state *state
	// handlers is the internal mapping of COMMAND -> built-in handler.
	handlers map[string]handlerFunc
	// conn is the transport to the IRC server. nil when disconnected.
	conn Conn
	// framer reassembles CRLF-terminated lines across reads.
	framer lineFramer
	// limiter paces outbound lines so the server doesn't disconnect us
	// for flooding.
	limiter *rate.Limiter
	// debug is used if a writer is supplied for Client.Config.Debug.
	debug *log.Logger
	// initTime represents the creation time of the client.
	initTime time.Time

	// lastNet is the last time any traffic crossed the wire, in either
	// direction. timingOut is set once a keep-alive PING has been sent
	// and not yet answered.
	lastNet   time.Time
	timingOut bool

	// now is the clock used for all idle/keep-alive decisions.
	// Overridable so tests can drive the timeout state machine.
	now func() time.Time
}

// Server contains information about the IRC server that the client is
// connected to, as volunteered by the server itself during registration.
type Server struct {
	// Host is the hostname/id/IP of the daemon, as acquired by 002.
	Host string
	// Version is the software version of the IRC daemon, as acquired by
	// 002/004.
	Version string
	// Compiled is the reported date the daemon was built, as acquired by
	// 003.
	Compiled time.Time
	// UserCount is the amount of online users on the network (266).
	UserCount int
	// MaxUserCount is the most users the network has seen online (266).
	MaxUserCount int
	// LocalUserCount is the amount of users on this daemon (265).
	LocalUserCount int
	// LocalMaxUserCount is the most users this daemon has seen (265).
	LocalMaxUserCount int
	// OperCount is the amount of opers currently online (252).
	OperCount int
	// ChannelCount is the amount of channels formed (254).
	ChannelCount int
}

// Config contains configuration options for an IRC client.
type Config struct {
	// Nick is an rfc-valid nickname used during registration.
	Nick string
	// User is the username/ident to use on connect. Ignored if an identd
	// server is used.
	User string
	// Name is the "realname" that's used during registration. Defaults
	// to User when empty.
	Name string
	// ServerPass is the server password used to authenticate during the
	// connect process, if the server requires one.
	ServerPass string
	// AllowFlood disables the rate limit on outbound lines.
	AllowFlood bool
	// Version is the response sent for CTCP VERSION queries. A default
	// describing the library is sent otherwise.
	Version string
	// Debug is an optional, user supplied location to log the raw lines
	// sent from the server, or other useful debug logs. Defaults to
	// io.Discard. For quick debugging, this could be set to os.Stdout.
	Debug io.Writer
}

// New creates a new IRC client with the specified config.
func New(config Config) *Client {
	c := &Client{
		Config:   config,
		Handlers: &Callbacks{},
		initTime: time.Now(),
		now:      time.Now,
		limiter:  rate.NewLimiter(rate.Limit(1), 5),
	}

	if c.Config.Debug == nil {
		c.debug = log.New(io.Discard, "", 0)
	} else {
		c.debug = log.New(c.Config.Debug, "debug:", log.Ltime|log.Lshortfile)
		c.debug.Print("initializing debugging")
	}

	c.Cmd = &Commands{c: c}
	c.CTCP = newCTCP()

	// Give ourselves a new state.
	c.state = &state{client: c}
	c.state.self = &User{
		Nick:       config.Nick,
		Ident:      config.User,
		Name:       config.Name,
		LastActive: time.Now(),
	}
	c.state.reset(true)

	// Register builtin handlers.
	c.registerBuiltins()

	return c
}

// String returns a brief description of the current client state.
func (c *Client) String() string {
	return fmt.Sprintf("<Client nick:%q connected:%t>", c.Nick(), c.IsConnected())
}

// IsConnected returns true if the client is connected to the server.
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil
}

// Lifetime returns the amount of time that has passed since the client
// was created.
func (c *Client) Lifetime() time.Duration {
	return time.Since(c.initTime)
}

// Nick returns the current nickname of the active connection.
func (c *Client) Nick() string {
	return c.state.self.Nick
}

// SetNick requests a nickname change. When connected the request is
// sent to the server and tracking updates once the server confirms;
// offline the nickname is changed directly.
func (c *Client) SetNick(nick string) error {
	if nick == "" {
		return ErrInvalidArgument
	}

	if c.state.maxNickLen > 0 && len(nick) > c.state.maxNickLen {
		return ErrNickTooLong{Nick: nick, Max: c.state.maxNickLen}
	}

	if c.conn != nil {
		return c.write(NICK + " " + nick)
	}

	c.state.self.Nick = nick

	return nil
}

// Ident returns the username/ident used for this connection.
func (c *Client) Ident() string {
	return c.state.self.Ident
}

// SetIdent changes the username/ident used at registration. The IRC
// protocol has no way to change it mid-session.
func (c *Client) SetIdent(ident string) error {
	if ident == "" {
		return ErrInvalidArgument
	}

	if c.conn != nil {
		return ErrInUseWhileConnected
	}

	c.state.self.Ident = ident

	return nil
}

// Name returns the "realname" used for this connection.
func (c *Client) Name() string {
	return c.state.self.Name
}

// SetName changes the "realname" used at registration. The IRC protocol
// has no way to change it mid-session.
func (c *Client) SetName(name string) error {
	if name == "" {
		return ErrInvalidArgument
	}

	if c.conn != nil {
		return ErrInUseWhileConnected
	}

	c.state.self.Name = name

	return nil
}

// Self returns our own user, which is tracked like any other but never
// appears in the general user list.
func (c *Client) Self() *User {
	return c.state.self
}

// LookupUser looks up a given user in state. Nicknames compare
// case-insensitively, and our own nick resolves to Self. nil is
// returned if the user isn't tracked.
func (c *Client) LookupUser(nick string) *User {
	return c.state.lookupUser(nick)
}

// LookupChannel looks up a given channel in state.
func (c *Client) LookupChannel(name string) (*Channel, error) {
	if name == "" {
		return nil, ErrInvalidArgument
	}

	if !IsChannel(name) {
		return nil, ErrNotAChannel{Target: name}
	}

	ch := c.state.lookupChannel(name)
	if ch == nil {
		return nil, ErrChannelNotTracked{Channel: name}
	}

	return ch, nil
}

// ChannelList returns the sorted list of channel names the client is in.
func (c *Client) ChannelList() []string {
	channels := make([]string, 0, c.state.channels.Count())
	for item := range c.state.channels.IterBuffered() {
		channels = append(channels, item.Val.(*Channel).Name)
	}

	sort.Strings(channels)

	return channels
}

// UserList returns the sorted list of nicknames the client is tracking
// across all channels, not including itself.
func (c *Client) UserList() []string {
	users := make([]string, 0, c.state.users.Count())
	for item := range c.state.users.IterBuffered() {
		users = append(users, item.Val.(*User).Nick)
	}

	sort.Strings(users)

	return users
}

// NetworkName returns the network identifier, e.g. "EsperNet". May be
// empty if the server does not send NETWORK= via RPL_ISUPPORT.
func (c *Client) NetworkName() string {
	return c.state.network
}

// ServerMOTD returns the servers message of the day, if the server has
// sent it upon connect.
func (c *Client) ServerMOTD() string {
	return c.state.motd
}

// GetServerOption retrieves a raw RPL_ISUPPORT token advertised by the
// server, e.g. GetServerOption("NICKLEN").
func (c *Client) GetServerOption(key string) (result string, ok bool) {
	oi, ok := c.state.serverOptions.Get(key)
	if !ok {
		return "", false
	}

	return oi.(string), true
}
