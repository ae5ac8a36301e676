// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// mockConn is an in-memory Conn. Reads drain whatever the test has
// queued with feed(); an empty queue reports a would-block timeout, the
// same way a real socket does under a poll deadline.
type mockConn struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool
}

func (m *mockConn) Read(p []byte) (int, error) {
	if m.closed {
		return 0, io.EOF
	}

	if m.in.Len() == 0 {
		return 0, errTimeout{}
	}

	return m.in.Read(p)
}

func (m *mockConn) Write(p []byte) (int, error) {
	if m.closed {
		return 0, io.ErrClosedPipe
	}

	return m.out.Write(p)
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

func (m *mockConn) SetReadDeadline(time.Time) error { return nil }

func (m *mockConn) feed(lines ...string) {
	for _, line := range lines {
		m.in.WriteString(line + "\r\n")
	}
}

// sent returns the raw lines the client has written so far, and clears
// the buffer.
func (m *mockConn) sent() []string {
	raw := m.out.String()
	m.out.Reset()

	var lines []string
	for _, line := range strings.Split(raw, "\r\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// errTimeout mimics the error a net.Conn read returns once the poll
// deadline lapses.
type errTimeout struct{}

func (errTimeout) Error() string   { return "i/o timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }

// genTestClient returns a connected client backed by a mockConn, with
// the registration lines already drained and a controllable clock.
func genTestClient(t *testing.T) (*Client, *mockConn, *time.Time) {
	t.Helper()

	c := New(Config{Nick: "Neko", User: "neko", Name: "Neko the cat", AllowFlood: true})

	clock := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	conn := &mockConn{}
	if err := c.MockConnect(conn); err != nil {
		t.Fatalf("MockConnect returned error: %v", err)
	}

	conn.sent() // discard NICK/USER registration

	return c, conn, &clock
}

// pollAll drives Poll until the inbound queue is drained.
func pollAll(t *testing.T, c *Client) (bool, error) {
	t.Helper()

	for {
		alive, err := c.Poll()
		if err != nil || !alive {
			return alive, err
		}

		if c.conn == nil || c.conn.(*mockConn).in.Len() == 0 {
			return alive, err
		}
	}
}

func TestConnectValidation(t *testing.T) {
	c := New(Config{User: "user"})
	if err := c.MockConnect(&mockConn{}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("MockConnect with no nick: got %v, want ErrMissingField", err)
	}

	c = New(Config{Nick: "nick", User: "user", AllowFlood: true})
	if err := c.MockConnect(&mockConn{}); err != nil {
		t.Fatalf("MockConnect returned error: %v", err)
	}

	if err := c.MockConnect(&mockConn{}); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second MockConnect: got %v, want ErrAlreadyConnected", err)
	}
}

func TestRegistration(t *testing.T) {
	c := New(Config{Nick: "Neko", User: "neko", Name: "Neko the cat", ServerPass: "hunter2", AllowFlood: true})

	conn := &mockConn{}
	if err := c.MockConnect(conn); err != nil {
		t.Fatalf("MockConnect returned error: %v", err)
	}

	want := []string{
		"PASS hunter2",
		"NICK Neko",
		"USER neko * * :Neko the cat",
	}

	got := conn.sent()
	if len(got) != len(want) {
		t.Fatalf("registration sent %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("registration line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPingPong(t *testing.T) {
	c, conn, _ := genTestClient(t)

	fired := false
	c.Handlers.OnMessage(func(*Client, *User, string, string) { fired = true })

	conn.feed("PING :12345")
	if alive, err := pollAll(t, c); !alive || err != nil {
		t.Fatalf("Poll returned (%t, %v)", alive, err)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "PONG :12345" {
		t.Fatalf("got %#v, want [\"PONG :12345\"]", sent)
	}

	if fired {
		t.Error("PING fired a message event")
	}
}

func TestServerError(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed("ERROR :Closing Link: flooding")

	alive, err := pollAll(t, c)
	if alive {
		t.Error("Poll returned alive after ERROR")
	}

	var serr ServerError
	if !errors.As(err, &serr) || serr.Text != "Closing Link: flooding" {
		t.Fatalf("Poll returned %v, want ServerError", err)
	}

	if c.IsConnected() {
		t.Error("client still connected after ERROR")
	}
}

func TestSelfJoinCreatesChannel(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var joins []string
	c.Handlers.OnSuccessfulJoin(func(_ *Client, channel string) {
		joins = append(joins, channel)
	})
	c.Handlers.OnJoin(func(*Client, *User, string) {
		t.Error("OnJoin fired for our own join")
	})

	conn.feed(":Neko!u@h JOIN #test")
	pollAll(t, c)

	if len(joins) != 1 || joins[0] != "#test" {
		t.Fatalf("OnSuccessfulJoin fired with %#v, want [\"#test\"]", joins)
	}

	ch, err := c.LookupChannel("#test")
	if err != nil {
		t.Fatalf("LookupChannel returned error: %v", err)
	}

	if ch.Len() != 1 || !ch.UserIn("Neko") {
		t.Fatalf("channel members = %#v, want just Neko", ch.Users())
	}

	if self := c.Self(); self.Ident != "u" || self.Host != "h" {
		t.Errorf("self identity not patched from join echo: %q", self.String())
	}
}

func TestNamesTracking(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var listed []string
	var ended []string
	c.Handlers.OnNameList(func(_ *Client, channel string, nicks []string) {
		listed = append(listed, nicks...)
	})
	c.Handlers.OnNameListEnd(func(_ *Client, channel string) {
		ended = append(ended, channel)
	})

	conn.feed(
		":Neko!u@h JOIN #x",
		":server 353 Neko = #x :@alice +bob carol",
		":server 366 Neko #x :End of /NAMES list.",
	)
	pollAll(t, c)

	ch, err := c.LookupChannel("#x")
	if err != nil {
		t.Fatalf("LookupChannel returned error: %v", err)
	}

	for _, nick := range []string{"alice", "bob", "carol"} {
		if !ch.UserIn(nick) {
			t.Errorf("channel is missing %q", nick)
		}
	}

	if mode, _ := ch.Mode("alice"); mode != "@" {
		t.Errorf("alice mode = %q, want \"@\"", mode)
	}
	if mode, _ := ch.Mode("bob"); mode != "+" {
		t.Errorf("bob mode = %q, want \"+\"", mode)
	}
	if _, ok := ch.Mode("carol"); ok {
		t.Error("carol has a mode set")
	}

	wantNicks := []string{"alice", "bob", "carol"}
	if len(listed) != len(wantNicks) {
		t.Fatalf("OnNameList fired with %#v, want %#v", listed, wantNicks)
	}

	if len(ended) != 1 || ended[0] != "#x" {
		t.Fatalf("OnNameListEnd fired with %#v, want [\"#x\"]", ended)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "WHO #x" {
		t.Fatalf("got %#v, want [\"WHO #x\"]", sent)
	}
}

func TestISUPPORTPrefixVocabulary(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":s 005 Neko PREFIX=(ohv)@%+ NICKLEN=20 NETWORK=TestNet :are supported by this server",
		":Neko!u@h JOIN #x",
		":s 353 Neko = #x :%bob",
	)
	pollAll(t, c)

	if c.state.userModes != "ohv" || c.state.userPrefixes != "@%+" {
		t.Fatalf("vocabulary = %q/%q, want ohv/@%%+", c.state.userModes, c.state.userPrefixes)
	}

	if c.NetworkName() != "TestNet" {
		t.Errorf("NetworkName() = %q, want TestNet", c.NetworkName())
	}

	if v, ok := c.GetServerOption("NICKLEN"); !ok || v != "20" {
		t.Errorf("GetServerOption(NICKLEN) = %q, %t", v, ok)
	}

	ch, _ := c.LookupChannel("#x")
	if ch == nil {
		t.Fatal("channel #x not tracked")
	}

	if mode, _ := ch.Mode("bob"); mode != "%" {
		t.Errorf("bob mode = %q, want %%", mode)
	}
}

func TestNickRenameCarriesMode(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #x",
		":alice!u@h JOIN #x",
		":s MODE #x +o alice",
		":alice!u@h NICK bob",
	)
	pollAll(t, c)

	ch, _ := c.LookupChannel("#x")
	if ch == nil {
		t.Fatal("channel #x not tracked")
	}

	if ch.UserIn("alice") {
		t.Error("alice still in channel after rename")
	}
	if !ch.UserIn("bob") {
		t.Fatal("bob not in channel after rename")
	}

	if mode, _ := ch.Mode("bob"); mode != "@" {
		t.Errorf("bob mode = %q, want \"@\"", mode)
	}
	if _, ok := ch.Mode("alice"); ok {
		t.Error("alice still has a mode entry")
	}

	if c.LookupUser("alice") != nil {
		t.Error("alice still tracked after rename")
	}
	if c.LookupUser("bob") == nil {
		t.Error("bob not tracked after rename")
	}
}

func TestKeepAliveTimeout(t *testing.T) {
	c, conn, clock := genTestClient(t)

	// Quiet for 30s: exactly one keep-alive PING goes out.
	*clock = clock.Add(pingInterval)
	if alive, err := c.Poll(); !alive || err != nil {
		t.Fatalf("Poll returned (%t, %v)", alive, err)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "PING "+keepAliveWord {
		t.Fatalf("got %#v, want [\"PING 12345\"]", sent)
	}

	// Still short of the second deadline: nothing else is sent.
	*clock = clock.Add(pingInterval - time.Second)
	if alive, _ := c.Poll(); !alive {
		t.Fatal("Poll disconnected before the timeout")
	}
	if sent := conn.sent(); len(sent) != 0 {
		t.Fatalf("unexpected traffic %#v", sent)
	}

	// A further 30s of silence kills the connection.
	*clock = clock.Add(time.Second)
	if alive, err := c.Poll(); alive || err != nil {
		t.Fatalf("Poll returned (%t, %v), want disconnect", alive, err)
	}

	if alive, _ := c.Poll(); alive {
		t.Fatal("Poll returned alive after disconnect")
	}
}

func TestKeepAliveResetByTraffic(t *testing.T) {
	c, conn, clock := genTestClient(t)

	*clock = clock.Add(pingInterval)
	c.Poll()
	conn.sent()

	// Inbound traffic clears the pending timeout.
	conn.feed(":s PONG s :12345")
	pollAll(t, c)

	if c.timingOut {
		t.Fatal("timingOut still set after inbound traffic")
	}

	*clock = clock.Add(pingInterval)
	if alive, _ := c.Poll(); !alive {
		t.Fatal("Poll disconnected though the timer was reset")
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "PING "+keepAliveWord {
		t.Fatalf("got %#v, want a fresh keep-alive PING", sent)
	}
}

func TestJoinTooSoon(t *testing.T) {
	c, conn, _ := genTestClient(t)

	type delay struct {
		channel string
		seconds int
	}
	var got []delay

	c.Handlers.OnJoinTooSoon(func(_ *Client, channel string, seconds int) {
		got = append(got, delay{channel, seconds})
	})

	conn.feed(":s 495 Neko #test :You must wait 5 seconds after being kicked to rejoin (+J)")
	pollAll(t, c)

	if len(got) != 1 || got[0].channel != "#test" || got[0].seconds != 5 {
		t.Fatalf("OnJoinTooSoon fired with %#v, want {#test 5}", got)
	}
}

func TestNickInUse(t *testing.T) {
	c, conn, _ := genTestClient(t)

	handled := false
	c.Handlers.OnNickInUse(func(c *Client, oldNick string) bool {
		handled = oldNick == "Neko"
		return true
	})

	conn.feed(":s 433 * Neko :Nickname is already in use.")
	if alive, err := pollAll(t, c); !alive || err != nil {
		t.Fatalf("Poll returned (%t, %v) though the collision was handled", alive, err)
	}

	if !handled {
		t.Fatal("OnNickInUse not invoked with the colliding nick")
	}
}

func TestNickInUseUnhandled(t *testing.T) {
	c, conn, _ := genTestClient(t)

	c.Handlers.OnNickInUse(func(*Client, string) bool { return false })
	c.Handlers.OnNickInUse(func(*Client, string) bool { panic("boom") })

	conn.feed(":s 433 * Neko :Nickname is already in use.")

	alive, err := pollAll(t, c)
	if alive || !errors.Is(err, ErrNickInUseUnhandled) {
		t.Fatalf("Poll returned (%t, %v), want ErrNickInUseUnhandled", alive, err)
	}

	if c.IsConnected() {
		t.Error("client still connected after unhandled collision")
	}
}

func TestQuitIdempotent(t *testing.T) {
	c, conn, _ := genTestClient(t)

	if err := c.Quit("bye"); err != nil {
		t.Fatalf("Quit returned error: %v", err)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "QUIT :bye" {
		t.Fatalf("got %#v, want [\"QUIT :bye\"]", sent)
	}

	if err := c.Quit("again"); err != nil {
		t.Fatalf("second Quit returned error: %v", err)
	}

	if sent := conn.sent(); len(sent) != 0 {
		t.Fatalf("second Quit sent %#v", sent)
	}

	if c.IsConnected() {
		t.Error("client still connected after Quit")
	}
}

func TestDisconnectClearsState(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #x",
		":alice!u@h JOIN #x",
		":s 396 Neko cloak.example.net :is now your displayed host",
	)
	pollAll(t, c)

	if c.Self().Host != "cloak.example.net" {
		t.Fatalf("self host = %q, want cloak.example.net", c.Self().Host)
	}

	c.Quit("")

	if got := c.ChannelList(); len(got) != 0 {
		t.Errorf("channels survived disconnect: %#v", got)
	}
	if got := c.UserList(); len(got) != 0 {
		t.Errorf("users survived disconnect: %#v", got)
	}
	if c.Self().Host != "" {
		t.Errorf("self host survived disconnect: %q", c.Self().Host)
	}
}

func TestSettersWhileConnected(t *testing.T) {
	c, conn, _ := genTestClient(t)

	if err := c.SetIdent("other"); !errors.Is(err, ErrInUseWhileConnected) {
		t.Errorf("SetIdent while connected: got %v", err)
	}
	if err := c.SetName("other"); !errors.Is(err, ErrInUseWhileConnected) {
		t.Errorf("SetName while connected: got %v", err)
	}

	if err := c.SetNick(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetNick(\"\"): got %v", err)
	}

	conn.feed(":s 005 Neko NICKLEN=4 :are supported by this server")
	pollAll(t, c)

	var tooLong ErrNickTooLong
	if err := c.SetNick("toolongnick"); !errors.As(err, &tooLong) {
		t.Errorf("SetNick over NICKLEN: got %v", err)
	}

	if err := c.SetNick("Cat"); err != nil {
		t.Fatalf("SetNick returned error: %v", err)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "NICK Cat" {
		t.Fatalf("got %#v, want [\"NICK Cat\"]", sent)
	}

	// The local nick only changes once the server confirms.
	if c.Nick() != "Neko" {
		t.Errorf("Nick() = %q before server confirmation", c.Nick())
	}

	conn.feed(":Neko!u@h NICK Cat")
	pollAll(t, c)

	if c.Nick() != "Cat" {
		t.Errorf("Nick() = %q after server confirmation, want Cat", c.Nick())
	}
}

func TestCommandsRequireConnection(t *testing.T) {
	c := New(Config{Nick: "Neko", User: "neko"})

	if err := c.Cmd.Message("#x", "hi"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Message while disconnected: got %v", err)
	}
	if err := c.Cmd.Join("#x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Join while disconnected: got %v", err)
	}

	if err := c.Cmd.Message("", "hi"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Message with empty target: got %v", err)
	}
	if err := c.Cmd.Message("#x", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Message with empty body: got %v", err)
	}

	var nac ErrNotAChannel
	if err := c.Cmd.Join("nochannel"); !errors.As(err, &nac) {
		t.Errorf("Join with non-channel: got %v", err)
	}
}

func TestWhoQueries(t *testing.T) {
	c, conn, _ := genTestClient(t)

	if err := c.Cmd.Who("#x"); err != nil {
		t.Fatalf("Who returned error: %v", err)
	}
	if err := c.Cmd.WhoUser("#x", "alice"); err != nil {
		t.Fatalf("WhoUser returned error: %v", err)
	}

	want := []string{"WHO #x", "WHO #x alice"}
	got := conn.sent()
	if len(got) != len(want) {
		t.Fatalf("sent %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if err := c.Cmd.WhoUser("", "alice"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("WhoUser with empty channel: got %v", err)
	}

	var nac ErrNotAChannel
	if err := c.Cmd.WhoUser("nochannel", "alice"); !errors.As(err, &nac) {
		t.Errorf("WhoUser with non-channel: got %v", err)
	}
}

func TestMessageEvents(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var order []string
	c.Handlers.OnMessage(func(_ *Client, src *User, target, text string) {
		order = append(order, "first:"+src.Nick+":"+target+":"+text)
	})
	c.Handlers.OnMessage(func(_ *Client, src *User, target, text string) {
		order = append(order, "second:"+text)
	})

	conn.feed(":alice!ua@ha PRIVMSG #x :hello there")
	pollAll(t, c)

	if len(order) != 2 || order[0] != "first:alice:#x:hello there" || order[1] != "second:hello there" {
		t.Fatalf("callbacks fired as %#v", order)
	}

	alice := c.LookupUser("alice")
	if alice == nil || alice.Ident != "ua" || alice.Host != "ha" {
		t.Fatalf("sender not tracked from prefix: %#v", alice)
	}
}

func TestCTCPQueryAndAutoReply(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var tags []string
	c.Handlers.OnCTCPQuery(func(_ *Client, src *User, target, tag, text string) {
		tags = append(tags, tag+":"+text)
	})

	conn.feed(":alice!u@h PRIVMSG Neko :\x01PING 1234\x01")
	pollAll(t, c)

	if len(tags) != 1 || tags[0] != "PING:1234" {
		t.Fatalf("OnCTCPQuery fired with %#v", tags)
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "NOTICE alice :\x01PING 1234\x01" {
		t.Fatalf("got %#v, want the automatic CTCP PING reply", sent)
	}
}

func TestCTCPReplyEvent(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var replies []string
	c.Handlers.OnCTCPReply(func(_ *Client, src *User, target, tag, text string) {
		replies = append(replies, tag+":"+text)
	})

	conn.feed(":alice!u@h NOTICE Neko :\x01VERSION someclient 1.0\x01")
	pollAll(t, c)

	if len(replies) != 1 || replies[0] != "VERSION:someclient 1.0" {
		t.Fatalf("OnCTCPReply fired with %#v", replies)
	}

	if sent := conn.sent(); len(sent) != 0 {
		t.Fatalf("a CTCP reply triggered outbound traffic: %#v", sent)
	}
}

func TestTrackerConsistency(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #a",
		":Neko!u@h JOIN #b",
		":alice!u@h JOIN #a",
		":alice!u@h JOIN #b",
		":bob!u@h JOIN #a",
		":carol!u@h JOIN #b",
		":alice!u@h PART #a :bye",
		":s KICK #b carol :flooding",
		":bob!u@h QUIT :gone",
		":alice!u@h NICK alicia",
	)
	pollAll(t, c)

	// Membership must be symmetric between channels and users.
	for _, name := range c.ChannelList() {
		ch, err := c.LookupChannel(name)
		if err != nil {
			t.Fatalf("LookupChannel(%q) returned error: %v", name, err)
		}

		for _, nick := range ch.Users() {
			user := c.LookupUser(nick)
			if user == nil {
				t.Errorf("channel %q member %q is not tracked", name, nick)
				continue
			}

			if !user.InChannel(name) {
				t.Errorf("user %q does not list channel %q", nick, name)
			}
		}
	}

	for _, nick := range c.UserList() {
		user := c.LookupUser(nick)
		for _, name := range user.ChannelList {
			ch, err := c.LookupChannel(name)
			if err != nil {
				t.Errorf("user %q lists untracked channel %q", nick, name)
				continue
			}

			if !ch.UserIn(nick) {
				t.Errorf("channel %q does not list user %q", name, nick)
			}
		}
	}

	if c.LookupUser("bob") != nil {
		t.Error("bob still tracked after QUIT")
	}
	if c.LookupUser("carol") != nil {
		t.Error("carol still tracked after KICK from her only channel")
	}
	if c.LookupUser("alice") != nil {
		t.Error("alice still tracked under her old nick")
	}

	alicia := c.LookupUser("alicia")
	if alicia == nil {
		t.Fatal("alicia not tracked after rename")
	}
	if alicia.InChannel("#a") || !alicia.InChannel("#b") {
		t.Errorf("alicia channels = %#v, want only #b", alicia.ChannelList)
	}
}

func TestPartObservesDepartingState(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #x",
		":alice!u@h JOIN #x",
	)
	pollAll(t, c)

	c.Handlers.OnPart(func(c *Client, src *User, channel, reason string) {
		ch, err := c.LookupChannel(channel)
		if err != nil {
			t.Errorf("channel gone before OnPart: %v", err)
			return
		}

		if !ch.UserIn(src.Nick) {
			t.Error("membership gone before OnPart")
		}

		if reason != "so long" {
			t.Errorf("part reason = %q, want \"so long\"", reason)
		}
	})

	conn.feed(":alice!u@h PART #x :so long")
	pollAll(t, c)

	ch, _ := c.LookupChannel("#x")
	if ch == nil || ch.UserIn("alice") {
		t.Error("alice still in channel after PART")
	}
}

func TestWhoisUpdatesState(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var replies []*User
	var idles []int
	var ends []string

	c.Handlers.OnWhoisReply(func(_ *Client, user *User) { replies = append(replies, user) })
	c.Handlers.OnWhoisIdleReply(func(_ *Client, nick string, idleSeconds int) { idles = append(idles, idleSeconds) })
	c.Handlers.OnWhoisEnd(func(_ *Client, nick string) { ends = append(ends, nick) })

	conn.feed(
		":s 311 Neko alice ua ha * :Alice A.",
		":s 317 Neko alice 42 123456789 :seconds idle, signon time",
		":s 318 Neko alice :End of /WHOIS list.",
	)
	pollAll(t, c)

	if len(replies) != 1 || replies[0].String() != "alice!ua@ha" || replies[0].Name != "Alice A." {
		t.Fatalf("OnWhoisReply fired with %#v", replies)
	}

	if len(idles) != 1 || idles[0] != 42 {
		t.Fatalf("OnWhoisIdleReply fired with %#v", idles)
	}

	if len(ends) != 1 || ends[0] != "alice" {
		t.Fatalf("OnWhoisEnd fired with %#v", ends)
	}
}

func TestWhoReplyPatchesUser(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #x",
		":s 353 Neko = #x :alice",
		":s 352 Neko #x ua ha irc.server.net alice H@ :2 Alice A.",
	)
	pollAll(t, c)

	alice := c.LookupUser("alice")
	if alice == nil {
		t.Fatal("alice not tracked")
	}

	if alice.Ident != "ua" || alice.Host != "ha" || alice.Name != "Alice A." {
		t.Fatalf("alice = %#v after WHO reply", alice)
	}

	ch, _ := c.LookupChannel("#x")
	if mode, _ := ch.Mode("alice"); mode != "@" {
		t.Errorf("alice mode = %q, want \"@\" from WHO flags", mode)
	}
}

func TestModeRevokeTriggersWhois(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":Neko!u@h JOIN #x",
		":alice!u@h JOIN #x",
		":s MODE #x +o alice",
	)
	pollAll(t, c)
	conn.sent()

	conn.feed(":s MODE #x -o alice")
	pollAll(t, c)

	ch, _ := c.LookupChannel("#x")
	if _, ok := ch.Mode("alice"); ok {
		t.Error("alice still has a mode after -o")
	}

	sent := conn.sent()
	if len(sent) != 1 || sent[0] != "WHOIS alice" {
		t.Fatalf("got %#v, want [\"WHOIS alice\"]", sent)
	}
}

func TestModeMonotonicity(t *testing.T) {
	for _, flags := range [][]string{
		{"+v alice", "+o alice"},
		{"+o alice", "+v alice"},
	} {
		c, conn, _ := genTestClient(t)

		conn.feed(
			":Neko!u@h JOIN #x",
			":alice!u@h JOIN #x",
			":s MODE #x "+flags[0],
			":s MODE #x "+flags[1],
		)
		pollAll(t, c)

		ch, _ := c.LookupChannel("#x")
		if mode, _ := ch.Mode("alice"); mode != "@" {
			t.Errorf("after %v alice mode = %q, want \"@\"", flags, mode)
		}
	}
}

func TestTopicTracking(t *testing.T) {
	c, conn, _ := genTestClient(t)

	var topics []string
	c.Handlers.OnTopic(func(_ *Client, channel, topic string) {
		topics = append(topics, "332:"+channel+":"+topic)
	})
	c.Handlers.OnTopicChange(func(_ *Client, src *User, channel, topic string) {
		topics = append(topics, "topic:"+src.Nick+":"+channel+":"+topic)
	})
	c.Handlers.OnTopicInfo(func(_ *Client, channel, setBy, setAt string) {
		topics = append(topics, "info:"+channel+":"+setBy+":"+setAt)
	})

	conn.feed(
		":Neko!u@h JOIN #x",
		":s 332 Neko #x :original topic",
		":s 333 Neko #x alice!u@h :1609459200",
		":alice!u@h TOPIC #x :new topic",
	)
	pollAll(t, c)

	want := []string{
		"332:#x:original topic",
		"info:#x:alice!u@h:1609459200",
		"topic:alice:#x:new topic",
	}

	if len(topics) != len(want) {
		t.Fatalf("topic events = %#v, want %#v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topic event %d = %q, want %q", i, topics[i], want[i])
		}
	}

	ch, _ := c.LookupChannel("#x")
	if ch.Topic != "new topic" {
		t.Errorf("channel topic = %q, want \"new topic\"", ch.Topic)
	}
}

func TestMOTDBuffering(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":s 375 Neko :- s Message of the Day -",
		":s 372 Neko :line one",
		":s 372 Neko :line two",
		":s 376 Neko :End of /MOTD command.",
	)
	pollAll(t, c)

	if motd := c.ServerMOTD(); motd != "line one\nline two" {
		t.Errorf("ServerMOTD() = %q", motd)
	}
}

func TestWelcomeEvent(t *testing.T) {
	c, conn, _ := genTestClient(t)

	connects := 0
	c.Handlers.OnConnect(func(*Client) { connects++ })

	// Networks may rename on connect; 001 is authoritative.
	conn.feed(":s 001 Neko2 :Welcome to the Test Internet Relay Chat Network Neko2")
	pollAll(t, c)

	if connects != 1 {
		t.Fatalf("OnConnect fired %d times", connects)
	}

	if c.Nick() != "Neko2" {
		t.Errorf("Nick() = %q, want Neko2", c.Nick())
	}
}

func TestServerInfoTracking(t *testing.T) {
	c, conn, _ := genTestClient(t)

	conn.feed(
		":s 002 Neko :Your host is irc.test.net, running version testd-1.2",
		":s 003 Neko :This server was created Mon, 03 Aug 2020 01:02:03 UTC",
		":s 252 Neko 4 :operator(s) online",
		":s 254 Neko 512 :channels formed",
		":s 265 Neko 12 20 :Current local users 12, max 20",
		":s 266 Neko 120 200 :Current global users 120, max 200",
	)
	pollAll(t, c)

	if c.IRCd.Host != "irc.test.net" {
		t.Errorf("IRCd.Host = %q", c.IRCd.Host)
	}
	if c.IRCd.Version != "testd-1.2" {
		t.Errorf("IRCd.Version = %q", c.IRCd.Version)
	}
	if c.IRCd.Compiled.IsZero() {
		t.Error("IRCd.Compiled not parsed")
	}
	if c.IRCd.OperCount != 4 || c.IRCd.ChannelCount != 512 {
		t.Errorf("IRCd counts = %+v", c.IRCd)
	}
	if c.IRCd.LocalUserCount != 12 || c.IRCd.LocalMaxUserCount != 20 {
		t.Errorf("IRCd local users = %+v", c.IRCd)
	}
	if c.IRCd.UserCount != 120 || c.IRCd.MaxUserCount != 200 {
		t.Errorf("IRCd global users = %+v", c.IRCd)
	}
}

func TestLongMessageSplit(t *testing.T) {
	c, conn, _ := genTestClient(t)

	payload := strings.Repeat("A", 500)
	if err := c.Cmd.Message("#x", payload); err != nil {
		t.Fatalf("Message returned error: %v", err)
	}

	sent := conn.sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d lines, want 2", len(sent))
	}

	var rebuilt string
	for _, line := range sent {
		if len(line) > sendBudget {
			t.Errorf("line length %d exceeds %d", len(line), sendBudget)
		}

		if !strings.HasPrefix(line, "PRIVMSG #x :") {
			t.Fatalf("line %q missing command prefix", line)
		}

		rebuilt += strings.TrimPrefix(line, "PRIVMSG #x :")
	}

	if rebuilt != payload {
		t.Errorf("fragments rebuild %d bytes, want original %d", len(rebuilt), len(payload))
	}
}
