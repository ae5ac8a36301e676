// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Conn is the transport the client drives. net.Conn satisfies it; tests
// and embedders may supply their own implementation (see MockConnect).
// Read is expected to honor SetReadDeadline so that Poll can probe for
// data without blocking.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// pollTimeout is the read deadline used to probe the socket during
// Poll. A read that would otherwise block fails within this window, so
// one poll costs at most a few milliseconds of blocking.
const pollTimeout = 5 * time.Millisecond

// dialTimeout bounds the initial TCP dial.
const dialTimeout = 5 * time.Second

// Connect establishes a connection to the given "host:port" address and
// performs registration (PASS if configured, NICK, USER). The connection
// is then driven entirely by Poll.
func (c *Client) Connect(addr string) error {
	if c.conn != nil {
		return ErrAlreadyConnected
	}

	if c.state.self.Nick == "" || c.state.self.Ident == "" {
		return ErrMissingField
	}

	c.debug.Printf("connecting to %s...", addr)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	return c.start(conn)
}

// MockConnect attaches the client to an already-established transport.
// A useful way to use this is net.Pipe(): pass one end here and drive
// the other end as the server.
func (c *Client) MockConnect(conn Conn) error {
	if c.conn != nil {
		return ErrAlreadyConnected
	}

	if c.state.self.Nick == "" || c.state.self.Ident == "" {
		return ErrMissingField
	}

	return c.start(conn)
}

// start resets session state and registers with the server.
func (c *Client) start(conn Conn) error {
	c.conn = conn
	c.state.reset(false)
	c.framer.reset()
	c.IRCd = Server{}
	c.lastNet = c.now()
	c.timingOut = false

	if c.Config.ServerPass != "" {
		if err := c.write(PASS + " " + c.Config.ServerPass); err != nil {
			return err
		}
	}

	if err := c.write(NICK + " " + c.state.self.Nick); err != nil {
		return err
	}

	name := c.state.self.Name
	if name == "" {
		name = c.state.self.Ident
	}

	return c.write(USER + " " + c.state.self.Ident + " * * :" + name)
}

// Poll performs one non-blocking pump of the connection: a single
// bounded read, framing, parsing, dispatch, and the keep-alive check.
// The returned bool is false once the client is disconnected. Errors
// carry session failures to the caller: an ERROR from the server
// (ServerError), an unhandled nick collision, or a socket error.
func (c *Client) Poll() (bool, error) {
	if c.conn == nil {
		return false, nil
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(pollTimeout))

	lines, n, err := c.framer.read(c.conn)
	if n > 0 {
		c.lastNet = c.now()
		c.timingOut = false
	}

	for _, line := range lines {
		if perr := c.process(line); perr != nil {
			c.teardown()
			return false, perr
		}
	}

	// A callback may have called Quit while we were dispatching.
	if c.conn == nil {
		return false, nil
	}

	if err == nil {
		return c.conn != nil, nil
	}

	if !isWouldBlock(err) {
		c.teardown()
		return false, fmt.Errorf("read: %w", err)
	}

	// Receive would block; this is where wire silence is measured.
	if quiet := c.now().Sub(c.lastNet); quiet >= pingInterval {
		if !c.timingOut {
			c.timingOut = true
			if werr := c.write(PING + " " + keepAliveWord); werr != nil {
				return false, werr
			}
		} else {
			c.debug.Print("no traffic since keep-alive ping, disconnecting")
			c.teardown()
			return false, nil
		}
	}

	return c.conn != nil, nil
}

// process frames one line through the parser and dispatcher. Malformed
// lines and per-line protocol errors are dropped with a debug note; only
// session-fatal errors are returned.
func (c *Client) process(line string) error {
	c.debug.Print("< " + StripRaw(line))

	e, err := ParseEvent(line)
	if err != nil {
		c.debug.Printf("dropping malformed line: %v", err)
		return nil
	}

	err = c.dispatch(e)
	if err == nil {
		return nil
	}

	var perr ProtocolError
	if errors.As(err, &perr) {
		c.debug.Printf("dropping line: %v", err)
		return nil
	}

	return err
}

// write sends one raw line, appending CRLF. Outbound traffic counts
// towards the keep-alive timer just like inbound. A failed write tears
// the connection down.
func (c *Client) write(line string) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	if !c.Config.AllowFlood {
		if delay := c.limiter.Reserve().Delay(); delay > 0 {
			time.Sleep(delay)
		}
	}

	c.debug.Print("> " + StripRaw(line))

	if _, err := c.conn.Write(append([]byte(line), endline...)); err != nil {
		c.teardown()
		return fmt.Errorf("write: %w", err)
	}

	c.lastNet = c.now()

	return nil
}

// Quit sends a QUIT with the given reason (empty for none) and shuts the
// connection down. Calling Quit when already disconnected is a no-op.
func (c *Client) Quit(reason string) error {
	if c.conn == nil {
		return nil
	}

	if reason != "" {
		_ = c.write(QUIT + " :" + reason)
	} else {
		_ = c.write(QUIT)
	}

	c.teardown()

	return nil
}

// teardown closes the socket and drops all session state: tracked
// channels and users, the partial-line buffer, and our visible host.
// Safe to call repeatedly.
func (c *Client) teardown() {
	if c.conn == nil {
		return
	}

	c.debug.Print("tearing down connection")

	_ = c.conn.Close()
	c.conn = nil

	c.state.reset(false)
	c.framer.reset()
	c.timingOut = false
}
