// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import "errors"

// ErrNotConnected is returned when an outbound operation is attempted
// while the client has no active connection.
var ErrNotConnected = errors.New("client is not connected to server")

// ErrAlreadyConnected is returned by Connect when a connection is
// already established.
var ErrAlreadyConnected = errors.New("client is already connected to server")

// ErrMissingField is returned by Connect when the configured nickname
// or username is empty.
var ErrMissingField = errors.New("configuration is missing nick or user")

// ErrInvalidArgument is returned when an empty string is supplied where
// a value is required (target, message body, mode string, etc).
var ErrInvalidArgument = errors.New("empty string supplied as argument")

// ErrInUseWhileConnected is returned by the ident/realname setters
// while connected; the IRC protocol has no way to change either after
// registration.
var ErrInUseWhileConnected = errors.New("field cannot be changed while connected")

// ErrNickInUseUnhandled is returned by Poll when the server reported a
// nickname collision and no OnNickInUse callback resolved it.
var ErrNickInUseUnhandled = errors.New("nickname in use and no callback handled it")

// ErrNotAChannel is the error returned when a channel operation is
// given a target that is not a channel name.
type ErrNotAChannel struct {
	Target string
}

func (e ErrNotAChannel) Error() string { return "target is not a channel: " + e.Target }

// ErrChannelNotTracked is the error returned when a lookup references a
// channel the client is not currently in.
type ErrChannelNotTracked struct {
	Channel string
}

func (e ErrChannelNotTracked) Error() string { return "channel is not tracked: " + e.Channel }

// ErrNickTooLong is the error returned by SetNick when the server
// advertised a NICKLEN the requested nickname exceeds.
type ErrNickTooLong struct {
	Nick string
	Max  int
}

func (e ErrNickTooLong) Error() string { return "nickname exceeds server NICKLEN: " + e.Nick }

// ProtocolError is the error used for malformed lines: an unterminated
// tag block, a user mode change with no leading +/-, or a bad
// RPL_ISUPPORT token. A ProtocolError is fatal to the line it occurred
// on, never to the session.
type ProtocolError struct {
	Line string
}

func (e ProtocolError) Error() string { return "malformed line: " + e.Line }

// ServerError is returned by Poll when the server sends an ERROR
// message; the server closes the connection afterwards.
type ServerError struct {
	Text string
}

func (e ServerError) Error() string { return "server error: " + e.Text }
