// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

// Package libdirc provides a polled, single-threaded IRC client library
// with user/channel tracking. The library maintains one connection to an
// IRC server, parses incoming lines into events, keeps a live model of
// the channels the client is in (members, per-channel user modes, the
// server's PREFIX/CHANMODES vocabulary), and delivers typed callbacks
// for everything it sees.
//
// Unlike goroutine-per-connection libraries, libdirc never spawns
// background routines. The host owns the schedule: it calls Client.Poll
// in a loop, and each poll performs at most one bounded read, frames and
// parses the complete lines it received, updates tracking state, and
// fires callbacks in registration order.
//
// See the package Example (example_test.go) for a brief and very useful
// example that should give you a general idea of how the API works.
package libdirc
