// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"bytes"
	"errors"
	"net"
	"os"
)

// ToRFC1459 converts a string to the stripped down conversion within
// RFC 1459. This will do things like replace an "A" with an "a", "[]"
// with "{}", and so forth. Useful to compare two nicknames or channels.
func ToRFC1459(input string) string {
	var out []byte

	for i := 0; i < len(input); i++ {
		if input[i] >= 'A' && input[i] <= '^' {
			out = append(out, input[i]+32)
		} else {
			out = append(out, input[i])
		}
	}

	return string(out)
}

// IsChannel reports whether name refers to a channel: non-empty and
// starting with "#". This is the test used for routing incoming
// messages; see IsValidChannel for full outbound validation.
func IsChannel(name string) bool {
	return len(name) > 0 && name[0] == '#'
}

// IsValidChannel checks if channel is a valid channel name for outbound
// commands: 2 to 50 bytes, starting with "#", followed by the RFC
// chanstring octets. The other RFC channel prefixes ("+", "!", "&") are
// not accepted.
//
//	chanstring =  0x01-0x07 / 0x08-0x09 / 0x0B-0x0C / 0x0E-0x1F / 0x21-0x2B
//	chanstring =  / 0x2D-0x39 / 0x3B-0xFF
//	              ; any octet except NUL, BELL, CR, LF, " ", "," and ":"
func IsValidChannel(channel string) bool {
	if len(channel) <= 1 || len(channel) > 50 {
		return false
	}

	if channel[0] != '#' {
		return false
	}

	// Check for invalid octets here.
	bad := []byte{0x00, 0x07, 0x0D, 0x0A, 0x20, 0x2C, 0x3A}
	for i := 1; i < len(channel); i++ {
		if bytes.IndexByte(bad, channel[i]) != -1 {
			return false
		}
	}

	return true
}

// IsValidNick validates an IRC nickname. Note that this does not
// validate IRC nickname length.
//
//	nickname =  ( letter / special ) *( letter / digit / special / "-" )
//	letter   =  0x41-0x5A / 0x61-0x7A
//	digit    =  0x30-0x39
//	special  =  0x5B-0x60 / 0x7B-0x7D
func IsValidNick(nick string) bool {
	if len(nick) <= 0 {
		return false
	}

	// Some characters aren't allowed for the first index of a nickname.
	if nick[0] < 0x41 || nick[0] > 0x7D {
		// a-z, A-Z, and _\[]{}^|
		return false
	}

	for i := 1; i < len(nick); i++ {
		if (nick[i] < 0x41 || nick[i] > 0x7D) && (nick[i] < 0x30 || nick[i] > 0x39) && nick[i] != 0x2D {
			// a-z, A-Z, 0-9, -, and _\[]{}^|
			return false
		}
	}

	return true
}

// isWouldBlock reports whether a read failed only because no data was
// available before the poll deadline.
func isWouldBlock(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
