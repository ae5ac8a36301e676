// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import "testing"

func mustParse(t *testing.T, raw string) *Event {
	t.Helper()

	e, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent(%q) returned error: %v", raw, err)
	}

	return e
}

func TestDecodeCTCP(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		cmd   string
		text  string
		reply bool
	}{
		{name: "bare query", in: ":a!b@c PRIVMSG me :\x01VERSION\x01", cmd: "VERSION"},
		{name: "query with args", in: ":a!b@c PRIVMSG me :\x01PING 1234\x01", cmd: "PING", text: "1234"},
		{name: "reply", in: ":a!b@c NOTICE me :\x01PING 1234\x01", cmd: "PING", text: "1234", reply: true},
		{name: "action", in: ":a!b@c PRIVMSG #chan :\x01ACTION does a thing\x01", cmd: "ACTION", text: "does a thing"},
	}

	for _, tt := range cases {
		ctcp := decodeCTCP(mustParse(t, tt.in))
		if ctcp == nil {
			t.Errorf("%s: decodeCTCP returned nil", tt.name)
			continue
		}

		if ctcp.Command != tt.cmd || ctcp.Text != tt.text || ctcp.Reply != tt.reply {
			t.Errorf("%s: decodeCTCP = %#v", tt.name, ctcp)
		}
	}
}

func TestDecodeCTCPRejects(t *testing.T) {
	for _, in := range []string{
		":a!b@c PRIVMSG me :not ctcp",
		":a!b@c PRIVMSG me :\x01\x01",
		":a!b@c PRIVMSG me :\x01bad tag!\x01",
		":a!b@c PRIVMSG me :\x01HALFOPEN",
		":a!b@c JOIN :\x01VERSION\x01",
	} {
		if ctcp := decodeCTCP(mustParse(t, in)); ctcp != nil {
			t.Errorf("decodeCTCP(%q) = %#v, want nil", in, ctcp)
		}
	}
}

func TestEncodeCTCPRaw(t *testing.T) {
	if out := encodeCTCPRaw("PING", "1234"); out != "\x01PING 1234\x01" {
		t.Errorf("encodeCTCPRaw = %q", out)
	}

	if out := encodeCTCPRaw("VERSION", ""); out != "\x01VERSION\x01" {
		t.Errorf("encodeCTCPRaw = %q", out)
	}

	if out := encodeCTCPRaw("", "text"); out != "" {
		t.Errorf("encodeCTCPRaw with no command = %q", out)
	}
}

func TestCTCPSetAndClear(t *testing.T) {
	ctcp := newCTCP()

	called := false
	ctcp.Set("custom", func(*Client, CTCPEvent) { called = true })

	if _, ok := ctcp.handlers["CUSTOM"]; !ok {
		t.Fatal("Set did not register the upper-cased tag")
	}

	ctcp.Clear("CUSTOM")
	if _, ok := ctcp.handlers["CUSTOM"]; ok {
		t.Fatal("Clear did not remove the handler")
	}

	// Invalid tags are rejected outright.
	ctcp.Set("bad tag", func(*Client, CTCPEvent) {})
	if _, ok := ctcp.handlers["BAD TAG"]; ok {
		t.Fatal("Set accepted an invalid tag")
	}

	_ = called
}

func TestCTCPClearAllRestoresDefaults(t *testing.T) {
	ctcp := newCTCP()

	ctcp.Clear(CTCP_PING)
	ctcp.ClearAll()

	for _, tag := range []string{CTCP_PING, CTCP_VERSION, CTCP_SOURCE, CTCP_TIME} {
		if _, ok := ctcp.handlers[tag]; !ok {
			t.Errorf("default handler for %s missing after ClearAll", tag)
		}
	}
}
