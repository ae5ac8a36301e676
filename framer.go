// Copyright (c) Liam Stanley <me@liamstanley.io>. All rights reserved. Use
// of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package libdirc

import (
	"bytes"
	"io"
)

var endline = []byte("\r\n")

// lineFramer turns a stream of reads into complete CRLF-terminated
// lines. Bytes after the last CRLF of a read are carried over to the
// next one, so a line split across arbitrary read boundaries is
// reassembled before it is ever dispatched. The scratch area is the IRC
// maximum line length; together with the carry this bounds every
// returned line to maxContentLength bytes.
type lineFramer struct {
	carry   []byte
	scratch [maxLineLength]byte
}

// read performs at most one read against r and returns the complete
// lines now available. n is the number of bytes pulled from r this call;
// err is the read error, if any. Lines already buffered are returned
// even when the read itself fails.
func (f *lineFramer) read(r io.Reader) (lines []string, n int, err error) {
	if limit := maxLineLength - len(f.carry); limit > 0 {
		n, err = r.Read(f.scratch[:limit])
	}

	if n == 0 {
		return nil, 0, err
	}

	buf := make([]byte, 0, len(f.carry)+n)
	buf = append(buf, f.carry...)
	buf = append(buf, f.scratch[:n]...)

	for {
		i := bytes.Index(buf, endline)
		if i < 0 {
			break
		}

		if i > 0 {
			lines = append(lines, string(buf[:i]))
		}

		buf = buf[i+2:]
	}

	f.carry = append(f.carry[:0], buf...)

	return lines, n, err
}

// reset drops any partial line; used when the connection goes away.
func (f *lineFramer) reset() {
	f.carry = f.carry[:0]
}
