package listener

import (
	"bytes"
	"io"
)

// crlfReadWriter gives sessions plain "\n" line endings over transports that
// speak CRLF. Reads turn "\r\n" and a lone "\r" into "\n"; writes send every
// "\n" as "\r\n".
type crlfReadWriter struct {
	rw io.ReadWriter

	// lastCR is set when the previous read ended in "\r", so a "\n" opening
	// the next read belongs to the same line ending.
	lastCR bool
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &crlfReadWriter{rw: rw}
}

func (c *crlfReadWriter) Read(p []byte) (int, error) {
	for {
		n, err := c.rw.Read(p)
		if n == 0 {
			return 0, err
		}

		out := p[:0]
		for _, b := range p[:n] {
			switch {
			case b == '\n' && c.lastCR:
				c.lastCR = false
			case b == '\r':
				c.lastCR = true
				out = append(out, '\n')
			default:
				c.lastCR = false
				out = append(out, b)
			}
		}

		// A read holding only the tail of a split "\r\n" has nothing to return.
		if len(out) > 0 || err != nil {
			return len(out), err
		}
	}
}

func (c *crlfReadWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	buf.Grow(len(p) + bytes.Count(p, []byte("\n")))
	for i, b := range p {
		if b == '\n' && (i == 0 || p[i-1] != '\r') {
			buf.WriteByte('\r')
		}
		buf.WriteByte(b)
	}

	if _, err := c.rw.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
