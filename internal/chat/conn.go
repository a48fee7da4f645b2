package chat

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
)

// Conn is a line-oriented transport: one line in either direction is one
// protocol message. The TCP listener and the websocket gateway both
// provide one, so a session never knows which transport it is on.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

type netConn struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// NewNetConn wraps a stream connection in line framing.
func NewNetConn(conn net.Conn) Conn {
	return &netConn{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

func (c *netConn) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}

func (c *netConn) WriteLine(line string) error {
	if _, err := c.w.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *netConn) Close() error { return c.conn.Close() }

func (c *netConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }
