package chat

import (
	"strings"

	"github.com/gorilla/websocket"
)

// wsConn adapts a websocket connection to the line protocol: one text
// frame in either direction is one protocol line. Only the session's
// writer goroutine calls WriteLine, which satisfies gorilla's
// single-writer requirement.
type wsConn struct {
	conn *websocket.Conn
}

// NewWSConn wraps an upgraded websocket connection so a websocket client
// runs the same session lifecycle as a TCP one.
func NewWSConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadLine() (string, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error { return c.conn.Close() }

func (c *wsConn) RemoteAddr() string { return c.conn.RemoteAddr().String() }
