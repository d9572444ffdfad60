package pkg

import (
	"io"
	"time"

	"github.com/gorilla/websocket"
)

// socketConn presents a websocket as the byte stream a session reads.
// Inbound messages are concatenated; each Write is one text message.
type socketConn struct {
	conn   *websocket.Conn
	reader io.Reader
}

func newSocketConn(conn *websocket.Conn) *socketConn {
	return &socketConn{conn: conn}
}

func (c *socketConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, reader, err := c.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.reader = reader
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}

		return n, err
	}
}

func (c *socketConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *socketConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *socketConn) Close() error {
	return c.conn.Close()
}
