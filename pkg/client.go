package pkg

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Conn is the byte stream a session runs over.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Client is the registry's handle for one authenticated connection.
type Client struct {
	uuid     uuid.UUID
	username string
	conn     Conn
}

func NewClient(username string, conn Conn) *Client {
	return &Client{
		uuid:     uuid.New(),
		username: username,
		conn:     conn,
	}
}

func (c *Client) UUID() uuid.UUID {
	return c.uuid
}

func (c *Client) Username() string {
	return c.username
}

// send writes payload to the client, bounded by timeout when the
// connection supports write deadlines.
func (c *Client) send(payload []byte, timeout time.Duration) error {
	if d, ok := c.conn.(writeDeadliner); ok && timeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		defer d.SetWriteDeadline(time.Time{})
	}

	_, err := c.conn.Write(payload)
	return err
}
