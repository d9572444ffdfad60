package pkg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testHasher() *Argon2Hasher {
	return &Argon2Hasher{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errBrokenPipe = errors.New("broken pipe")

// fakeConn records writes and can be told to fail them.
type fakeConn struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	fail   bool
	closed bool
}

func (c *fakeConn) Read(p []byte) (int, error) {
	return 0, net.ErrClosed
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return 0, errBrokenPipe
	}
	return c.buf.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// startServer runs a server on a loopback listener for the duration of
// the test and returns it with its address.
func startServer(t *testing.T, config Config) (*Server, string) {
	t.Helper()

	if config.CredentialsPath == "" {
		config.CredentialsPath = filepath.Join(t.TempDir(), "credentials.json")
	}

	store := LoadCredentialStore(config.CredentialsPath, testHasher())
	server := NewServer(config, store)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return server, listener.Addr().String()
}

func testConfig() Config {
	config := DefaultConfig()
	config.CredentialsPath = ""
	config.WriteTimeout = time.Second
	return config
}

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(t *testing.T, data string) {
	t.Helper()
	_, err := c.conn.Write([]byte(data))
	require.NoError(t, err)
}

func (c *testClient) readLine(t *testing.T) string {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(t, err)
	return line
}

// login performs the handshake and returns the server's notice.
func (c *testClient) login(t *testing.T, username, password string) string {
	t.Helper()
	c.send(t, username+"\n"+password+"\n")
	return c.readLine(t)
}

// expectSilence asserts nothing arrives within a short window.
func (c *testClient) expectSilence(t *testing.T) {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err := c.reader.ReadByte()
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(),
		"expected timeout, got %v", err)
}

// expectClosed asserts the server closed the connection.
func (c *testClient) expectClosed(t *testing.T) {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := c.reader.ReadByte()
	require.Error(t, err)
	var netErr net.Error
	require.False(t, errors.As(err, &netErr) && netErr.Timeout(),
		"expected close, got timeout")
}
