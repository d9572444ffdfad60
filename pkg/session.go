package pkg

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"

	log "github.com/sirupsen/logrus"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	default:
		return "closed"
	}
}

// Session drives one connection through authentication and message relay.
type Session struct {
	server    *Server
	conn      Conn
	reader    *bufio.Reader
	client    *Client
	state     SessionState
	transport string
	logFields log.Fields
}

func newSession(server *Server, conn Conn, transport, remote string) *Session {
	return &Session{
		server:    server,
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, server.config.MaxLineLength),
		state:     StateConnecting,
		transport: transport,
		logFields: log.Fields{
			"transport": transport,
			"remote":    remote,
		},
	}
}

func (s *Session) State() SessionState {
	return s.state
}

// Run blocks until the connection ends.
func (s *Session) Run() {
	RelayServerConnectionsGauge.WithLabelValues(s.transport).Inc()
	defer RelayServerConnectionsGauge.WithLabelValues(s.transport).Dec()

	defer s.close()

	if !s.authenticate() {
		return
	}

	log.WithFields(s.logFields).Info("New session")

	s.relay()
}

func (s *Session) authenticate() bool {
	for attempt := 1; ; attempt++ {
		s.state = StateAuthenticating

		username, ok := s.readLine()
		if !ok {
			return false
		}

		if username == "" {
			log.WithFields(s.logFields).Debug("Empty username, closing")
			return false
		}

		password, ok := s.readLine()
		if !ok {
			return false
		}

		fields := log.Fields{"username": username}
		for k, v := range s.logFields {
			fields[k] = v
		}

		result, err := s.server.store.VerifyOrRegister(username, password)
		if err != nil {
			RelayServerAuthCounter.WithLabelValues("error").Inc()
			log.WithFields(fields).Error("Failed to verify credentials: ", err)
			return false
		}

		RelayServerAuthCounter.WithLabelValues(result.String()).Inc()

		if result == AuthRejected {
			log.WithFields(fields).Info("Incorrect password")
			if _, err := s.conn.Write([]byte(NoticeRejected)); err != nil {
				log.WithFields(fields).Error("Failed to write notice: ", err)
				return false
			}
			if attempt >= s.server.config.AuthAttempts {
				return false
			}
			continue
		}

		client := NewClient(username, s.conn)
		err = s.server.registry.Register(client, []byte(notice(result)))
		if err != nil {
			log.WithFields(fields).Warn("Failed to register client: ", err)
			return false
		}

		fields["client"] = client.UUID()
		fields["result"] = result.String()
		s.logFields = fields
		s.client = client
		s.state = StateActive

		return true
	}
}

// readLine reads one newline-terminated record of at most MaxLineLength
// bytes. A record cut short by end-of-stream or running past the limit
// counts as absent.
func (s *Session) readLine() (string, bool) {
	line, err := s.reader.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			log.WithFields(s.logFields).Debug("Handshake line too long, closing")
		} else if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			log.WithFields(s.logFields).Debug("Failed to read handshake: ", err)
		}
		return "", false
	}

	return strings.TrimSpace(string(line)), true
}

func (s *Session) relay() {
	username := s.client.username
	buffer := make([]byte, s.server.config.ReadBufferSize)

	for {
		n, err := s.reader.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			if len(bytes.TrimSpace(chunk)) > 0 {
				log.WithFields(s.logFields).Debugf("Received %d bytes", n)
				s.server.registry.Broadcast(username, relayFrame(username, chunk))
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.WithFields(s.logFields).Error("Failed to read message: ", err)
			}
			return
		}
	}
}

func (s *Session) close() {
	if s.client != nil {
		s.server.registry.Deregister(s.client)
		log.WithFields(s.logFields).Info("Closed session")
	}

	s.conn.Close()
	s.state = StateClosed
}
