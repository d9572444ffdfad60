package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server wires the credential store and client registry to the
// transports that feed sessions.
type Server struct {
	config   Config
	store    *CredentialStore
	registry *Registry
	upgrader websocket.Upgrader
}

func NewServer(config Config, store *CredentialStore) *Server {
	return &Server{
		config: config,
		store:  store,
		registry: NewRegistry(
			DuplicatePolicy(config.DuplicateLogin), config.WriteTimeout),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.ReadBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// ServeConn runs a session over conn until it ends.
func (s *Server) ServeConn(conn Conn, transport, remote string) {
	newSession(s, conn, transport, remote).Run()
}

// Serve accepts connections from listener until ctx is cancelled or the
// listener is closed. Each connection is served on its own goroutine.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}

			log.WithField("retry", delay).Error("Failed to accept connection: ", err)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		log.WithField("remote", conn.RemoteAddr()).Debug("Accepted connection")

		go s.ServeConn(conn, "tcp", conn.RemoteAddr().String())
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.registry.Len(),
	})
}

func (s *Server) SocketHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: ", err)
		return
	}

	s.ServeConn(newSocketConn(conn), "websocket", conn.RemoteAddr().String())
}
