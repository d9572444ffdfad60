package pkg

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Registry tracks the live authenticated clients by username. One lock
// covers membership changes and each broadcast as a whole, so a broadcast
// never interleaves with a register or deregister.
type Registry struct {
	lock         sync.Mutex
	clients      map[string]*Client
	policy       DuplicatePolicy
	writeTimeout time.Duration
}

func NewRegistry(policy DuplicatePolicy, writeTimeout time.Duration) *Registry {
	return &Registry{
		lock:         sync.Mutex{},
		clients:      make(map[string]*Client),
		policy:       policy,
		writeTimeout: writeTimeout,
	}
}

// Register writes greeting to client and inserts it under its username,
// so the greeting always precedes any broadcast the client receives. An
// existing entry for the same username is displaced and its connection
// closed, unless the policy is DuplicateRefuse.
func (r *Registry) Register(client *Client, greeting []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	previous, ok := r.clients[client.username]
	displaced := ok && previous.uuid != client.uuid
	if displaced && r.policy == DuplicateRefuse {
		return ErrAlreadyConnected
	}

	if len(greeting) > 0 {
		if err := client.send(greeting, r.writeTimeout); err != nil {
			return fmt.Errorf("failed to greet client: %w", err)
		}
	}

	if displaced {
		log.WithFields(log.Fields{
			"username": previous.username,
			"client":   previous.uuid,
		}).Info("Displacing previous session")

		previous.conn.Close()
		RelayServerDisplacedCounter.Inc()
	}

	r.clients[client.username] = client
	RelayServerClientsGauge.Set(float64(len(r.clients)))

	return nil
}

// Deregister removes client if it still owns its username's entry.
func (r *Registry) Deregister(client *Client) {
	r.lock.Lock()
	defer r.lock.Unlock()

	current, ok := r.clients[client.username]
	if !ok || current.uuid != client.uuid {
		return
	}

	delete(r.clients, client.username)
	RelayServerClientsGauge.Set(float64(len(r.clients)))
}

// Broadcast delivers payload to every client except sender. Delivery is
// best-effort: failures are logged and the remaining clients still receive
// the payload.
func (r *Registry) Broadcast(sender string, payload []byte) {
	r.lock.Lock()
	defer r.lock.Unlock()

	RelayServerBroadcastsCounter.Inc()

	for username, client := range r.clients {
		if username == sender {
			continue
		}

		if err := client.send(payload, r.writeTimeout); err != nil {
			RelayServerDeliveryFailuresCounter.Inc()
			log.WithFields(log.Fields{
				"sender":    sender,
				"recipient": username,
				"client":    client.uuid,
			}).Error("Failed to deliver message: ", err)
			continue
		}

		RelayServerDeliveriesCounter.Inc()
	}
}

func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.clients)
}

// Usernames returns the registered usernames in sorted order.
func (r *Registry) Usernames() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	usernames := make([]string, 0, len(r.clients))
	for username := range r.clients {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	return usernames
}
