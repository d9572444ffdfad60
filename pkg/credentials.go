package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

type AuthResult int

const (
	AuthRejected AuthResult = iota
	AuthLoggedIn
	AuthRegistered
)

func (r AuthResult) String() string {
	switch r {
	case AuthLoggedIn:
		return "logged_in"
	case AuthRegistered:
		return "registered"
	default:
		return "rejected"
	}
}

// credentialFile is the on-disk shape of the store.
type credentialFile struct {
	Users map[string]string `json:"users"`
}

// CredentialStore maps usernames to password secrets and persists the
// whole mapping on every new registration.
type CredentialStore struct {
	lock   sync.Mutex
	path   string
	hasher *Argon2Hasher
	users  map[string]string
}

// LoadCredentialStore reads the store at path. A missing or unreadable file
// yields an empty store.
func LoadCredentialStore(path string, hasher *Argon2Hasher) *CredentialStore {
	s := &CredentialStore{
		lock:   sync.Mutex{},
		path:   path,
		hasher: hasher,
		users:  make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", path).Warn(
				"Failed to read credentials, starting empty: ", err)
		}
		return s
	}

	var file credentialFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.WithField("path", path).Warn(
			"Failed to parse credentials, starting empty: ", err)
		return s
	}

	for username, secret := range file.Users {
		s.users[username] = secret
	}

	log.WithFields(log.Fields{
		"path":  path,
		"users": len(s.users),
	}).Info("Loaded credentials")

	return s
}

// VerifyOrRegister checks password against the stored secret for username,
// registering the user when the name is unknown.
func (s *CredentialStore) VerifyOrRegister(
	username, password string,
) (AuthResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if secret, ok := s.users[username]; ok {
		match, err := s.hasher.Compare(password, secret)
		if err != nil {
			return AuthRejected, fmt.Errorf(
				"failed to compare secret for %s: %w", username, err)
		}
		if !match {
			return AuthRejected, nil
		}
		return AuthLoggedIn, nil
	}

	secret, err := s.hasher.Hash(password)
	if err != nil {
		return AuthRejected, fmt.Errorf("failed to hash password: %w", err)
	}

	s.users[username] = secret

	if err := s.persist(); err != nil {
		delete(s.users, username)
		return AuthRejected, err
	}

	return AuthRegistered, nil
}

func (s *CredentialStore) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.users)
}

// persist rewrites the credential file. Callers must hold s.lock.
func (s *CredentialStore) persist() error {
	data, err := json.Marshal(credentialFile{Users: s.users})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return nil
}
