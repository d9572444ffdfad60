package pkg

import (
	"fmt"
	"strings"
)

const (
	NoticeLoggedIn   = "Login successful!\n"
	NoticeRejected   = "Incorrect password.\n"
	NoticeRegistered = "New user registered successfully!\n"
)

// notice returns the handshake reply for an accepted or rejected login.
func notice(result AuthResult) string {
	switch result {
	case AuthLoggedIn:
		return NoticeLoggedIn
	case AuthRegistered:
		return NoticeRegistered
	default:
		return NoticeRejected
	}
}

// relayFrame tags a raw chunk with its sender. Invalid UTF-8 is replaced
// rather than forwarded.
func relayFrame(username string, chunk []byte) []byte {
	payload := strings.ToValidUTF8(string(chunk), "\uFFFD")
	return []byte(fmt.Sprintf("%s: %s\n", username, payload))
}
