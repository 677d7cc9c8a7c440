package conversation

import (
	"errors"
	"time"
)

// Chat roles accepted by the history store. The transport layer guarantees
// these values; anything else is a broken collaborator contract.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidRole is returned when a turn carries a role outside the
// user/assistant contract.
var ErrInvalidRole = errors.New("conversation: invalid turn role")

// Turn is one message of a conversation, immutable once created.
type Turn struct {
	Role       string
	Text       string
	OccurredAt time.Time
}

// ValidRole reports whether role is one of the contract values.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// Stats summarizes stored history for operational reporting.
type Stats struct {
	Users    int
	Messages int
}
