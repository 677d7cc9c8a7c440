// Package leads turns detected service requests into qualified leads and
// operator notifications.
package leads

import (
	"strings"
	"time"

	"github.com/dapi/neurozeh-auto-service-bot/internal/pricing"
)

// Signal is the fallback set of facts the language model reports when it
// flags a service request. Transcript analysis overrides these field by
// field; the signal fills whatever analysis could not extract.
type Signal struct {
	Services  []string
	MakeModel string
	Year      int
	Summary   string
}

// Lead is a qualified service request ready for storage and operator
// notification.
type Lead struct {
	ID         string
	UserID     int64
	Username   string
	FirstName  string
	Message    string
	MakeModel  string
	Year       int
	MileageKm  int
	Tier       int
	TierLabel  string
	Services   []string
	Estimate   *pricing.Estimate
	Context    string
	Confidence float64
	CreatedAt  time.Time
}

// Validate checks the lead carries the minimum to act on.
func (l *Lead) Validate() error {
	if l.UserID == 0 {
		return ErrMissingUser
	}
	if strings.TrimSpace(l.Message) == "" {
		return ErrMissingMessage
	}
	return nil
}
