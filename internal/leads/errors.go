package leads

import "errors"

var (
	// ErrMissingUser is returned when a lead has no originating user.
	ErrMissingUser = errors.New("lead user id is required")

	// ErrMissingMessage is returned when a lead has no triggering message.
	ErrMissingMessage = errors.New("lead message is required")

	// ErrLeadNotFound is returned when a lead is not found.
	ErrLeadNotFound = errors.New("lead not found")
)
