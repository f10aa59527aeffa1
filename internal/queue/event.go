// Package queue defines the account lifecycle events exchanged over the
// message broker and the consumer that records them.
package queue

import "time"

// Account lifecycle event types.
const (
	EventRegistered    = "account.registered"
	EventUpdated       = "account.updated"
	EventDeleted       = "account.deleted"
	EventPasswordReset = "account.password_reset"
)

// AccountEvent is published after a successful account mutation.  It
// carries identifiers only; secrets and profile fields never leave the
// service this way.  Deletions by username may leave AccountID empty and
// deletions by id may leave UserName empty.
type AccountEvent struct {
	Type       string `json:"type"`
	AccountID  string `json:"account_id,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC 3339, UTC
}

// NewAccountEvent stamps an event with the given time.
func NewAccountEvent(typ, accountID, userName string, at time.Time) AccountEvent {
	return AccountEvent{
		Type:       typ,
		AccountID:  accountID,
		UserName:   userName,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
	}
}
