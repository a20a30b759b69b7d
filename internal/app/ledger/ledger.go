/*
Package ledger keeps an audit trail of issued session tokens.

Only metadata is stored: the session, role, user identity, validity window and
the anonymised caller address. Neither the signed token nor the session key is
ever written.
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"videosdk/internal/pkg/auth/jwt"
)

const (
	// DefaultListLimit applies when a caller asks for a non-positive limit.
	DefaultListLimit = 50

	// MaxListLimit caps a single ListBySession call.
	MaxListLimit = 200
)

// ErrDisabled is returned by queries against a ledger that stores nothing.
var ErrDisabled = errors.New("issuance ledger is disabled")

// Entry is one recorded issuance.
type Entry struct {
	ID           uuid.UUID    `json:"id"`
	SessionName  string       `json:"sessionName"`
	Role         jwt.RoleType `json:"role"`
	UserIdentity string       `json:"userIdentity"`
	IssuedAt     time.Time    `json:"issuedAt"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	RemoteIP     string       `json:"remoteIp"`
}

// NewEntry describes issued without keeping the token or the session key.
func NewEntry(issued jwt.Issued, remoteIP string) Entry {
	return Entry{
		ID:           uuid.New(),
		SessionName:  issued.Claims.Topic,
		Role:         issued.Claims.RoleType,
		UserIdentity: issued.Claims.UserIdentity,
		IssuedAt:     issued.Claims.IssuedAtTime().UTC(),
		ExpiresAt:    issued.Claims.ExpiresAtTime().UTC(),
		RemoteIP:     remoteIP,
	}
}

// Recorder stores and lists issuances.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	ListBySession(ctx context.Context, sessionName string, limit int) ([]Entry, error)
}

// NopRecorder accepts every entry and keeps none.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

func (NopRecorder) ListBySession(context.Context, string, int) ([]Entry, error) {
	return nil, ErrDisabled
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
