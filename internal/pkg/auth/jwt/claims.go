package jwt

import (
	"fmt"
	"time"
)

// RoleType is the authorization level a session token grants inside the session.
type RoleType int

const (
	// RoleParticipant joins the session as a regular attendee.
	RoleParticipant RoleType = 0

	// RoleHost joins with host privileges (cloud recording, share lock).
	RoleHost RoleType = 1
)

// Valid reports whether r is one of the roles the session backend understands.
func (r RoleType) Valid() bool {
	return r == RoleParticipant || r == RoleHost
}

func (r RoleType) String() string {
	switch r {
	case RoleParticipant:
		return "participant"
	case RoleHost:
		return "host"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Claims is the payload of a session token.
//
// Field order is the serialization order: app_key, tpc, role_type, user_identity,
// session_key, iat, exp. The optional identity fields are never omitted so that
// verifiers always see the same key set.
type Claims struct {
	// AppKey is the public identifier of the issuing application.
	AppKey string `json:"app_key"`

	// Topic is the session name the token grants access to.
	Topic string `json:"tpc"`

	// RoleType is the authorization level inside the session.
	RoleType RoleType `json:"role_type"`

	// UserIdentity correlates the token with an application user. May be empty.
	UserIdentity string `json:"user_identity"`

	// SessionKey is an optional extra secret scoping the session. May be empty.
	SessionKey string `json:"session_key"`

	// IssuedAt is the backdated start of validity, in Unix seconds.
	IssuedAt int64 `json:"iat"`

	// ExpiresAt is the end of validity, in Unix seconds.
	ExpiresAt int64 `json:"exp"`
}

// ValidAt checks the temporal claims against t: the token is usable from iat
// (inclusive) until exp (exclusive).
func (c Claims) ValidAt(t time.Time) error {
	now := t.Unix()

	if c.ExpiresAt <= c.IssuedAt {
		return ErrMalformedToken
	}
	if now < c.IssuedAt {
		return ErrTokenNotYetValid
	}
	if now >= c.ExpiresAt {
		return ErrTokenExpired
	}

	return nil
}

// Valid satisfies the golang-jwt Claims interface using the wall clock.
func (c Claims) Valid() error {
	return c.ValidAt(time.Now())
}

// IssuedAtTime returns iat as a time.Time.
func (c Claims) IssuedAtTime() time.Time {
	return time.Unix(c.IssuedAt, 0)
}

// ExpiresAtTime returns exp as a time.Time.
func (c Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// IsHost reports whether the token grants host privileges.
func (c Claims) IsHost() bool {
	return c.RoleType == RoleHost
}
