/*
Package user contains the participant identity shared by the status relay and its clients.

A participant is derived from a verified session token: the token's user identity
names the participant, and its role decides what the participant may change.
*/
package user

import (
	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/randx"
)

// MediaStatus is the media state a participant reports to the rest of the session.
type MediaStatus struct {
	VideoOn   bool `json:"videoOn"`
	Sharing   bool `json:"sharing"`
	Recording bool `json:"recording"`
}

// User represents one session participant.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {

	// ID is the stable participant key. Tokens carrying the same user identity
	// share an ID, which is how duplicate connections are detected.
	ID string `json:"id"`

	// Name is the display name: the user identity, or a generated guest name.
	Name string `json:"name"`

	// Role is "host" or "participant".
	Role string `json:"role"`

	// Status is the last media state the participant reported.
	Status MediaStatus `json:"status"`
}

// IsHost reports whether the participant joined with a host token.
func (u User) IsHost() bool {
	return u.Role == jwt.RoleHost.String()
}

// FromClaims builds the participant for a verified token. Anonymous tokens get a
// random ID and a guest display name so they never collide with each other.
func FromClaims(c *jwt.Claims) User {
	u := User{Role: c.RoleType.String()}

	if c.UserIdentity != "" {
		u.ID = c.UserIdentity
		u.Name = c.UserIdentity
		return u
	}

	u.ID = randx.MessageID()
	u.Name = randx.GuestName()
	return u
}
