/*
Package relay fans session status between the participants of a video session.

The media itself flows through the conferencing SDK. The relay only carries the
small state every participant should see (camera on, screen sharing, cloud
recording) plus presence, over one WebSocket per participant. A connection is
authorized by a session token whose tpc names the session.
*/
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"videosdk/internal/app/user"
	"videosdk/internal/pkg/randx"
)

// MessageType identifies a relay message on the wire.
type MessageType string

const (
	TypeInitData          MessageType = "INIT_DATA"
	TypeParticipantJoined MessageType = "PARTICIPANT_JOINED"
	TypeParticipantLeft   MessageType = "PARTICIPANT_LEFT"
	TypeStatus            MessageType = "STATUS"
	TypeError             MessageType = "ERROR"
	TypeTokenUpdate       MessageType = "TOKEN_UPDATE"
)

// SystemUser is the sender of messages generated by the relay itself.
var SystemUser = user.User{ID: "system", Name: "System"}

// Message is the envelope of every relay message.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Session   string          `json:"session"`
	Sender    user.User       `json:"sender"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewMessage builds a message with a fresh ID and the current time in milliseconds.
func NewMessage(msgType MessageType, session string, sender user.User, payload any) (Message, error) {
	msg := Message{
		ID:        randx.MessageID(),
		Type:      msgType,
		Session:   session,
		Sender:    sender,
		Timestamp: time.Now().UnixMilli(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		msg.Payload = raw
	}

	return msg, nil
}

// InitDataPayload is sent once to a client after it joins.
type InitDataPayload struct {
	Self            user.User   `json:"self"`
	Participants    []user.User `json:"participants"`
	MaxParticipants int         `json:"maxParticipants"`
}

// ParticipantPayload carries the participant of a join, leave or status message.
type ParticipantPayload struct {
	Participant user.User `json:"participant"`
}

// ErrorPayload mirrors errs.CustomError for relay clients.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TokenUpdatePayload hands a client the replacement for its expiring token.
type TokenUpdatePayload struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
