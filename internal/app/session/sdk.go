/*
Package session drives a video SDK session from application code.

The conferencing SDK itself (media, transport, session protocol) is a black box
reached through the interfaces in this file. Controller keeps the local view of
the session in sync with SDK events, and BroadcastAdapter forwards screen
broadcast lifecycle calls into the SDK's screen-share service.
*/
package session

import (
	"context"
	"fmt"
)

// EventType identifies an SDK event stream.
type EventType string

const (
	EventError                  EventType = "onError"
	EventSessionJoin            EventType = "onSessionJoin"
	EventCloudRecordingStatus   EventType = "onCloudRecordingStatus"
	EventUserShareStatusChanged EventType = "onUserShareStatusChanged"
)

// User is a session participant as reported by the SDK.
type User struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsHost   bool   `json:"isHost"`
}

// RecordingStatus is the cloud recording state carried by EventCloudRecordingStatus.
type RecordingStatus string

const (
	RecordingStart RecordingStatus = "Start"
	RecordingStop  RecordingStatus = "Stop"
)

// ShareStatus is the share state carried by EventUserShareStatusChanged.
type ShareStatus string

const (
	ShareStart ShareStatus = "Start"
	ShareStop  ShareStatus = "Stop"
)

// ErrorEvent is delivered on EventError.
type ErrorEvent struct {
	Code    string
	Message string
}

// SessionJoinEvent is delivered on EventSessionJoin with the local participant.
type SessionJoinEvent struct {
	Myself User
}

// CloudRecordingEvent is delivered on EventCloudRecordingStatus.
type CloudRecordingEvent struct {
	Status RecordingStatus
}

// ShareStatusEvent is delivered on EventUserShareStatusChanged.
type ShareStatusEvent struct {
	User   User
	Status ShareStatus
}

// Handler receives an event payload; its concrete type depends on the EventType.
type Handler func(payload any)

// Subscription is returned by AddListener; Remove detaches the handler.
type Subscription interface {
	Remove()
}

// Result is the SDK's enumerated outcome code. Only ResultSuccess is success.
type Result int

const (
	ResultSuccess Result = iota
	ResultWrongUsage
	ResultInternalError
	ResultUninitialized
	ResultNoPermission
	ResultSessionNotStarted
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultWrongUsage:
		return "WrongUsage"
	case ResultInternalError:
		return "InternalError"
	case ResultUninitialized:
		return "Uninitialized"
	case ResultNoPermission:
		return "NoPermission"
	case ResultSessionNotStarted:
		return "SessionNotStarted"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// AudioOptions configures audio on join.
type AudioOptions struct {
	Connect bool
	Mute    bool
}

// VideoOptions configures video on join.
type VideoOptions struct {
	LocalVideoOn bool
}

// JoinConfig is passed to SDK.JoinSession. Token is a signed session token.
type JoinConfig struct {
	SessionName            string
	Token                  string
	UserName               string
	SessionPassword        string
	SessionIdleTimeoutMins int
	Audio                  AudioOptions
	Video                  VideoOptions
}

// VideoHelper controls the local camera.
type VideoHelper interface {
	StartVideo(ctx context.Context) (Result, error)
	StopVideo(ctx context.Context) (Result, error)
}

// RecordingHelper controls cloud recording. Status changes arrive as events.
type RecordingHelper interface {
	StartCloudRecording(ctx context.Context) (Result, error)
	StopCloudRecording(ctx context.Context) (Result, error)
}

// ShareHelper controls screen sharing.
type ShareHelper interface {
	ShareScreen(ctx context.Context) error
	StopShare(ctx context.Context) error
	IsOtherSharing(ctx context.Context) (bool, error)
	IsShareLocked(ctx context.Context) (bool, error)
	LockShare(ctx context.Context, lock bool) (Result, error)
}

// SDK is the subset of the conferencing SDK the application relies on.
type SDK interface {
	JoinSession(ctx context.Context, cfg JoinConfig) error
	LeaveSession(endSession bool) error
	AddListener(event EventType, handler Handler) Subscription
	Video() VideoHelper
	Recording() RecordingHelper
	Share() ShareHelper
}
