package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/logx"
)

var (
	ErrNotInSession   = errors.New("not in a session")
	ErrJoinInProgress = errors.New("session join already in progress")
	ErrOtherSharing   = errors.New("another participant is sharing")
	ErrShareLocked    = errors.New("screen sharing is locked by the host")
)

// ResultError reports an SDK call that returned a non-success Result.
type ResultError struct {
	Op     string
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: sdk returned %s", e.Op, e.Result)
}

// TokenSource produces a fresh session token for every join attempt.
type TokenSource interface {
	SessionToken(ctx context.Context, sessionName string) (string, error)
}

// IssuerTokenSource signs tokens locally with an Issuer.
type IssuerTokenSource struct {
	Issuer       *jwt.Issuer
	Role         jwt.RoleType
	UserIdentity string
	SessionKey   string
}

// SessionToken issues a new token for sessionName.
func (s IssuerTokenSource) SessionToken(_ context.Context, sessionName string) (string, error) {
	issued, err := s.Issuer.Issue(jwt.Request{
		SessionName:  sessionName,
		Role:         s.Role,
		UserIdentity: s.UserIdentity,
		SessionKey:   s.SessionKey,
	})
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// JoinOptions is the fixed part of the join configuration.
type JoinOptions struct {
	SessionName            string
	UserName               string
	SessionPassword        string
	SessionIdleTimeoutMins int
}

// DefaultJoinOptions mirrors the sample application's join settings.
func DefaultJoinOptions(sessionName, userName string) JoinOptions {
	return JoinOptions{
		SessionName:            sessionName,
		UserName:               userName,
		SessionIdleTimeoutMins: 5,
	}
}

// State is the local view of the session.
type State struct {
	Loading        bool  `json:"loading"`
	InSession      bool  `json:"inSession"`
	User           *User `json:"user,omitempty"`
	VideoOn        bool  `json:"videoOn"`
	CloudRecording bool  `json:"cloudRecording"`
	ScreenSharing  bool  `json:"screenSharing"`
}

// Controller owns the SDK listeners of one screen and the state they drive.
// Listeners are registered once by Mount and released once by Close, not on
// every state change.
type Controller struct {
	sdk    SDK
	tokens TokenSource
	opts   JoinOptions

	mu       sync.Mutex
	state    State
	subs     []Subscription
	mounted  bool
	onChange func(State)

	logger zerolog.Logger
}

// NewController returns an unmounted controller.
func NewController(sdk SDK, tokens TokenSource, opts JoinOptions) *Controller {
	return &Controller{
		sdk:    sdk,
		tokens: tokens,
		opts:   opts,
		logger: logx.Component("session").With().Str("session_name", opts.SessionName).Logger(),
	}
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// update applies fn under the lock and notifies the observer outside it.
func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.snapshot()
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// Mount registers the SDK listeners. Calling it again before Close does nothing.
func (c *Controller) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted {
		return
	}
	c.mounted = true

	c.subs = []Subscription{
		c.sdk.AddListener(EventError, c.handleError),
		c.sdk.AddListener(EventSessionJoin, c.handleSessionJoin),
		c.sdk.AddListener(EventCloudRecordingStatus, c.handleCloudRecording),
		c.sdk.AddListener(EventUserShareStatusChanged, c.handleShareStatus),
	}
}

// Close removes every listener registered by Mount. It is safe to call twice.
func (c *Controller) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mounted = false
	c.mu.Unlock()

	for _, sub := range subs {
		if sub != nil {
			sub.Remove()
		}
	}
}

func (c *Controller) handleError(payload any) {
	ev, _ := payload.(ErrorEvent)
	c.logger.Warn().Str("code", ev.Code).Str("message", ev.Message).Msg("SDK reported an error")

	c.update(func(s *State) { s.Loading = false })
}

func (c *Controller) handleSessionJoin(payload any) {
	ev, ok := payload.(SessionJoinEvent)
	if !ok {
		c.logger.Warn().Type("payload", payload).Msg("Unexpected session join payload")
		return
	}

	c.logger.Info().Str("user_id", ev.Myself.UserID).Msg("Joined session")

	me := ev.Myself
	c.update(func(s *State) {
		s.User = &me
		s.InSession = true
		s.Loading = false
	})
}

func (c *Controller) handleCloudRecording(payload any) {
	ev, ok := payload.(CloudRecordingEvent)
	if !ok {
		c.logger.Warn().Type("payload", payload).Msg("Unexpected cloud recording payload")
		return
	}

	switch ev.Status {
	case RecordingStart:
		c.update(func(s *State) { s.CloudRecording = true })
	case RecordingStop:
		c.update(func(s *State) { s.CloudRecording = false })
	default:
		c.logger.Warn().Str("status", string(ev.Status)).Msg("Unhandled cloud recording status")
		return
	}

	c.logger.Info().Str("status", string(ev.Status)).Msg("Cloud recording status changed")
}

func (c *Controller) handleShareStatus(payload any) {
	ev, ok := payload.(ShareStatusEvent)
	if !ok {
		c.logger.Warn().Type("payload", payload).Msg("Unexpected share status payload")
		return
	}

	c.logger.Info().
		Str("status", string(ev.Status)).
		Str("user_name", ev.User.UserName).
		Msg("Screen sharing status changed")

	c.update(func(s *State) { s.ScreenSharing = ev.Status == ShareStart })
}

// ToggleSession leaves the session when joined and joins it otherwise.
func (c *Controller) ToggleSession(ctx context.Context) error {
	if c.State().InSession {
		return c.Leave()
	}
	return c.Join(ctx)
}

// beginJoin sets Loading unless a join is already running. The check and the
// set share one critical section so concurrent callers cannot both start.
func (c *Controller) beginJoin() bool {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return false
	}
	c.state.Loading = true
	snap := c.snapshot()
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
	return true
}

// Join issues a fresh token and asks the SDK to join. The session counts as
// joined only once the SDK delivers EventSessionJoin. A token issuance
// failure stops the join before the SDK is called. A second Join while one is
// in flight returns ErrJoinInProgress.
func (c *Controller) Join(ctx context.Context) error {
	if !c.beginJoin() {
		return ErrJoinInProgress
	}

	token, err := c.tokens.SessionToken(ctx, c.opts.SessionName)
	if err != nil {
		c.logger.Error().Err(err).Msg("Session token issuance failed; not joining")
		c.update(func(s *State) { s.Loading = false })
		return fmt.Errorf("issue session token: %w", err)
	}

	err = c.sdk.JoinSession(ctx, JoinConfig{
		SessionName:            c.opts.SessionName,
		Token:                  token,
		UserName:               c.opts.UserName,
		SessionPassword:        c.opts.SessionPassword,
		SessionIdleTimeoutMins: c.opts.SessionIdleTimeoutMins,
		Audio:                  AudioOptions{Connect: true, Mute: false},
		Video:                  VideoOptions{LocalVideoOn: false},
	})
	if err != nil {
		c.update(func(s *State) { s.Loading = false })
		return fmt.Errorf("join session: %w", err)
	}

	return nil
}

// Leave ends the session and clears the local participant. Local state is
// reset even when the SDK reports an error.
func (c *Controller) Leave() error {
	err := c.sdk.LeaveSession(true)

	c.update(func(s *State) {
		*s = State{}
	})

	if err != nil {
		return fmt.Errorf("leave session: %w", err)
	}
	return nil
}

// ToggleVideo starts or stops the local camera. State only changes on ResultSuccess.
func (c *Controller) ToggleVideo(ctx context.Context) error {
	s := c.State()
	if !s.InSession {
		return ErrNotInSession
	}

	video := c.sdk.Video()

	op, call, target := "start video", video.StartVideo, true
	if s.VideoOn {
		op, call, target = "stop video", video.StopVideo, false
	}

	result, err := call(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result != ResultSuccess {
		return &ResultError{Op: op, Result: result}
	}

	c.update(func(s *State) { s.VideoOn = target })
	return nil
}

// ToggleCloudRecording starts or stops cloud recording. The recording flag
// follows EventCloudRecordingStatus, not the call result.
func (c *Controller) ToggleCloudRecording(ctx context.Context) error {
	s := c.State()
	if !s.InSession {
		return ErrNotInSession
	}

	recording := c.sdk.Recording()

	op, call := "start cloud recording", recording.StartCloudRecording
	if s.CloudRecording {
		op, call = "stop cloud recording", recording.StopCloudRecording
	}

	result, err := call(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Info().Str("op", op).Stringer("result", result).Msg("Cloud recording request sent")

	if result != ResultSuccess {
		return &ResultError{Op: op, Result: result}
	}
	return nil
}

// ToggleScreenShare unlocks sharing, then stops the local share or starts a
// new one unless someone else is sharing or the host locked sharing.
func (c *Controller) ToggleScreenShare(ctx context.Context) error {
	s := c.State()
	if !s.InSession {
		return ErrNotInSession
	}

	share := c.sdk.Share()

	result, err := share.LockShare(ctx, false)
	if err != nil {
		return fmt.Errorf("unlock share: %w", err)
	}
	if result != ResultSuccess {
		c.logger.Debug().Stringer("result", result).Msg("Share unlock not applied")
	}

	otherSharing, err := share.IsOtherSharing(ctx)
	if err != nil {
		return fmt.Errorf("query share state: %w", err)
	}
	locked, err := share.IsShareLocked(ctx)
	if err != nil {
		return fmt.Errorf("query share lock: %w", err)
	}

	switch {
	case otherSharing:
		return ErrOtherSharing
	case locked:
		return ErrShareLocked
	case s.ScreenSharing:
		if err := share.StopShare(ctx); err != nil {
			return fmt.Errorf("stop share: %w", err)
		}
	default:
		if err := share.ShareScreen(ctx); err != nil {
			return fmt.Errorf("share screen: %w", err)
		}
	}

	return nil
}
