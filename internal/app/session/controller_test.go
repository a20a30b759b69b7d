package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosdk/internal/pkg/auth/jwt"
)

func newMountedController(t *testing.T) (*Controller, *fakeSDK, *staticTokens) {
	t.Helper()
	sdk := newFakeSDK()
	tokens := &staticTokens{token: "header.payload.sig"}
	c := NewController(sdk, tokens, DefaultJoinOptions("sdk", "sample_user"))
	c.Mount()
	t.Cleanup(c.Close)
	return c, sdk, tokens
}

func joinSession(t *testing.T, c *Controller, sdk *fakeSDK) {
	t.Helper()
	require.NoError(t, c.ToggleSession(context.Background()))
	sdk.emit(EventSessionJoin, SessionJoinEvent{Myself: User{UserID: "1", UserName: "sample_user"}})
	require.True(t, c.State().InSession)
}

func TestController_MountRegistersOnce(t *testing.T) {
	sdk := newFakeSDK()
	c := NewController(sdk, &staticTokens{}, DefaultJoinOptions("sdk", "u"))

	c.Mount()
	c.Mount()
	assert.Equal(t, 4, sdk.liveListeners())

	for i := 0; i < 10; i++ {
		sdk.emit(EventCloudRecordingStatus, CloudRecordingEvent{Status: RecordingStart})
	}
	assert.Equal(t, 4, len(sdk.subs))

	c.Close()
	assert.Equal(t, 0, sdk.liveListeners())
	for _, sub := range sdk.subs {
		assert.Equal(t, 1, sub.removed)
	}

	c.Close()
	for _, sub := range sdk.subs {
		assert.Equal(t, 1, sub.removed)
	}
}

func TestController_JoinFlow(t *testing.T) {
	c, sdk, tokens := newMountedController(t)

	var seen []State
	c.OnChange(func(s State) { seen = append(seen, s) })

	require.NoError(t, c.ToggleSession(context.Background()))

	assert.True(t, c.State().Loading)
	assert.False(t, c.State().InSession)
	assert.Equal(t, []string{"sdk"}, tokens.calls)
	require.Len(t, sdk.joined, 1)

	cfg := sdk.joined[0]
	assert.Equal(t, "sdk", cfg.SessionName)
	assert.Equal(t, "header.payload.sig", cfg.Token)
	assert.Equal(t, "sample_user", cfg.UserName)
	assert.Equal(t, 5, cfg.SessionIdleTimeoutMins)
	assert.Equal(t, AudioOptions{Connect: true, Mute: false}, cfg.Audio)
	assert.False(t, cfg.Video.LocalVideoOn)

	assert.ErrorIs(t, c.ToggleSession(context.Background()), ErrJoinInProgress)

	sdk.emit(EventSessionJoin, SessionJoinEvent{Myself: User{UserID: "42", UserName: "sample_user"}})

	s := c.State()
	assert.True(t, s.InSession)
	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, "42", s.User.UserID)
	require.NotEmpty(t, seen)
	assert.True(t, seen[len(seen)-1].InSession)
}

func TestController_TokenFailureStopsJoin(t *testing.T) {
	sdk := newFakeSDK()
	issuanceErr := &jwt.ConfigurationError{Field: "app secret"}
	c := NewController(sdk, &staticTokens{err: issuanceErr}, DefaultJoinOptions("sdk", "u"))
	c.Mount()
	defer c.Close()

	err := c.ToggleSession(context.Background())

	var cfgErr *jwt.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, sdk.joined)
	assert.False(t, c.State().Loading)
	assert.False(t, c.State().InSession)
}

func TestController_IssuerTokenSource(t *testing.T) {
	issuer, err := jwt.NewIssuer(jwt.Credentials{AppKey: "ABC", AppSecret: "s3cr3t"})
	require.NoError(t, err)

	sdk := newFakeSDK()
	c := NewController(sdk, IssuerTokenSource{Issuer: issuer, Role: jwt.RoleHost}, DefaultJoinOptions("sdk", "u"))
	require.NoError(t, c.Join(context.Background()))

	require.Len(t, sdk.joined, 1)
	claims, err := issuer.Verify(sdk.joined[0].Token)
	require.NoError(t, err)
	assert.Equal(t, "sdk", claims.Topic)
	assert.Equal(t, jwt.RoleHost, claims.RoleType)
	assert.Equal(t, int64(7200), claims.ExpiresAt-claims.IssuedAt)
	assert.LessOrEqual(t, claims.IssuedAt, time.Now().Unix()-29)
}

func TestController_IssuerTokenSourceRejectsEmptySession(t *testing.T) {
	issuer, err := jwt.NewIssuer(jwt.Credentials{AppKey: "ABC", AppSecret: "s3cr3t"})
	require.NoError(t, err)

	sdk := newFakeSDK()
	c := NewController(sdk, IssuerTokenSource{Issuer: issuer}, DefaultJoinOptions("", "u"))

	err = c.Join(context.Background())
	var valErr *jwt.ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Empty(t, sdk.joined)
}

func TestController_JoinErrorClearsLoading(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	sdk.joinErr = errors.New("network down")

	err := c.ToggleSession(context.Background())
	assert.ErrorContains(t, err, "network down")
	assert.False(t, c.State().Loading)
}

func TestController_ErrorEventClearsLoading(t *testing.T) {
	c, sdk, _ := newMountedController(t)

	require.NoError(t, c.ToggleSession(context.Background()))
	require.True(t, c.State().Loading)

	sdk.emit(EventError, ErrorEvent{Code: "JoinFailed"})
	assert.False(t, c.State().Loading)
	assert.False(t, c.State().InSession)
}

func TestController_Leave(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	joinSession(t, c, sdk)

	sdk.leaveErr = errors.New("already gone")
	err := c.ToggleSession(context.Background())
	assert.Error(t, err)

	assert.Equal(t, []bool{true}, sdk.leaveArgs)
	s := c.State()
	assert.False(t, s.InSession)
	assert.Nil(t, s.User)
}

func TestController_RequiresSession(t *testing.T) {
	c, _, _ := newMountedController(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.ToggleVideo(ctx), ErrNotInSession)
	assert.ErrorIs(t, c.ToggleCloudRecording(ctx), ErrNotInSession)
	assert.ErrorIs(t, c.ToggleScreenShare(ctx), ErrNotInSession)
}

func TestController_ToggleVideo(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	joinSession(t, c, sdk)
	ctx := context.Background()

	require.NoError(t, c.ToggleVideo(ctx))
	assert.True(t, c.State().VideoOn)

	sdk.video.stopResult = ResultInternalError
	err := c.ToggleVideo(ctx)
	var resErr *ResultError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, ResultInternalError, resErr.Result)
	assert.True(t, c.State().VideoOn, "non-success result must not flip state")

	sdk.video.stopResult = ResultSuccess
	require.NoError(t, c.ToggleVideo(ctx))
	assert.False(t, c.State().VideoOn)
	assert.Equal(t, 1, sdk.video.starts)
	assert.Equal(t, 2, sdk.video.stops)
}

func TestController_StartVideoFailureKeepsVideoOff(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	joinSession(t, c, sdk)

	sdk.video.startResult = ResultNoPermission
	err := c.ToggleVideo(context.Background())
	assert.True(t, strings.Contains(err.Error(), "NoPermission"))
	assert.False(t, c.State().VideoOn)
}

func TestController_CloudRecording(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	joinSession(t, c, sdk)
	ctx := context.Background()

	require.NoError(t, c.ToggleCloudRecording(ctx))
	assert.Equal(t, 1, sdk.recording.starts)
	assert.False(t, c.State().CloudRecording, "state follows the event, not the call")

	sdk.emit(EventCloudRecordingStatus, CloudRecordingEvent{Status: RecordingStart})
	assert.True(t, c.State().CloudRecording)

	require.NoError(t, c.ToggleCloudRecording(ctx))
	assert.Equal(t, 1, sdk.recording.stops)

	sdk.emit(EventCloudRecordingStatus, CloudRecordingEvent{Status: "Paused"})
	assert.True(t, c.State().CloudRecording, "unknown status leaves state untouched")

	sdk.emit(EventCloudRecordingStatus, CloudRecordingEvent{Status: RecordingStop})
	assert.False(t, c.State().CloudRecording)

	sdk.recording.result = ResultNoPermission
	var resErr *ResultError
	assert.ErrorAs(t, c.ToggleCloudRecording(ctx), &resErr)
}

func TestController_ScreenShare(t *testing.T) {
	ctx := context.Background()

	t.Run("starts share", func(t *testing.T) {
		c, sdk, _ := newMountedController(t)
		joinSession(t, c, sdk)

		require.NoError(t, c.ToggleScreenShare(ctx))
		assert.Equal(t, []bool{false}, sdk.share.lockCalls)
		assert.Equal(t, 1, sdk.share.shares)
		assert.Equal(t, 0, sdk.share.stops)
	})

	t.Run("stops own share", func(t *testing.T) {
		c, sdk, _ := newMountedController(t)
		joinSession(t, c, sdk)
		sdk.emit(EventUserShareStatusChanged, ShareStatusEvent{User: User{UserName: "sample_user"}, Status: ShareStart})
		require.True(t, c.State().ScreenSharing)

		require.NoError(t, c.ToggleScreenShare(ctx))
		assert.Equal(t, 1, sdk.share.stops)
		assert.Equal(t, 0, sdk.share.shares)

		sdk.emit(EventUserShareStatusChanged, ShareStatusEvent{Status: ShareStop})
		assert.False(t, c.State().ScreenSharing)
	})

	t.Run("other sharing", func(t *testing.T) {
		c, sdk, _ := newMountedController(t)
		joinSession(t, c, sdk)
		sdk.share.otherSharing = true

		assert.ErrorIs(t, c.ToggleScreenShare(ctx), ErrOtherSharing)
		assert.Equal(t, 0, sdk.share.shares)
	})

	t.Run("locked", func(t *testing.T) {
		c, sdk, _ := newMountedController(t)
		joinSession(t, c, sdk)
		sdk.share.locked = true

		assert.ErrorIs(t, c.ToggleScreenShare(ctx), ErrShareLocked)
		assert.Equal(t, 0, sdk.share.shares)
	})
}

func TestController_ListenersStopAfterClose(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	c.Close()

	sdk.emit(EventSessionJoin, SessionJoinEvent{Myself: User{UserID: "1"}})
	assert.False(t, c.State().InSession)
}

func TestController_StateSnapshotIsCopy(t *testing.T) {
	c, sdk, _ := newMountedController(t)
	joinSession(t, c, sdk)

	s := c.State()
	s.User.UserName = "mutated"
	assert.Equal(t, "sample_user", c.State().User.UserName)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "Success", ResultSuccess.String())
	assert.Equal(t, "Result(99)", Result(99).String())
}

func TestController_ConcurrentJoinsStartOnce(t *testing.T) {
	sdk := newFakeSDK()
	tokens := newGatedTokens()
	c := NewController(sdk, tokens, DefaultJoinOptions("sdk", "u"))
	c.Mount()
	defer c.Close()

	const callers = 8
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() { results <- c.ToggleSession(context.Background()) }()
	}

	select {
	case <-tokens.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no join reached the token source")
	}

	inProgress := 0
	for i := 0; i < callers-1; i++ {
		select {
		case err := <-results:
			require.ErrorIs(t, err, ErrJoinInProgress)
			inProgress++
		case <-time.After(2 * time.Second):
			t.Fatal("concurrent join did not return")
		}
	}
	close(tokens.release)

	require.NoError(t, <-results)
	assert.Equal(t, callers-1, inProgress)
	assert.Empty(t, tokens.calls)
	assert.Len(t, sdk.joined, 1)
}
