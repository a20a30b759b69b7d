package jwt_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosdk/internal/pkg/auth/jwt"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, clock *fakeClock, opts ...jwt.Option) *jwt.Issuer {
	t.Helper()
	opts = append([]jwt.Option{jwt.WithClock(clock.Now)}, opts...)
	issuer, err := jwt.NewIssuer(jwt.Credentials{AppKey: "ABC", AppSecret: "s3cr3t"}, opts...)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuer(t *testing.T) {
	t.Parallel()

	t.Run("missing key", func(t *testing.T) {
		issuer, err := jwt.NewIssuer(jwt.Credentials{AppSecret: "s3cr3t"})
		var cfgErr *jwt.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "app key", cfgErr.Field)
		assert.Nil(t, issuer)
	})

	t.Run("missing secret", func(t *testing.T) {
		issuer, err := jwt.NewIssuer(jwt.Credentials{AppKey: "ABC"})
		var cfgErr *jwt.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "app secret", cfgErr.Field)
		assert.Nil(t, issuer)
	})

	t.Run("bad options", func(t *testing.T) {
		creds := jwt.Credentials{AppKey: "ABC", AppSecret: "s3cr3t"}

		_, err := jwt.NewIssuer(creds, jwt.WithClockSkew(-time.Second))
		var valErr *jwt.ValidationError
		assert.ErrorAs(t, err, &valErr)

		_, err = jwt.NewIssuer(creds, jwt.WithValidity(0))
		assert.ErrorAs(t, err, &valErr)
	})
}

func TestIssuer_IssueUsesDefaults(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: referenceInstant}
	issuer := newTestIssuer(t, clock)

	issued, err := issuer.Issue(jwt.Request{SessionName: "sdk", Role: jwt.RoleHost})
	require.NoError(t, err)

	assert.Equal(t, int64(1699999970), issued.Claims.IssuedAt)
	assert.Equal(t, int64(1700007170), issued.Claims.ExpiresAt)

	want, err := jwt.GenerateToken(referenceParams())
	require.NoError(t, err)
	assert.Equal(t, want, issued.Token)
}

func TestIssuer_IssueValidityOverride(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: referenceInstant}
	issuer := newTestIssuer(t, clock, jwt.WithClockSkew(0))

	issued, err := issuer.Issue(jwt.Request{SessionName: "sdk", Validity: 30 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, referenceInstant.Unix(), issued.Claims.IssuedAt)
	assert.Equal(t, int64(1800), issued.Claims.ExpiresAt-issued.Claims.IssuedAt)
	assert.Equal(t, jwt.RoleParticipant, issued.Claims.RoleType)
}

func TestIssuer_IssueRejectsEmptySession(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, &fakeClock{now: referenceInstant})

	issued, err := issuer.Issue(jwt.Request{})
	var valErr *jwt.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Empty(t, issued.Token)
}

func TestIssuer_Verify(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: referenceInstant}
	issuer := newTestIssuer(t, clock)

	issued, err := issuer.Issue(jwt.Request{SessionName: "sdk", Role: jwt.RoleHost, UserIdentity: "u1"})
	require.NoError(t, err)

	claims, err := issuer.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "sdk", claims.Topic)
	assert.True(t, claims.IsHost())

	clock.now = referenceInstant.Add(2*time.Hour - 30*time.Second)
	_, err = issuer.Verify(issued.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	clock.now = referenceInstant.Add(-time.Minute)
	_, err = issuer.Verify(issued.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenNotYetValid)
}

func TestIssuer_VerifyRejectsForeignAppKey(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: referenceInstant}
	issuer := newTestIssuer(t, clock)

	p := referenceParams()
	p.AppKey = "OTHER"
	foreign, err := jwt.GenerateToken(p)
	require.NoError(t, err)

	_, err = issuer.Verify(foreign)
	assert.ErrorIs(t, err, jwt.ErrForeignAppKey)
	assert.NotErrorIs(t, err, jwt.ErrInvalidSignature)
}

func TestIssuer_Reissue(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: referenceInstant}
	issuer := newTestIssuer(t, clock)

	first, err := issuer.Issue(jwt.Request{SessionName: "sdk", Role: jwt.RoleHost, UserIdentity: "u1", SessionKey: "k"})
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)
	second, err := issuer.Reissue(first.Claims)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, first.Claims.Topic, second.Claims.Topic)
	assert.Equal(t, first.Claims.RoleType, second.Claims.RoleType)
	assert.Equal(t, first.Claims.UserIdentity, second.Claims.UserIdentity)
	assert.Equal(t, first.Claims.SessionKey, second.Claims.SessionKey)
	assert.Equal(t, first.Claims.IssuedAt+3600, second.Claims.IssuedAt)
}

func TestIdentityExtractorMiddleware(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	issuer := newTestIssuer(t, clock)

	issued, err := issuer.Issue(jwt.Request{SessionName: "sdk", Role: jwt.RoleHost})
	require.NoError(t, err)

	var seen *jwt.Claims
	handler := jwt.IdentityExtractorMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = jwt.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name      string
		header    string
		wantTopic string
	}{
		{"valid bearer", "Bearer " + issued.Token, "sdk"},
		{"lowercase scheme", "bearer " + issued.Token, "sdk"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic abc", ""},
		{"garbage token", "Bearer nope", ""},
	}

	for _, tt := range tests {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, tt.name)
		if tt.wantTopic == "" {
			assert.Nil(t, seen, tt.name)
			continue
		}
		require.NotNil(t, seen, tt.name)
		assert.Equal(t, tt.wantTopic, seen.Topic, tt.name)
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, jwt.ClaimsFromContext(context.Background()))
}

func TestIssuer_Validate(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, &fakeClock{now: referenceInstant})

	tests := []struct {
		name    string
		req     jwt.Request
		wantErr bool
	}{
		{"valid", jwt.Request{SessionName: "sdk", Role: jwt.RoleHost}, false},
		{"empty session", jwt.Request{Role: jwt.RoleHost}, true},
		{"unknown role", jwt.Request{SessionName: "sdk", Role: 7}, true},
		{"200 multi-byte characters", jwt.Request{SessionName: strings.Repeat("会", 200)}, false},
		{"201 multi-byte characters", jwt.Request{SessionName: strings.Repeat("会", 201)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := issuer.Validate(tt.req)
			if !tt.wantErr {
				require.NoError(t, err)
				_, err = issuer.Issue(tt.req)
				assert.NoError(t, err)
				return
			}

			var valErr *jwt.ValidationError
			require.ErrorAs(t, err, &valErr)
			_, err = issuer.Issue(tt.req)
			assert.ErrorAs(t, err, &valErr)
		})
	}
}
