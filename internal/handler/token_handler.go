package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"videosdk/internal/app/ledger"
	"videosdk/internal/configs"
	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/limiter"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/req"
	"videosdk/internal/pkg/resp"
)

const (
	// MaxExpirationSeconds caps the validity a caller may request (48 hours).
	MaxExpirationSeconds = 48 * 60 * 60

	ledgerWriteTimeout = 2 * time.Second

	// IssuerKeyHeader carries ISSUER_API_KEY on host token requests.
	IssuerKeyHeader = "X-Issuer-Key"
)

type IssueTokenInput struct {
	SessionName string `json:"sessionName"`
	// Role is required: 0 participant, 1 host.
	Role         *int   `json:"role"`
	UserIdentity string `json:"userIdentity,omitempty"`
	SessionKey   string `json:"sessionKey,omitempty"`
	// ExpirationSeconds overrides the configured validity when set.
	ExpirationSeconds int64 `json:"expirationSeconds,omitempty"`
}

type IssueTokenOutput struct {
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// HandleIssueToken signs a session token for the requested session and role.
// Participant tokens are public; host tokens need the issuer key header.
func HandleIssueToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input IssueTokenInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Role == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenRequestInvalid, "role is required"))
			return
		}
		if input.ExpirationSeconds < 0 || input.ExpirationSeconds > MaxExpirationSeconds {
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenRequestInvalid, "expirationSeconds is out of range"))
			return
		}

		request := jwt.Request{
			SessionName:  input.SessionName,
			Role:         jwt.RoleType(*input.Role),
			UserIdentity: input.UserIdentity,
			SessionKey:   input.SessionKey,
			Validity:     time.Duration(input.ExpirationSeconds) * time.Second,
		}

		// The proof token is consumed only by requests that can be issued.
		if err := deps.Issuer.Validate(request); err != nil {
			resp.RespondError(w, r, errs.FromIssuance(err))
			return
		}

		if request.Role == jwt.RoleHost && !hostIssuanceAllowed(r, deps.Config) {
			logx.Warn("Host token request rejected: issuer key missing or wrong", "session_name", request.SessionName)
			resp.RespondError(w, r, errs.NewError(errs.ErrIssuerKeyRequired))
			return
		}

		if err := deps.Gate.Consume(r); err != nil {
			logx.Warn("Token request rejected: proof of work missing or stale")
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		issued, err := deps.Issuer.Issue(request)
		if err != nil {
			resp.RespondError(w, r, errs.FromIssuance(err))
			return
		}

		logx.Info("Session token issued",
			"session_name", issued.Claims.Topic,
			"role", issued.Claims.RoleType.String(),
			"expires_at", issued.Claims.ExpiresAt,
		)

		recordIssuance(r.Context(), deps.Ledger, ledger.NewEntry(issued, logx.AnonymizeIP(limiter.ClientIP(r))))

		resp.RespondSuccess(w, r, IssueTokenOutput{
			Token:     issued.Token,
			IssuedAt:  issued.Claims.IssuedAt,
			ExpiresAt: issued.Claims.ExpiresAt,
		})
	}
}

// hostIssuanceAllowed reports whether r carries the configured issuer key.
// With no key configured, host tokens cannot be requested over HTTP.
func hostIssuanceAllowed(r *http.Request, cfg *configs.AppConfig) bool {
	if cfg == nil || !cfg.HostIssuanceEnabled() {
		return false
	}

	key := r.Header.Get(IssuerKeyHeader)
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(cfg.IssuerAPIKey)) == 1
}

// recordIssuance writes e to the ledger. Failures are logged only: the token
// has already been signed and stays valid.
func recordIssuance(ctx context.Context, rec ledger.Recorder, e ledger.Entry) {
	if rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	if err := rec.Record(ctx, e); err != nil {
		logx.Error(err, "Failed to record token issuance", "session_name", e.SessionName)
	}
}
