/*
Package handler provides the HTTP handlers and routing setup for the video SDK
session server.

This file defines the main Router, applying logging, CORS and IP-based rate
limiting before delegating requests to the API and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/limiter"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/pow"
	"videosdk/internal/pkg/resp"
)

const (
	TokenRate  = 0.5
	TokenBurst = 5
	JoinRate   = 0.2
	JoinBurst  = 5
)

// Router sets up the main HTTP routing table for the application.
func Router(deps *AppDeps) http.Handler {
	tokenLimiter := deps.TokenLimiter
	if tokenLimiter == nil {
		tokenLimiter = limiter.NewIPRateLimiter(rate.Limit(TokenRate), TokenBurst)
	}
	wsLimiter := deps.WSLimiter
	if wsLimiter == nil {
		wsLimiter = limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", pow.TokenHeaderKey, IssuerKeyHeader},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Video SDK Session Server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Issuer))

		api.Route("/pow", func(p chi.Router) {
			p.With(tokenLimiter.Middleware).Get("/challenge", HandlePowChallenge(deps))
			p.Post("/verify", HandlePowVerify(deps))
		})

		api.With(tokenLimiter.Middleware).Post("/token", HandleIssueToken(deps))

		api.Get("/ledger", HandleListIssuances(deps))

		api.Route("/recordings", func(rec chi.Router) {
			rec.Get("/download", HandleRecordingDownload(deps))
			rec.Get("/meta", HandleRecordingMetadata(deps))
			rec.Delete("/", HandleRecordingDelete(deps))
		})
	})

	r.Get("/ws/{session}", HandleWebSocket(deps, wsUpgrader, wsLimiter))

	return r
}

// requireHost returns the caller's claims when they hold a host token for
// their session, and answers the request with an error otherwise.
func requireHost(w http.ResponseWriter, r *http.Request) *jwt.Claims {
	claims := jwt.ClaimsFromContext(r.Context())
	if claims == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
		return nil
	}
	if !claims.IsHost() {
		resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
		return nil
	}
	return claims
}
