/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

HandleWebSocket rate limits the caller, verifies the session token against the
session in the path, upgrades the connection and hands it to the relay.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/limiter"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process relay connection requests.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		session := chi.URLParam(r, "session")
		if session == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		// Browsers cannot set headers on a WebSocket handshake, so the token
		// travels in the query string.
		claims, err := deps.Issuer.Verify(r.URL.Query().Get("token"))
		if err != nil {
			logx.Info("WebSocket connection rejected: invalid session token", "session_name", session)
			resp.RespondError(w, r, errs.FromIssuance(err))
			return
		}

		if claims.Topic != session {
			logx.Warn("WebSocket connection rejected: token issued for another session", "session_name", session)
			resp.RespondError(w, r, errs.NewError(errs.ErrSessionMismatch))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if err := deps.Relay.Attach(conn, claims); err != nil {
			logx.Warn("Relay refused connection", "session_name", session, "error", err.Error())
			closeUnavailable(conn)
			return
		}

		logx.Info("WebSocket connection established", "session_name", session, "role", claims.RoleType.String())
	}
}

func closeUnavailable(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "relay unavailable")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
