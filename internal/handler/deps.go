package handler

import (
	"videosdk/internal/app/ledger"
	"videosdk/internal/app/relay"
	"videosdk/internal/app/storage"
	"videosdk/internal/configs"
	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/limiter"
	"videosdk/internal/pkg/pow"
)

// AppDeps bundles everything the handlers need.
type AppDeps struct {
	Config *configs.AppConfig
	Issuer *jwt.Issuer
	Gate   *pow.Gate
	Ledger ledger.Recorder
	Relay  *relay.Manager

	// Archive is nil when no recording storage is configured.
	Archive storage.RecordingArchive

	// Optional; Router creates default limiters when nil.
	TokenLimiter *limiter.IPRateLimiter
	WSLimiter    *limiter.IPRateLimiter
}
