/*
Package configs loads the server configuration from environment variables.

The video SDK credential pair is required in every environment: a missing key
or secret stops the server at startup instead of producing unusable tokens.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/pow"
)

// MinIssuerAPIKeyLength is the shortest accepted ISSUER_API_KEY.
const MinIssuerAPIKeyLength = 24

// AppConfig contains every setting the server needs.
type AppConfig struct {
	// General Server Settings
	Environment   string
	Port          int
	PowDifficulty int

	// Security Settings
	AllowedOrigins []string

	// Session Token Settings
	AppKey        string
	AppSecret     string
	TokenSkew     time.Duration
	TokenValidity time.Duration

	// IssuerAPIKey authorizes host-role issuance over HTTP. Empty disables it.
	IssuerAPIKey string

	// S3 Recording Archive Settings (optional)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Database Settings (optional)
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IssuerCredentials returns the credential pair injected into the token issuer.
func (c *AppConfig) IssuerCredentials() jwt.Credentials {
	return jwt.Credentials{AppKey: c.AppKey, AppSecret: c.AppSecret}
}

// HostIssuanceEnabled reports whether host tokens can be requested over HTTP.
func (c *AppConfig) HostIssuanceEnabled() bool {
	return c.IssuerAPIKey != ""
}

// ArchiveEnabled reports whether the S3 recording archive is configured.
func (c *AppConfig) ArchiveEnabled() bool {
	return c.S3BucketName != ""
}

// LedgerEnabled reports whether issuances are recorded in PostgreSQL.
func (c *AppConfig) LedgerEnabled() bool {
	return c.DatabaseDSN != ""
}

// LoadConfig reads the configuration from the environment, applying defaults
// and validating every value.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getenvDefault("ENVIRONMENT", "development")

	port, err := atoiEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (%d-%d)", port, 1024, 65535)
	}
	cfg.Port = port

	difficulty, err := atoiEnv("POW_DIFFICULTY", 0)
	if err != nil {
		return nil, err
	}
	if difficulty < 0 || difficulty > pow.MaxDifficulty {
		return nil, fmt.Errorf("POW_DIFFICULTY must be between 0 and %d, got %d", pow.MaxDifficulty, difficulty)
	}
	cfg.PowDifficulty = difficulty

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// --- Session Token Settings ---
	// No development fallback: a token signed with a placeholder secret would
	// only fail later, at the SDK backend.
	cfg.AppKey = os.Getenv("VIDEOSDK_APP_KEY")
	if cfg.AppKey == "" {
		return nil, fmt.Errorf("VIDEOSDK_APP_KEY environment variable is required")
	}
	cfg.AppSecret = os.Getenv("VIDEOSDK_APP_SECRET")
	if cfg.AppSecret == "" {
		return nil, fmt.Errorf("VIDEOSDK_APP_SECRET environment variable is required")
	}

	skew, err := atoiEnv("TOKEN_CLOCK_SKEW_SECONDS", int(jwt.DefaultClockSkew/time.Second))
	if err != nil {
		return nil, err
	}
	if skew < 0 {
		return nil, fmt.Errorf("TOKEN_CLOCK_SKEW_SECONDS must not be negative, got %d", skew)
	}
	cfg.TokenSkew = time.Duration(skew) * time.Second

	validity, err := atoiEnv("TOKEN_VALIDITY_SECONDS", int(jwt.DefaultValidity/time.Second))
	if err != nil {
		return nil, err
	}
	if validity <= 0 {
		return nil, fmt.Errorf("TOKEN_VALIDITY_SECONDS must be positive, got %d", validity)
	}
	cfg.TokenValidity = time.Duration(validity) * time.Second

	cfg.IssuerAPIKey = os.Getenv("ISSUER_API_KEY")
	if cfg.IssuerAPIKey != "" && len(cfg.IssuerAPIKey) < MinIssuerAPIKeyLength {
		return nil, fmt.Errorf("ISSUER_API_KEY must be at least %d characters", MinIssuerAPIKeyLength)
	}

	// --- S3 Recording Archive Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	s3Set := 0
	for _, v := range []string{cfg.S3BucketName, cfg.S3Endpoint, cfg.S3AccessKeyID, cfg.S3SecretAccessKey} {
		if v != "" {
			s3Set++
		}
	}
	if s3Set != 0 && s3Set != 4 {
		return nil, fmt.Errorf("S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}
