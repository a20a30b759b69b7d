package jwt

import (
	"errors"
	"time"
	"unicode/utf8"

	gojwt "github.com/golang-jwt/jwt"
)

const (
	// DefaultClockSkew is how far iat is backdated to absorb clock drift
	// between this server and the verifying backend.
	DefaultClockSkew = 30 * time.Second

	// DefaultValidity is the lifetime of a session token.
	DefaultValidity = 2 * time.Hour

	// MaxSessionNameLength is the longest session name the SDK backend accepts,
	// counted in characters rather than bytes.
	MaxSessionNameLength = 200
)

// Params holds every input of a single token issuance.
type Params struct {
	SessionName  string
	AppKey       string
	AppSecret    string
	Role         RoleType
	ClockSkew    time.Duration
	Validity     time.Duration
	UserIdentity string
	SessionKey   string

	// Now is the issuance instant. The zero value means time.Now().
	Now time.Time
}

// GenerateToken builds and signs a session token from p.
//
// iat is Now minus ClockSkew and exp is iat plus Validity, both truncated to whole
// seconds. The header is {"alg":"HS256","typ":"JWT"} and the signature is
// HMAC-SHA-256 over the two base64url segments, keyed with AppSecret.
func GenerateToken(p Params) (string, error) {
	claims, err := buildClaims(p)
	if err != nil {
		return "", err
	}

	return signClaims(claims, p.AppSecret)
}

// buildClaims validates p and lays out the payload. Credentials are checked first,
// then the request fields.
func buildClaims(p Params) (Claims, error) {
	if p.AppKey == "" {
		return Claims{}, &ConfigurationError{Field: "app key"}
	}
	if p.AppSecret == "" {
		return Claims{}, &ConfigurationError{Field: "app secret"}
	}

	if p.SessionName == "" {
		return Claims{}, &ValidationError{Field: "session name", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(p.SessionName) > MaxSessionNameLength {
		return Claims{}, &ValidationError{Field: "session name", Reason: "must be at most 200 characters"}
	}
	if !p.Role.Valid() {
		return Claims{}, &ValidationError{Field: "role", Reason: "must be 0 (participant) or 1 (host)"}
	}
	if p.ClockSkew < 0 {
		return Claims{}, &ValidationError{Field: "clock skew", Reason: "must not be negative"}
	}
	if p.Validity < time.Second {
		return Claims{}, &ValidationError{Field: "validity", Reason: "must be at least one second"}
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	iat := now.Unix() - int64(p.ClockSkew/time.Second)

	return Claims{
		AppKey:       p.AppKey,
		Topic:        p.SessionName,
		RoleType:     p.Role,
		UserIdentity: p.UserIdentity,
		SessionKey:   p.SessionKey,
		IssuedAt:     iat,
		ExpiresAt:    iat + int64(p.Validity/time.Second),
	}, nil
}

func signClaims(claims Claims, secret string) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", &SigningError{Err: err}
	}
	if signed == "" {
		return "", &SigningError{Err: errors.New("signer produced an empty token")}
	}

	return signed, nil
}

// ParseToken checks the structure, algorithm and signature of tokenString against
// secret and returns its claims. Temporal claims are not checked here; use
// Claims.ValidAt or Issuer.Verify for that.
func ParseToken(tokenString string, secret string) (*Claims, error) {
	if secret == "" {
		return nil, &ConfigurationError{Field: "app secret"}
	}

	parser := &gojwt.Parser{
		ValidMethods:         []string{gojwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	return claims, nil
}

func classifyParseError(err error) error {
	var vErr *gojwt.ValidationError
	if errors.As(err, &vErr) && vErr.Errors&gojwt.ValidationErrorSignatureInvalid != 0 {
		return ErrInvalidSignature
	}
	return ErrMalformedToken
}
