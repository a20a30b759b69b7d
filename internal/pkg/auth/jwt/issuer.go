package jwt

import "time"

// Credentials is the application credential pair used to sign session tokens.
// It is injected from configuration at startup.
type Credentials struct {
	AppKey    string
	AppSecret string
}

// Request describes one token issuance.
type Request struct {
	SessionName  string
	Role         RoleType
	UserIdentity string
	SessionKey   string

	// Validity overrides the issuer default when positive.
	Validity time.Duration
}

// Issued is a freshly signed token together with the claims it carries.
type Issued struct {
	Token  string
	Claims Claims
}

// Issuer signs and verifies session tokens with a fixed credential pair.
// It holds no mutable state and is safe for concurrent use.
type Issuer struct {
	creds     Credentials
	clockSkew time.Duration
	validity  time.Duration
	now       func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClockSkew sets how far iat is backdated.
func WithClockSkew(d time.Duration) Option {
	return func(i *Issuer) { i.clockSkew = d }
}

// WithValidity sets the default token lifetime.
func WithValidity(d time.Duration) Option {
	return func(i *Issuer) { i.validity = d }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer returns an Issuer for creds. A missing key or secret is a
// *ConfigurationError; invalid skew or validity options are a *ValidationError.
func NewIssuer(creds Credentials, opts ...Option) (*Issuer, error) {
	if creds.AppKey == "" {
		return nil, &ConfigurationError{Field: "app key"}
	}
	if creds.AppSecret == "" {
		return nil, &ConfigurationError{Field: "app secret"}
	}

	i := &Issuer{
		creds:     creds,
		clockSkew: DefaultClockSkew,
		validity:  DefaultValidity,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.clockSkew < 0 {
		return nil, &ValidationError{Field: "clock skew", Reason: "must not be negative"}
	}
	if i.validity < time.Second {
		return nil, &ValidationError{Field: "validity", Reason: "must be at least one second"}
	}

	return i, nil
}

// AppKey returns the public application key the issuer signs for.
func (i *Issuer) AppKey() string {
	return i.creds.AppKey
}

// Issue signs a new token for req. A token is built fresh on every call.
func (i *Issuer) Issue(req Request) (Issued, error) {
	p := i.params(req)

	claims, err := buildClaims(p)
	if err != nil {
		return Issued{}, err
	}

	token, err := signClaims(claims, p.AppSecret)
	if err != nil {
		return Issued{}, err
	}

	return Issued{Token: token, Claims: claims}, nil
}

// Validate runs the checks Issue would run on req without signing anything.
// A nil result means Issue can only fail on a signing error.
func (i *Issuer) Validate(req Request) error {
	_, err := buildClaims(i.params(req))
	return err
}

func (i *Issuer) params(req Request) Params {
	validity := i.validity
	if req.Validity > 0 {
		validity = req.Validity
	}

	return Params{
		SessionName:  req.SessionName,
		AppKey:       i.creds.AppKey,
		AppSecret:    i.creds.AppSecret,
		Role:         req.Role,
		ClockSkew:    i.clockSkew,
		Validity:     validity,
		UserIdentity: req.UserIdentity,
		SessionKey:   req.SessionKey,
		Now:          i.now(),
	}
}

// Reissue signs a new token carrying the same session, role and identity as claims.
func (i *Issuer) Reissue(claims Claims) (Issued, error) {
	return i.Issue(Request{
		SessionName:  claims.Topic,
		Role:         claims.RoleType,
		UserIdentity: claims.UserIdentity,
		SessionKey:   claims.SessionKey,
	})
}

// Verify checks the signature of tokenString, that it was issued for this
// application, and that it is currently within its validity window.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims, err := ParseToken(tokenString, i.creds.AppSecret)
	if err != nil {
		return nil, err
	}

	if claims.AppKey != i.creds.AppKey {
		return nil, ErrForeignAppKey
	}

	if err := claims.ValidAt(i.now()); err != nil {
		return nil, err
	}

	return claims, nil
}
