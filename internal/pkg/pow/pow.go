/*
Package pow implements an optional proof-of-work gate in front of the public
token endpoint.

A client asks for a nonce, searches for a counter such that
sha256(nonce + counter) in hex starts with `difficulty` zeros, and exchanges the
proof for a short-lived, single-use proof token that accompanies its token request.
*/
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenHeaderKey carries the proof token on the token request.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is how long a proof token can be redeemed.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is how long a challenge nonce stays solvable.
	NonceExpiryDuration = 5 * time.Minute

	// MaxDifficulty bounds the number of leading hex zeros.
	MaxDifficulty = 8
)

var (
	ErrNonceUnknown    = errors.New("nonce expired or unknown")
	ErrProofTooWeak    = errors.New("proof does not meet difficulty")
	ErrNonceConsumed   = errors.New("nonce consumed by concurrent request")
	ErrProofTokenStale = errors.New("proof token missing, expired or already used")
)

// Gate issues challenges and redeems proofs. A zero difficulty disables it.
type Gate struct {
	difficulty int
	now        func() time.Time

	mu      sync.Mutex
	nonces  map[string]time.Time
	tokens  map[string]time.Time
	stop    chan struct{}
	stopped sync.Once
}

// NewGate returns a Gate requiring difficulty leading zeros and starts the
// expiry sweeper. Difficulty is clamped to [0, MaxDifficulty].
func NewGate(difficulty int) *Gate {
	g := newGate(difficulty, time.Now)
	go g.sweepLoop(time.Minute)
	return g
}

func newGate(difficulty int, now func() time.Time) *Gate {
	difficulty = max(0, min(difficulty, MaxDifficulty))

	return &Gate{
		difficulty: difficulty,
		now:        now,
		nonces:     make(map[string]time.Time),
		tokens:     make(map[string]time.Time),
		stop:       make(chan struct{}),
	}
}

// Enabled reports whether callers must solve a challenge.
func (g *Gate) Enabled() bool {
	return g.difficulty > 0
}

// Difficulty returns the required number of leading hex zeros.
func (g *Gate) Difficulty() int {
	return g.difficulty
}

// Challenge registers and returns a new nonce.
func (g *Gate) Challenge() string {
	nonce := uuid.NewString()

	g.mu.Lock()
	g.nonces[nonce] = g.now().Add(NonceExpiryDuration)
	g.mu.Unlock()

	return nonce
}

// Solves reports whether sha256(nonce+counter) meets difficulty.
func Solves(nonce, counter string, difficulty int) bool {
	sum := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(sum[:]), strings.Repeat("0", difficulty))
}

// Redeem validates a proof and returns a single-use proof token. The nonce is
// consumed on success.
func (g *Gate) Redeem(nonce, counter string) (string, error) {
	g.mu.Lock()
	expiry, ok := g.nonces[nonce]
	g.mu.Unlock()

	if !ok || !g.now().Before(expiry) {
		return "", ErrNonceUnknown
	}

	if !Solves(nonce, counter, g.difficulty) {
		return "", ErrProofTooWeak
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, still := g.nonces[nonce]; !still {
		return "", ErrNonceConsumed
	}
	delete(g.nonces, nonce)

	token := uuid.NewString()
	g.tokens[token] = g.now().Add(ProofTokenDuration)
	return token, nil
}

// Consume accepts the proof token carried by r (header, or pow_token query
// parameter) and invalidates it. A disabled gate accepts every request.
func (g *Gate) Consume(r *http.Request) error {
	if !g.Enabled() {
		return nil
	}

	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get("pow_token")
	}
	if token == "" {
		return ErrProofTokenStale
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.tokens[token]
	delete(g.tokens, token)
	if !ok || !g.now().Before(expiry) {
		return ErrProofTokenStale
	}
	return nil
}

// Close stops the sweeper.
func (g *Gate) Close() {
	g.stopped.Do(func() { close(g.stop) })
}

func (g *Gate) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *Gate) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for nonce, expiry := range g.nonces {
		if !now.Before(expiry) {
			delete(g.nonces, nonce)
		}
	}
	for token, expiry := range g.tokens {
		if !now.Before(expiry) {
			delete(g.tokens, token)
		}
	}
}
