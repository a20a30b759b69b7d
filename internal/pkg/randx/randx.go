/*
Package randx generates identifiers and display names from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet used for generated names.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// GuestNamePrefix prefixes names of relay participants without a user identity.
	GuestNamePrefix = "Guest_"

	guestSuffixLength = 6
)

// MessageID returns a UUID v4 string for relay messages and ledger rows.
func MessageID() string {
	return uuid.New().String()
}

// Base62 returns n random characters from Base62Chars.
func Base62(n int) (string, error) {
	alphabet := big.NewInt(int64(len(Base62Chars)))
	out := make([]byte, n)

	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("read random index: %w", err)
		}
		out[i] = Base62Chars[idx.Int64()]
	}

	return string(out), nil
}

// GuestName returns a display name such as "Guest_a8Fz01".
func GuestName() string {
	suffix, err := Base62(guestSuffixLength)
	if err != nil {
		return GuestNamePrefix + uuid.New().String()[:guestSuffixLength]
	}
	return GuestNamePrefix + suffix
}
