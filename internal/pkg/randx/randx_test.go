package randx

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase62(t *testing.T) {
	s, err := Base62(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	for _, c := range s {
		assert.True(t, strings.ContainsRune(Base62Chars, c))
	}
}

func TestGuestName(t *testing.T) {
	name := GuestName()
	assert.True(t, strings.HasPrefix(name, GuestNamePrefix))
	assert.Len(t, name, len(GuestNamePrefix)+6)
	assert.NotEqual(t, name, GuestName())
}

func TestMessageID(t *testing.T) {
	_, err := uuid.Parse(MessageID())
	assert.NoError(t, err)
}
