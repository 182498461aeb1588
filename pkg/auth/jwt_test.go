package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := NewSessionToken("sess-1", "2", "john@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, "secret")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "2", claims.UserID)
	assert.True(t, claims.Authenticated())
}

func TestSessionToken_Anonymous(t *testing.T) {
	tok, err := NewSessionToken("sess-2", "", "", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, "secret")
	require.NoError(t, err)
	assert.False(t, claims.Authenticated())
}

func TestParse_Rejects(t *testing.T) {
	good, err := NewSessionToken("sess-3", "", "", "secret", time.Hour)
	require.NoError(t, err)

	expired, err := NewSessionToken("sess-3", "", "", "secret", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "other"},
		{"expired", expired, "secret"},
		{"garbage", "not-a-token", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewSessionToken_RequiresSession(t *testing.T) {
	_, err := NewSessionToken("", "", "", "secret", time.Hour)
	require.Error(t, err)
}
