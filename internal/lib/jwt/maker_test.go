package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewMaker(secretKey, 365*24*time.Hour)

	tests := []struct {
		name     string
		userID   int64
		username string
		days     int
	}{
		{
			name:     "basic plan",
			userID:   100,
			username: "basic_user",
			days:     7,
		},
		{
			name:     "standard plan",
			userID:   200,
			username: "standard_user",
			days:     30,
		},
		{
			name:     "premium plan",
			userID:   300,
			username: "premium_user",
			days:     90,
		},
		{
			name:     "empty username",
			userID:   400,
			username: "",
			days:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID, tt.username, tt.days)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.days, claims.SubscriptionDays)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Minute)
			assert.WithinDuration(t,
				time.Now().Add(time.Duration(tt.days)*24*time.Hour),
				claims.ExpiresAt.Time, time.Minute)
		})
	}
}

func TestMaker_ParseToken_WrongSecret(t *testing.T) {
	maker := NewMaker("secret_one", time.Hour)
	other := NewMaker("secret_two", time.Hour)

	token, err := maker.GenerateToken(1, "user", 7)
	require.NoError(t, err)

	claims, err := other.ParseToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestMaker_ParseToken_Expired(t *testing.T) {
	maker := NewMaker("test_secret", -time.Minute)

	token, err := maker.GenerateToken(1, "user", 0)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestMaker_ParseToken_Garbage(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := maker.ParseToken(token)
		require.Error(t, err)
		assert.Nil(t, claims)
	}
}

func TestMaker_TTLCappedByMax(t *testing.T) {
	maker := NewMaker("test_secret", 24*time.Hour)

	token, err := maker.GenerateToken(1, "user", 90)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}
