package granttoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_IssueAndDecode(t *testing.T) {
	codec := New("test_secret_key_1234567890")
	now := time.Now()

	token, payload, err := codec.Issue(123456789, 30, now, 6*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, int64(123456789), payload.UserID)
	assert.Equal(t, 30, payload.PlanDays)
	assert.Equal(t, now.Unix(), payload.CreatedAt)
	assert.Equal(t, now.Add(6*time.Hour).Unix(), payload.ExpiresAt)
	assert.NotEmpty(t, payload.Nonce)

	decoded, err := codec.Decode(token, now)
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestCodec_WireFormat(t *testing.T) {
	secret := "wire_format_secret"
	codec := New(secret)

	token, _, err := codec.Issue(42, 7, time.Now(), time.Hour)
	require.NoError(t, err)

	encoded, signature, found := strings.Cut(token, ".")
	require.True(t, found)

	// Полезная нагрузка — base64url от JSON с ожидаемыми именами полей.
	raw, err := base64.URLEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "user_id")
	assert.Contains(t, fields, "plan_days")
	assert.Contains(t, fields, "created_at")
	assert.Contains(t, fields, "expires_at")
	assert.Contains(t, fields, "uuid")

	// Подпись — hex от HMAC-SHA256 по base64url-строке.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestCodec_Decode_Failures(t *testing.T) {
	codec := New("test_secret_key_1234567890")
	now := time.Now()

	valid, _, err := codec.Issue(1, 7, now, time.Hour)
	require.NoError(t, err)

	encoded, signature, _ := strings.Cut(valid, ".")

	tests := []struct {
		name  string
		token string
		at    time.Time
	}{
		{name: "empty token", token: "", at: now},
		{name: "no separator", token: encoded, at: now},
		{name: "empty signature", token: encoded + ".", at: now},
		{name: "empty payload", token: "." + signature, at: now},
		{name: "tampered payload", token: encoded[:len(encoded)-4] + "AAAA." + signature, at: now},
		{name: "tampered signature", token: encoded + "." + strings.Repeat("0", len(signature)), at: now},
		{name: "expired exactly at boundary", token: valid, at: now.Add(time.Hour)},
		{name: "expired after boundary", token: valid, at: now.Add(2 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := codec.Decode(tt.token, tt.at)
			require.Error(t, err)
			assert.Nil(t, payload)
		})
	}
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	token, _, err := New("secret_one").Issue(1, 7, time.Now(), time.Hour)
	require.NoError(t, err)

	payload, err := New("secret_two").Decode(token, time.Now())
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.Contains(t, err.Error(), "signature mismatch")
}

func TestCodec_NonceUnique(t *testing.T) {
	codec := New("test_secret")
	now := time.Now()

	first, p1, err := codec.Issue(1, 7, now, time.Hour)
	require.NoError(t, err)
	second, p2, err := codec.Issue(1, 7, now, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, p1.Nonce, p2.Nonce)
}
