package login

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/password"
)

// MockSessions реализует интерфейс login.Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) IssueSession(userID int64, username string, subscriptionDays int) (string, error) {
	args := m.Called(userID, username, subscriptionDays)
	return args.String(0), args.Error(1)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hash, err := password.GetHash("correct-password")
	require.NoError(t, err)

	admin := config.Admin{AdminUsername: "admin", AdminPasswordHash: hash}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockSessions)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "valid credentials yield session token",
			body: `{"username":"admin","password":"correct-password"}`,
			setupMock: func(m *MockSessions) {
				m.On("IssueSession", int64(0), "admin", 0).Return("session-token", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"session-token"`,
		},
		{
			name:           "wrong password is rejected",
			body:           `{"username":"admin","password":"wrong-password"}`,
			setupMock:      func(_ *MockSessions) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"invalid credentials"`,
		},
		{
			name:           "unknown username is rejected",
			body:           `{"username":"intruder","password":"correct-password"}`,
			setupMock:      func(_ *MockSessions) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"invalid credentials"`,
		},
		{
			name:           "short password fails validation",
			body:           `{"username":"admin","password":"abc"}`,
			setupMock:      func(_ *MockSessions) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:           "broken json",
			body:           `{`,
			setupMock:      func(_ *MockSessions) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(MockSessions)
			tt.setupMock(sessions)

			handler := New(logger, sessions, admin)

			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			sessions.AssertExpectations(t)
		})
	}
}
