package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wordrill/wordrill-api/internal/api/shared"
	"github.com/wordrill/wordrill-api/internal/service/auth"
)

// MockJWTService is a mock implementation of the auth.JWTService interface
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if claims := args.Get(0); claims != nil {
		return claims.(*auth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	userID := uuid.New()

	testCases := []struct {
		name           string
		header         string
		setupMock      func(*MockJWTService)
		expectedStatus int
		expectUser     bool
	}{
		{
			name:   "valid bearer token",
			header: "Bearer valid-token",
			setupMock: func(m *MockJWTService) {
				m.On("ValidateToken", mock.Anything, "valid-token").
					Return(&auth.Claims{UserID: userID}, nil)
			},
			expectedStatus: http.StatusOK,
			expectUser:     true,
		},
		{
			name:           "missing header",
			header:         "",
			setupMock:      func(m *MockJWTService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			header:         "Basic dXNlcjpwYXNz",
			setupMock:      func(m *MockJWTService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "invalid token",
			header: "Bearer bad-token",
			setupMock: func(m *MockJWTService) {
				m.On("ValidateToken", mock.Anything, "bad-token").
					Return(nil, auth.ErrInvalidToken)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			header: "Bearer old-token",
			setupMock: func(m *MockJWTService) {
				m.On("ValidateToken", mock.Anything, "old-token").
					Return(nil, auth.ErrExpiredToken)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mockJWT := new(MockJWTService)
			tc.setupMock(mockJWT)

			var sawUserID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if id, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID); ok {
					sawUserID = id
				}
				w.WriteHeader(http.StatusOK)
			})

			middleware := NewAuthMiddleware(mockJWT)
			req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectUser {
				assert.Equal(t, userID, sawUserID,
					"Handler must see the authenticated user ID")
			}
			mockJWT.AssertExpectations(t)
		})
	}
}

func TestNewAuthMiddlewarePanicsOnNilService(t *testing.T) {
	t.Parallel() // Enable parallel execution
	assert.Panics(t, func() {
		NewAuthMiddleware(nil)
	})
}
