package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func operatorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetOperatorID(r.Context())
		w.Write([]byte(id))
	})
}

func TestRequireAuth(t *testing.T) {
	valid := signToken(t, testSecret, Claims{
		OperatorID: "bridge-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	expired := signToken(t, testSecret, Claims{
		OperatorID: "bridge-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongKey := signToken(t, "ffffffffffffffffffffffffffffffff", Claims{OperatorID: "x"})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, "auth_required"},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, "auth_invalid_scheme"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "auth_invalid"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "auth_invalid"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "auth_invalid"},
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ussd/callback/t1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			RequireAuth(testSecret)(operatorEcho()).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body["code"])
			} else {
				assert.Equal(t, "bridge-1", w.Body.String())
			}
		})
	}
}

func TestRequireAuth_FallsBackToSubject(t *testing.T) {
	token := signToken(t, testSecret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "ops"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	RequireAuth(testSecret)(operatorEcho()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}

func TestOptionalAuth_DisabledWithoutSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	OptionalAuth("")(operatorEcho()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth_EnforcedWithSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	OptionalAuth(testSecret)(operatorEcho()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
