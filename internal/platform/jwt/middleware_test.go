package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testSecret = "test-secret-key"

func serve(t *testing.T, secret string, prepare func(r *http.Request)) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/charts/line/AAPL", nil)
	if prepare != nil {
		prepare(c.Request)
	}
	AuthRequired(secret)(c)
	return w, c
}

func signed(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, c := serve(t, testSecret, func(r *http.Request) {
				if tt.authHeader != "" {
					r.Header.Set("Authorization", tt.authHeader)
				}
			})

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

// TestAuthRequired_EmptySecret はシークレット未設定時に500が返されることを検証します。
func TestAuthRequired_EmptySecret(t *testing.T) {
	t.Parallel()

	w, c := serve(t, "", func(r *http.Request) { r.Header.Set("Authorization", "Bearer sometoken") })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())
}

// TestAuthRequired_InvalidToken は不正なトークンで401が返されることを検証します。
func TestAuthRequired_InvalidToken(t *testing.T) {
	t.Parallel()

	valid := jwt.RegisteredClaims{Subject: "viewer", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	expired := jwt.RegisteredClaims{Subject: "viewer", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	noExpiry := jwt.RegisteredClaims{Subject: "viewer"}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", signed(t, "wrong-secret", jwt.SigningMethodHS256, valid)},
		{"expired token", signed(t, testSecret, jwt.SigningMethodHS256, expired)},
		{"missing exp", signed(t, testSecret, jwt.SigningMethodHS256, noExpiry)},
		{"other hmac size", signed(t, testSecret, jwt.SigningMethodHS512, valid)},
		{"none algorithm", none},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, c := serve(t, testSecret, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tt.token) })

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"invalid token"}`, w.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}

// TestAuthRequired_ValidToken は有効なトークンで通過し、subject がコンテキストに設定されることを検証します。
func TestAuthRequired_ValidToken(t *testing.T) {
	t.Parallel()

	token, err := NewGenerator(testSecret, time.Hour).GenerateToken("dashboard")
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }},
		{"query fallback", func(r *http.Request) { r.URL.RawQuery = QueryToken + "=" + token }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, c := serve(t, testSecret, tt.prepare)

			require.False(t, c.IsAborted(), w.Body.String())
			subject, ok := c.Get(ContextSubject)
			require.True(t, ok)
			assert.Equal(t, "dashboard", subject)
		})
	}
}
