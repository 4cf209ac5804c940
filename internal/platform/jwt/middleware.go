// Package jwtmw はチャートAPI用のBearerトークン認証を提供します。
package jwtmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stock_chart/internal/api"
)

// ContextSubject はトークンの sub クレームを格納する gin コンテキストのキーです。
const ContextSubject = "subject"

// QueryToken はヘッダーを付けられないクライアント（ブラウザのWebSocket）向けのクエリパラメータ名です。
const QueryToken = "access_token"

var errNoToken = errors.New("missing bearer token")

// AuthRequired returns a Gin middleware that accepts only HS256-signed tokens issued with secret.
// The token is read from the Authorization header, or from ?access_token= when the header is absent.
func AuthRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: "server misconfigured"})
			return
		}

		tokenStr, err := bearer(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: err.Error()})
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

func bearer(c *gin.Context) (string, error) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		if q := c.Query(QueryToken); q != "" {
			return q, nil
		}
		return "", errNoToken
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errNoToken
	}
	return strings.TrimPrefix(auth, "Bearer "), nil
}
