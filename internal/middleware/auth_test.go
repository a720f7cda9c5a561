package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipehub/backend/internal/auth"
)

type verifierFunc func(ctx context.Context, credential string) (*auth.Principal, error)

func (f verifierFunc) Verify(ctx context.Context, credential string) (*auth.Principal, error) {
	return f(ctx, credential)
}

func authTestRouter(verifier CredentialVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(verifier), func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "principal missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": principal.ID})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, credential string) (*auth.Principal, error) {
		if credential == "good-token" {
			return &auth.Principal{ID: "alice"}, nil
		}
		return nil, auth.ErrInvalidCredential
	})
	router := authTestRouter(verifier)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"rejected token", "Bearer bad-token", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuthMiddlewareProviderOutage(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, _ string) (*auth.Principal, error) {
		return nil, fmt.Errorf("identity provider unreachable: connection refused")
	})
	router := authTestRouter(verifier)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// An outage is not the caller's fault; it must not read as a bad token.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestAuthMiddlewareStoresPrincipal(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, _ string) (*auth.Principal, error) {
		return &auth.Principal{ID: "alice", Email: "alice@example.com"}, nil
	})
	router := authTestRouter(verifier)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"alice"}`, w.Body.String())
}
