package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(t, router, "POST", "/signup", "", map[string]interface{}{
		"email":    "carol@example.com",
		"password": "secret123",
		"name":     "Carol",
	})
	require.Equal(t, http.StatusOK, w.Code)

	user, ok := decodeBody(t, w)["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "carol@example.com", user["email"])
	assert.Equal(t, "Carol", user["name"])
	assert.NotEmpty(t, user["id"])
}

func TestSignUpMissingFields(t *testing.T) {
	router, _ := setupTestRouter(t)

	cases := []map[string]interface{}{
		{"password": "secret123", "name": "Carol"},
		{"email": "carol@example.com", "name": "Carol"},
		{"email": "carol@example.com", "password": "secret123"},
		{"email": "not-an-email", "password": "secret123", "name": "Carol"},
		{"email": "carol@example.com", "password": "short", "name": "Carol"},
	}

	for _, payload := range cases {
		w := performRequest(t, router, "POST", "/signup", "", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email, password, and name are required", decodeBody(t, w)["error"])
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	router, _ := setupTestRouter(t)

	payload := map[string]interface{}{
		"email":    "carol@example.com",
		"password": "secret123",
		"name":     "Carol",
	}

	w := performRequest(t, router, "POST", "/signup", "", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, router, "POST", "/signup", "", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "email already registered")
}
