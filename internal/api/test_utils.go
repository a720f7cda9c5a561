package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/recipehub/backend/internal/auth"
	"github.com/recipehub/backend/internal/kv"
	"github.com/recipehub/backend/internal/repository"
)

// stubGateway resolves tokens from a fixed map so handler tests never
// talk to a real identity provider.
type stubGateway struct {
	principals map[string]*auth.Principal
	signedUp   []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		principals: map[string]*auth.Principal{
			"alice-token": {ID: "alice", Email: "alice@example.com", Name: "Alice"},
			"bob-token":   {ID: "bob", Email: "bob@example.com", Name: "Bob"},
		},
	}
}

func (g *stubGateway) Verify(_ context.Context, credential string) (*auth.Principal, error) {
	p, ok := g.principals[credential]
	if !ok {
		return nil, auth.ErrInvalidCredential
	}
	return p, nil
}

func (g *stubGateway) SignUp(_ context.Context, email, password, name string) (*auth.Principal, error) {
	for _, existing := range g.signedUp {
		if existing == email {
			return nil, fmt.Errorf("%w: email already registered", auth.ErrSignUpRejected)
		}
	}
	g.signedUp = append(g.signedUp, email)
	return &auth.Principal{ID: "user-" + name, Email: email, Name: name}, nil
}

// setupTestRouter builds a router over an in-memory store with rate
// limiting and image upload disabled.
func setupTestRouter(t *testing.T) (*gin.Engine, *stubGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	gateway := newStubGateway()
	repo := repository.NewRecipeRepository(kv.NewMemoryStore())
	SetupAPI(router, repo, gateway, nil, nil)
	return router, gateway
}

// performRequest issues a JSON request against the router and returns
// the recorder. A nil body sends an empty request body.
func performRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a response body into a generic map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
