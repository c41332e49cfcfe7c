package http

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/gitclock/agent/shared-lib/http/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetRequest_BearerAndQuery(t *testing.T) {
	req, err := NewGetRequest(context.Background(), "https://api.example.com/user/repos", auth.Bearer("tkn"),
		map[string]interface{}{"per_page": 100, "page": 2, "skip": nil})

	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "Bearer tkn", req.Header.Get("Authorization"))
	assert.Equal(t, "2", req.URL.Query().Get("page"))
	assert.Equal(t, "100", req.URL.Query().Get("per_page"))
	assert.False(t, req.URL.Query().Has("skip"))
	assert.Equal(t, userAgent, req.Header.Get("User-Agent"))
}

func TestNewPutRequest_JSONBody(t *testing.T) {
	body := map[string]string{"message": "m", "content": "Y29udGVudA=="}

	req, err := NewPutRequest(context.Background(), "https://api.example.com/x", auth.Bearer("tkn"), body, "")

	require.NoError(t, err)
	assert.Equal(t, "PUT", req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, body, decoded)
}

func TestNewPostRequest_WithoutAuth(t *testing.T) {
	req, err := NewPostRequest(context.Background(), "https://api.example.com/x", nil, map[string]any{"name": "n"}, "")

	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestApplyAuthentication_Errors(t *testing.T) {
	_, err := NewGetRequest(context.Background(), "https://api.example.com", &auth.AuthConfig{Type: auth.AuthTypeBearer}, nil)
	assert.ErrorContains(t, err, "token required")

	_, err = NewGetRequest(context.Background(), "https://api.example.com", &auth.AuthConfig{Type: "kerberos"}, nil)
	assert.ErrorContains(t, err, "unsupported authentication type")
}
