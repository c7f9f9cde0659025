package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, message{Role: "system", Content: "be brief"}, req.Messages[0])
		assert.Equal(t, message{Role: "user", Content: "rank"}, req.Messages[1])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" [1,2] "}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL + "/"}, zap.NewNop())
	require.NoError(t, err)

	out, err := c.GenerateContent(context.Background(), "be brief", "rank")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", out)
	assert.Equal(t, defaultModel, c.Model())
}

func TestGenerateContentErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "", "rank")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")

	_, err = c.GenerateContent(context.Background(), "", "  ")
	require.Error(t, err)

	_, err = NewClient(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestGenerateContentNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "key", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "", "rank")
	require.Error(t, err)
}
