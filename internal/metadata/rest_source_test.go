package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTSource_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tokens/mintJUP", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Jupiter","symbol":"JUP","decimals":6,"logoURI":"https://example.com/jup.png"}`))
	}))
	defer server.Close()

	s := NewRESTSource(RESTSourceOptions{BaseURL: server.URL, AuthToken: "secret"})
	m, err := s.Resolve(context.Background(), "mintJUP")
	require.NoError(t, err)
	assert.Equal(t, "JUP", m.Symbol)
	assert.Equal(t, uint8(6), m.Decimals)
}

func TestRESTSource_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewRESTSource(RESTSourceOptions{BaseURL: server.URL})
	_, err := s.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestRESTSource_PlaceholderAnswerIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Unknown Token","symbol":"UNKNOWN","decimals":0}`))
	}))
	defer server.Close()

	s := NewRESTSource(RESTSourceOptions{BaseURL: server.URL})
	_, err := s.Resolve(context.Background(), "mintX")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestRESTSource_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewRESTSource(RESTSourceOptions{BaseURL: server.URL})
	_, err := s.Resolve(context.Background(), "mintX")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownToken)
}
