package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tether/internal/models"
)

func TestLookupUserBySession_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "app-1", r.Header.Get("X-Parse-Application-Id"))
		assert.Equal(t, "abc", r.Header.Get("X-Parse-Session-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"objectId":"u1","username":"alice"}`))
	}))
	defer srv.Close()

	client := NewClient("app-1", WithBaseURL(srv.URL))

	identity, err := client.LookupUserBySession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "alice", identity.DisplayName)
}

func TestLookupUserBySession_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":209,"error":"invalid session token"}`))
	}))
	defer srv.Close()

	client := NewClient("app-1", WithBaseURL(srv.URL))

	_, err := client.LookupUserBySession(context.Background(), "expired")
	assert.True(t, errors.Is(err, models.ErrInvalidSession))
}

func TestLookupUserBySession_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient("app-1", WithBaseURL(srv.URL))

	_, err := client.LookupUserBySession(context.Background(), "abc")
	assert.True(t, errors.Is(err, models.ErrInvalidSession),
		"unreachable directory should be indistinguishable from a bad token")
}

func TestLookupUserBySession_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("app-1", WithBaseURL(srv.URL))

	_, err := client.LookupUserBySession(context.Background(), "abc")
	assert.True(t, errors.Is(err, models.ErrInvalidSession))
}
