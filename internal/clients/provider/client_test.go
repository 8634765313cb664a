package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tether/internal/models"
)

func TestExchangeCode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "authorization_code", req["grant_type"])
		assert.Equal(t, "client-1", req["client_id"])
		assert.Equal(t, "secret-1", req["client_secret"])
		assert.Equal(t, "code1", req["code"])
		assert.Equal(t, "https://tether.test/api/link/callback", req["redirect_uri"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"A1","refresh_token":"R1","token_type":"bearer"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "client-1", "secret-1")

	pair, err := client.ExchangeCode(context.Background(), "code1", "https://tether.test/api/link/callback")
	require.NoError(t, err)
	assert.Equal(t, "A1", pair.AccessToken)
	assert.Equal(t, "R1", pair.RefreshToken)
}

func TestExchangeCode_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "client-1", "secret-1")

	_, err := client.ExchangeCode(context.Background(), "stale", "https://tether.test/api/link/callback")

	var perr *models.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "invalid_grant", perr.Code)
	assert.Equal(t, "code expired", perr.Description)
}

func TestExchangeCode_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"server_error","error_description":"try later"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "client-1", "secret-1")

	_, err := client.ExchangeCode(context.Background(), "code1", "https://tether.test/api/link/callback")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "authorization codes are single use")
}

func TestExchangeCode_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "client-1", "secret-1")

	_, err := client.ExchangeCode(context.Background(), "code1", "https://tether.test/api/link/callback")

	var terr *models.TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestExchangeCode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "client-1", "secret-1")

	_, err := client.ExchangeCode(context.Background(), "code1", "https://tether.test/api/link/callback")

	var terr *models.TransportError
	assert.True(t, errors.As(err, &terr))
}
