package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("   ")
	assert.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	client, err := NewClient("https://api.museeloquente.fr/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.museeloquente.fr", client.BaseURL())
}

func TestLoginPostsCredentialsAndDecodesToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reader@example.com", req.Email)
		assert.Equal(t, "lecture2024", req.Password)

		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "tok-1", TokenType: "bearer"})
	})

	res, err := client.Login(context.Background(), "reader@example.com", "lecture2024")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.AccessToken)
}

func TestTokenAttachedAndCleared(t *testing.T) {
	t.Parallel()

	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{ID: 1, Email: "reader@example.com"})
	})

	client.SetToken("tok-1")
	_, err := client.Me(context.Background())
	require.NoError(t, err)

	client.ClearToken()
	_, err = client.Me(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer tok-1", seen[0])
	assert.Empty(t, seen[1])
}

func TestCreateOrderSendsProductIDs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/", r.URL.Path)

		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Items, 2)
		assert.Equal(t, int64(10), req.Items[0].ProductID)
		assert.Equal(t, int64(20), req.Items[1].ProductID)

		json.NewEncoder(w).Encode(Order{ID: 7, Status: "pending", TotalCents: 3400})
	})

	order, err := client.CreateOrder(context.Background(), []int64{10, 20})
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.False(t, order.Paid())
}

func TestErrorResponsesCarryCodeAndDetail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		code   pkgerrors.Code
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, code: pkgerrors.CodeUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, code: pkgerrors.CodeForbidden},
		{name: "not found", status: http.StatusNotFound, code: pkgerrors.CodeNotFound},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, code: pkgerrors.CodeValidation},
		{name: "server error", status: http.StatusBadGateway, code: pkgerrors.CodeNetwork},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
			})

			_, err := client.Me(context.Background())
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestErrorResponseWithoutEnvelopeStillCoded(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not json"))
	})

	_, err := client.DownloadLink(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUnreachableBackendMapsToNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url)
	require.NoError(t, err)

	_, err = client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNetwork))
}

func TestConfirmPaidPostsOrderID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/confirm-paid", r.URL.Path)

		var req orderIDRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req.OrderID)

		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.ConfirmPaid(context.Background(), 42))
}
