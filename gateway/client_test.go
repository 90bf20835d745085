package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-key", 2*time.Second), srv
}

func TestFailureClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   FailureKind
		detail string
	}{
		{"not found", http.StatusNotFound, `{"detail":"song not found"}`, KindNotFound, "song not found"},
		{"method not allowed", http.StatusMethodNotAllowed, "", KindNotAllowed, ""},
		{"validation", http.StatusUnprocessableEntity, `{"detail":"amount must be positive"}`, KindValidation, "amount must be positive"},
		{"bad request", http.StatusBadRequest, `{"detail":"missing title"}`, KindValidation, "missing title"},
		{"server", http.StatusInternalServerError, "boom", KindServer, ""},
		{"bad gateway", http.StatusBadGateway, "", KindServer, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := client.AdvanceQueue(context.Background())
			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "expected *APIError, got %v", err)
			assert.Equal(t, tc.kind, apiErr.Kind)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.detail, apiErr.Detail)
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // dead endpoint

	client := NewClient(srv.URL, "", time.Second)
	err := client.AdvanceQueue(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Error(t, apiErr.Err)
}

func TestCallSendsAPIKeyAndBody(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody map[string]interface{}
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := client.CreatePayment(context.Background(), PaymentRequest{
		TableID: 4,
		Amount:  decimal.RequireFromString("12.50"),
		Method:  "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "12.5", gotBody["amount"])
}

func TestNoRetryOnServerError(t *testing.T) {
	var calls int
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_ = client.AdvanceQueue(context.Background())
	assert.Equal(t, 1, calls, "mutating calls are never retried")
}

func TestFetchConnectedUsersDecodesSessions(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tables/4/users", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 12, "nick": "ana", "table_id": 4},
			{"id": 13, "nick": "bea", "table_id": 4},
		})
	}))
	defer srv.Close()

	users, err := client.FetchConnectedUsers(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana", users[0].Nick)
	assert.Equal(t, int64(13), users[1].ID)
}

func TestFetchQueueDecodesSnapshot(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/songs/queue/extended", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"now_playing": map[string]interface{}{"id": 1, "title": "Garota de Ipanema", "state": "approved"},
			"upcoming":    []map[string]interface{}{{"id": 2, "title": "Evidências", "state": "approved"}},
			"lazy_queue":  []map[string]interface{}{{"id": 3, "title": "Wonderwall", "state": "pending_lazy"}},
		})
	}))
	defer srv.Close()

	snap, err := client.FetchQueue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, int64(1), snap.NowPlaying.ID)
	require.Len(t, snap.Upcoming, 1)
	require.Len(t, snap.LazyQueue, 1)
	assert.Equal(t, "Wonderwall", snap.LazyQueue[0].Title)
}
