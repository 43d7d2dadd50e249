package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacekeeper/internal/app/client/config"
)

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) *httpClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{ServerAddress: strings.TrimPrefix(srv.URL, "http://")}
	return NewHTTPClient(cfg, discardLogger())
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "failed dependency", status: http.StatusFailedDependency, wantErr: ErrReferential},
		{name: "too many requests", status: http.StatusTooManyRequests, wantErr: ErrUnavailable},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, wantErr: ErrUnavailable},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrRejected},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"title":%q,"status":%d,"detail":"boom"}`, http.StatusText(tt.status), tt.status)
			})

			_, err := h.Insert(context.Background(), CollectionActivities, json.RawMessage(`{"id":"a"}`))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, "boom", se.Detail)
		})
	}
}

func TestHTTPClient_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	h := NewHTTPClient(&config.Config{ServerAddress: addr}, discardLogger())
	_, err := h.Select(context.Background(), CollectionActivities, Filter{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_InsertAndSelect(t *testing.T) {
	var gotAuth, gotOwner, gotPath string
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		switch r.Method {
		case http.MethodPost:
			var row map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
			row["id"] = "server-1"
			_ = json.NewEncoder(w).Encode(row)
		case http.MethodGet:
			gotOwner = r.URL.Query().Get("owner_id")
			_, _ = w.Write([]byte(`{"rows":[{"id":"a"},{"id":"b"}]}`))
		}
	})
	h.SetToken("secret")

	row, err := h.Insert(context.Background(), CollectionCompletions, json.RawMessage(`{"workout_id":"w1"}`))
	require.NoError(t, err)
	id, err := rowID(row)
	require.NoError(t, err)
	assert.Equal(t, "server-1", id)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/api/v1/rows/completed_workouts", gotPath)

	rows, err := h.Select(context.Background(), CollectionActivities, Filter{OwnerID: "profile-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "profile-1", gotOwner)
}

func TestHTTPClient_CurrentProfile(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Profile
		wantErr error
	}{
		{
			name:   "found",
			status: http.StatusOK,
			body:   `{"id":"p1","user_id":7,"is_premium":true}`,
			want:   Profile{ID: "p1", UserID: 7, IsPremium: true},
		},
		{
			name:    "not provisioned",
			status:  http.StatusNotFound,
			body:    `{"detail":"profile not found"}`,
			wantErr: ErrProfileMissing,
		},
		{
			name:    "expired session",
			status:  http.StatusUnauthorized,
			body:    `{"detail":"invalid token"}`,
			wantErr: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/profiles/me", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := h.CurrentProfile(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPClient_LoginStoresToken(t *testing.T) {
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"tok-1","status":"Ok"}`))
	})

	assert.False(t, h.HasSession())
	assert.Empty(t, h.SessionKey())

	token, err := h.Login(context.Background(), "runner", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.True(t, h.HasSession())
	assert.Len(t, h.SessionKey(), 16)
}

func TestHTTPClient_LoginWithoutToken(t *testing.T) {
	h := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Error"}`))
	})

	_, err := h.Login(context.Background(), "runner", "wrong")
	assert.ErrorIs(t, err, ErrRejected)
	assert.False(t, h.HasSession())
}
