package profile

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/server/api/http/middleware/auth"
	"pacekeeper/internal/domain/profile"
)

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Provision(ctx context.Context, userID int) (profile.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func (m *mockProfiles) Me(ctx context.Context, userID int) (profile.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func (m *mockProfiles) SetPremium(ctx context.Context, userID int, premium bool) (profile.Profile, error) {
	args := m.Called(ctx, userID, premium)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func newTestAPI(t *testing.T, svc profile.Servicer) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	asUser := func(ctx huma.Context, next func(huma.Context)) {
		next(huma.WithContext(ctx, auth.WithUserID(ctx.Context(), 5)))
	}
	NewHandler(svc, slog.Default(), huma.Middlewares{asUser}).SetupRoutes(api)
	return api
}

func TestHandler_Me(t *testing.T) {
	tests := []struct {
		name       string
		found      profile.Profile
		err        error
		wantStatus int
	}{
		{name: "found", found: profile.Profile{ID: "p-5", UserID: 5}, wantStatus: http.StatusOK},
		{name: "not provisioned", err: profile.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "database error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockProfiles{}
			svc.On("Me", mock.Anything, 5).Return(tt.found, tt.err)

			resp := newTestAPI(t, svc).Get("/api/v1/profiles/me")
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.err == nil {
				assert.Contains(t, resp.Body.String(), `"id":"p-5"`)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_UpdatePremium(t *testing.T) {
	svc := &mockProfiles{}
	svc.On("SetPremium", mock.Anything, 5, true).Return(profile.Profile{ID: "p-5", UserID: 5, IsPremium: true}, nil)

	resp := newTestAPI(t, svc).Patch("/api/v1/profiles/me", map[string]any{"is_premium": true})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"is_premium":true`)

	svc.AssertExpectations(t)
}
