package user

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

	"pacekeeper/internal/domain/profile"
	"pacekeeper/internal/domain/user"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Register(ctx context.Context, login, password string) (int, error) {
	args := m.Called(ctx, login, password)
	return args.Int(0), args.Error(1)
}

func (m *mockUsers) Authenticate(ctx context.Context, login, password string) (user.User, error) {
	args := m.Called(ctx, login, password)
	return args.Get(0).(user.User), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Create(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) Validate(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type stubProfiles struct {
	err error
}

func (s stubProfiles) Provision(_ context.Context, userID int) (profile.Profile, error) {
	if s.err != nil {
		return profile.Profile{}, s.err
	}
	return profile.Profile{ID: "p-1", UserID: userID}, nil
}

func (s stubProfiles) Me(ctx context.Context, userID int) (profile.Profile, error) {
	return s.Provision(ctx, userID)
}

func (s stubProfiles) SetPremium(ctx context.Context, userID int, _ bool) (profile.Profile, error) {
	return s.Provision(ctx, userID)
}

var creds = map[string]any{"login": "runner", "password": "P@ssw0rd123!"}

func newTestAPI(t *testing.T, users user.Servicer, sessions *mockSessions, profiles profile.Servicer) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewHandler(users, sessions, profiles, slog.Default(), huma.Middlewares{}).SetupRoutes(api)
	return api
}

func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name        string
		registerErr error
		profileErr  error
		wantStatus  int
		wantBody    string
	}{
		{name: "created", wantStatus: http.StatusCreated, wantBody: `"profile_id":"p-1"`},
		{name: "profile not provisioned", profileErr: errors.New("db"), wantStatus: http.StatusCreated, wantBody: `"user_id":9`},
		{name: "weak password", registerErr: user.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "taken", registerErr: user.ErrAlreadyExists, wantStatus: http.StatusConflict},
		{name: "database error", registerErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUsers{}
			users.On("Register", mock.Anything, "runner", "P@ssw0rd123!").Return(9, tt.registerErr)

			api := newTestAPI(t, users, &mockSessions{}, stubProfiles{err: tt.profileErr})
			resp := api.Post("/api/v1/auth/register", creds)

			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantBody != "" {
				assert.Contains(t, resp.Body.String(), tt.wantBody)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		authErr    error
		sessionErr error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "bad credentials", authErr: user.ErrInvalidAuth, wantStatus: http.StatusUnauthorized},
		{name: "session store down", sessionErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUsers{}
			users.On("Authenticate", mock.Anything, "runner", "P@ssw0rd123!").Return(user.User{ID: 9}, tt.authErr)

			sessions := &mockSessions{}
			if tt.authErr == nil {
				sessions.On("Create", mock.Anything, 9).Return("tok", tt.sessionErr)
			}

			resp := newTestAPI(t, users, sessions, stubProfiles{}).Post("/api/v1/auth/login", creds)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, resp.Body.String(), `"token":"tok"`)
			}
			sessions.AssertExpectations(t)
		})
	}
}
