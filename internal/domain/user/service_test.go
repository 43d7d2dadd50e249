package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, login, passwordHash string) (int, error) {
	args := m.Called(ctx, login, passwordHash)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) FindByLogin(ctx context.Context, login string) (User, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(User), args.Error(1)
}

func newService(repo Repository) *Service {
	return NewService(repo, NewCredentialsValidator(), slog.Default())
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name      string
		login     string
		password  string
		repoErr   error
		setupMock bool
		wantErr   error
	}{
		{
			name:      "valid credentials",
			login:     "runner",
			password:  "P@ssw0rd123!",
			setupMock: true,
		},
		{
			name:     "weak password",
			login:    "runner",
			password: "password",
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "short login",
			login:    "ab",
			password: "P@ssw0rd123!",
			wantErr:  ErrInvalidInput,
		},
		{
			name:      "login taken",
			login:     "runner",
			password:  "P@ssw0rd123!",
			setupMock: true,
			repoErr:   ErrAlreadyExists,
			wantErr:   ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.setupMock {
				repo.On("Create", mock.Anything, tt.login, mock.MatchedBy(func(hash string) bool {
					return bcrypt.CompareHashAndPassword([]byte(hash), []byte(tt.password)) == nil
				})).Return(123, tt.repoErr)
			}

			id, err := newService(repo).Register(context.Background(), tt.login, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 123, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("P@ssw0rd123!"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := User{ID: 123, Login: "runner", Password: string(hash)}

	tests := []struct {
		name     string
		login    string
		password string
		found    User
		findErr  error
		noLookup bool
		wantErr  error
	}{
		{name: "success", login: "runner", password: "P@ssw0rd123!", found: stored},
		{name: "wrong password", login: "runner", password: "nope", found: stored, wantErr: ErrInvalidAuth},
		{name: "unknown user", login: "ghost", password: "x", findErr: ErrNotFound, wantErr: ErrInvalidAuth},
		{name: "invalid login", login: "a b", password: "x", noLookup: true, wantErr: ErrInvalidAuth},
		{name: "broken hash", login: "runner", password: "x", found: User{ID: 1, Password: "invalidhash"}, wantErr: ErrInvalidAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if !tt.noLookup {
				repo.On("FindByLogin", mock.Anything, tt.login).Return(tt.found, tt.findErr)
			}

			u, err := newService(repo).Authenticate(context.Background(), tt.login, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, stored, u)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByLogin", mock.Anything, "runner").Return(User{}, errors.New("database error"))

	_, err := newService(repo).Authenticate(context.Background(), "runner", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAuth)
	assert.Contains(t, err.Error(), "database error")
}
