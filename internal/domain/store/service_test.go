package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, c Collection, row Row) (map[string]any, error) {
	args := m.Called(ctx, c, row)
	if v := args.Get(0); v != nil {
		return v.(map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Select(ctx context.Context, c Collection, ownerID string) ([]map[string]any, error) {
	args := m.Called(ctx, c, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, c Collection, ownerID, id string, patch map[string]any) (map[string]any, error) {
	args := m.Called(ctx, c, ownerID, id, patch)
	if v := args.Get(0); v != nil {
		return v.(map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

func newService(repo Repository) *Service {
	s := NewService(repo, slog.Default())
	s.newID = func() string { return "generated" }
	return s
}

func TestLookup(t *testing.T) {
	c, err := Lookup("completed_workouts")
	require.NoError(t, err)
	assert.Equal(t, "plan_id", c.Parent)
	assert.Equal(t, "workout_id", c.NaturalKey)

	_, err = Lookup("secrets")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	assert.Equal(t, []string{"activities", "completed_workouts", "plan_sessions", "training_plans"}, Names())
}

func TestService_Upsert(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		data       map[string]any
		wantRow    *Row
		repoErr    error
		wantErr    error
	}{
		{
			name:       "activity keeps client id and takes owner from session",
			collection: "activities",
			data:       map[string]any{"id": "a-1", "owner_id": "intruder", "sync_status": "pending", "title": "run"},
			wantRow: &Row{
				ID:      "a-1",
				OwnerID: "owner-1",
				Data:    map[string]any{"id": "a-1", "owner_id": "owner-1", "title": "run"},
			},
		},
		{
			name:       "missing id is generated",
			collection: "training_plans",
			data:       map[string]any{"title": "5K"},
			wantRow: &Row{
				ID:      "generated",
				OwnerID: "owner-1",
				Data:    map[string]any{"id": "generated", "owner_id": "owner-1", "title": "5K"},
			},
		},
		{
			name:       "completion carries natural key and parent",
			collection: "completed_workouts",
			data:       map[string]any{"id": "c-1", "workout_id": "s1", "plan_id": "p-1", "completed_date": "2024-05-09"},
			wantRow: &Row{
				ID:         "c-1",
				OwnerID:    "owner-1",
				ParentID:   "p-1",
				NaturalKey: "s1",
				Data:       map[string]any{"id": "c-1", "owner_id": "owner-1", "workout_id": "s1", "plan_id": "p-1", "completed_date": "2024-05-09"},
			},
		},
		{
			name:       "completion without workout is rejected",
			collection: "completed_workouts",
			data:       map[string]any{"id": "c-2", "completed_date": "2024-05-09"},
			wantErr:    ErrInvalidRow,
		},
		{
			name:       "unknown collection",
			collection: "users",
			data:       map[string]any{},
			wantErr:    ErrUnknownCollection,
		},
		{
			name:       "missing parent from repository",
			collection: "plan_sessions",
			data:       map[string]any{"id": "s1", "plan_id": "p-9"},
			wantRow: &Row{
				ID:       "s1",
				OwnerID:  "owner-1",
				ParentID: "p-9",
				Data:     map[string]any{"id": "s1", "owner_id": "owner-1", "plan_id": "p-9"},
			},
			repoErr: ErrMissingParent,
			wantErr: ErrMissingParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.wantRow != nil {
				var stored map[string]any
				if tt.repoErr == nil {
					stored = tt.wantRow.Data
				}
				repo.On("Upsert", mock.Anything, mock.AnythingOfType("store.Collection"), *tt.wantRow).Return(stored, tt.repoErr)
			}

			got, err := newService(repo).Upsert(context.Background(), "owner-1", tt.collection, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRow.Data, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Select(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Select", mock.Anything, mock.AnythingOfType("store.Collection"), "owner-1").Return(nil, nil).Once()
	repo.On("Select", mock.Anything, mock.AnythingOfType("store.Collection"), "owner-1").Return(nil, errors.New("db down")).Once()

	s := newService(repo)

	rows, err := s.Select(context.Background(), "owner-1", "activities", "owner-1")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = s.Select(context.Background(), "owner-1", "activities", "")
	assert.Error(t, err)

	_, err = s.Select(context.Background(), "owner-1", "activities", "owner-2")
	assert.ErrorIs(t, err, ErrForbidden)

	repo.AssertExpectations(t)
}

func TestService_UpdateStripsImmutableFields(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Update", mock.Anything, mock.AnythingOfType("store.Collection"), "owner-1", "c-1",
		map[string]any{"actual_distance_km": 5.1}).
		Return(map[string]any{"id": "c-1", "actual_distance_km": 5.1}, nil)

	s := newService(repo)

	got, err := s.Update(context.Background(), "owner-1", "completed_workouts", "c-1", map[string]any{
		"id":                 "c-2",
		"owner_id":           "owner-2",
		"workout_id":         "other",
		"sync_status":        "synced",
		"actual_distance_km": 5.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", got["id"])

	_, err = s.Update(context.Background(), "owner-1", "completed_workouts", "", nil)
	assert.ErrorIs(t, err, ErrInvalidRow)

	repo.AssertExpectations(t)
}
