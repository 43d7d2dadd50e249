package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"pacekeeper/internal/domain/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "completed_workouts_plan_id_fkey"},
			want: store.ErrMissingParent,
		},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "completed_workouts_pkey"},
			want: store.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, mapError(other))
}

func TestDecodeRow(t *testing.T) {
	row, err := decodeRow([]byte(`{"id":"a-1","distance_km":5.2}`))
	assert.NoError(t, err)
	assert.Equal(t, "a-1", row["id"])
	assert.Equal(t, 5.2, row["distance_km"])

	_, err = decodeRow([]byte(`not json`))
	assert.Error(t, err)
}
