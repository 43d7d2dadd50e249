package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pacekeeper/internal/app/server/config"
)

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func newConfig(uri, path string) *config.Config {
	cfg := &config.Config{}
	cfg.DB.DatabaseURI = uri
	cfg.DB.Migrations = path
	return cfg
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Version").Return(uint(1), false, nil)
	mockM.On("Close").Return(nil, nil)

	var gotSource, gotDB string
	engine := func(source, db string) (Migrator, error) {
		gotSource, gotDB = source, db
		return mockM, nil
	}

	version, err := NewMigration(newConfig("postgres://localhost/pacekeeper", "migrations"), engine).Up()

	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.Equal(t, "file://migrations", gotSource)
	assert.Equal(t, "postgres://localhost/pacekeeper", gotDB)
	mockM.AssertExpectations(t)
}

func TestMigration_SourceURL(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "migrations", want: "file://migrations"},
		{path: "/srv/pacekeeper/migrations", want: "file:///srv/pacekeeper/migrations"},
		{path: "file://custom", want: "file://custom"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMigration(newConfig("", tt.path), DefaultEngine).sourceURL())
		})
	}
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Version").Return(uint(1), false, nil)
	mockM.On("Close").Return(nil, nil)

	engine := func(source, db string) (Migrator, error) {
		return mockM, nil
	}

	version, err := NewMigration(newConfig("", ""), engine).Up()

	assert.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigration_Up_EmptySchema(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Version").Return(uint(0), false, migrate.ErrNilVersion)
	mockM.On("Close").Return(nil, nil)

	engine := func(source, db string) (Migrator, error) {
		return mockM, nil
	}

	version, err := NewMigration(newConfig("", ""), engine).Up()

	assert.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigration_Up_EngineError(t *testing.T) {
	engine := func(source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	_, err := NewMigration(newConfig("", ""), engine).Up()

	require.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}

func TestMigration_Up_Failures(t *testing.T) {
	tests := []struct {
		name     string
		upErr    error
		dirty    bool
		srcErr   error
		dbErr    error
		wantIs   error
		contains []string
	}{
		{
			name:     "up fails",
			upErr:    errors.New("syntax error at line 3"),
			contains: []string{"migration up", "syntax error"},
		},
		{
			name:     "dirty after up",
			dirty:    true,
			wantIs:   ErrDirty,
			contains: []string{"версия 1"},
		},
		{
			name:     "close fails after success",
			dbErr:    errors.New("conn closed"),
			contains: []string{"migration database", "conn closed"},
		},
		{
			name:     "up and close fail",
			upErr:    errors.New("syntax error"),
			srcErr:   errors.New("source gone"),
			contains: []string{"syntax error", "source gone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockM := new(MockMigrator)
			mockM.On("Up").Return(tt.upErr)
			mockM.On("Version").Return(uint(1), tt.dirty, nil).Maybe()
			mockM.On("Close").Return(tt.srcErr, tt.dbErr)

			engine := func(source, db string) (Migrator, error) {
				return mockM, nil
			}

			_, err := NewMigration(newConfig("", ""), engine).Up()
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
			mockM.AssertExpectations(t)
		})
	}
}
