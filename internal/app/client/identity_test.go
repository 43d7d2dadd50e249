package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Anonymous(t *testing.T) {
	cache := NewMemoryCache()
	reporter := &recordingReporter{}

	first := NewResolver(cache, &fakeSession{}, reporter, discardLogger()).Resolve(context.Background())
	assert.Equal(t, Anonymous, first.Kind)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.OwnerID())

	stored, ok, err := cache.Get(keyAnonymousID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, stored)

	// новый процесс с тем же кэшем получает тот же id
	second := NewResolver(cache, nil, reporter, discardLogger()).Resolve(context.Background())
	assert.Equal(t, first, second)
	assert.Empty(t, reporter.reported())
}

func TestResolver_Authenticated(t *testing.T) {
	cache := NewMemoryCache()
	session := &fakeSession{}
	session.login("t1", "profile-1")

	r := NewResolver(cache, session, &recordingReporter{}, discardLogger())

	id := r.Resolve(context.Background())
	assert.Equal(t, Identity{Kind: Authenticated, ID: "profile-1"}, id)
	assert.Equal(t, "profile-1", id.OwnerID())

	_ = r.Resolve(context.Background())
	assert.Equal(t, 1, session.calls)

	_, ok, err := cache.Get(keyResolvedIdentity)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolver_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		profile    Profile
		err        error
		wantKind   IdentityKind
		wantReport bool
	}{
		{
			name:       "profile missing",
			err:        ErrProfileMissing,
			wantKind:   Anonymous,
			wantReport: true,
		},
		{
			name:       "empty profile id",
			profile:    Profile{},
			wantKind:   Anonymous,
			wantReport: true,
		},
		{
			name:       "remote unavailable",
			err:        ErrUnavailable,
			wantKind:   Anonymous,
			wantReport: true,
		},
		{
			name:     "profile found",
			profile:  Profile{ID: "profile-9"},
			wantKind: Authenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &recordingReporter{}
			session := &fakeSession{token: "t", profile: tt.profile, err: tt.err}

			id := NewResolver(NewMemoryCache(), session, reporter, discardLogger()).Resolve(context.Background())
			assert.Equal(t, tt.wantKind, id.Kind)
			assert.NotEmpty(t, id.ID)
			if tt.wantReport {
				assert.Contains(t, reporter.reported(), "resolve_identity")
			} else {
				assert.Empty(t, reporter.reported())
			}
		})
	}
}

func TestResolver_MirrorServesOffline(t *testing.T) {
	cache := NewMemoryCache()
	session := &fakeSession{}
	session.login("t1", "profile-1")

	online := NewResolver(cache, session, &recordingReporter{}, discardLogger())
	require.True(t, online.Resolve(context.Background()).IsAuthenticated())

	session.mu.Lock()
	session.err = ErrUnavailable
	session.mu.Unlock()

	// новый процесс без сети, та же сессия
	offline := NewResolver(cache, session, &recordingReporter{}, discardLogger())
	assert.Equal(t, Identity{Kind: Authenticated, ID: "profile-1"}, offline.Resolve(context.Background()))

	// другая сессия зеркалом не пользуется
	session.mu.Lock()
	session.token = "t2"
	session.mu.Unlock()
	other := NewResolver(cache, session, &recordingReporter{}, discardLogger())
	assert.Equal(t, Anonymous, other.Resolve(context.Background()).Kind)
}

func TestResolver_Forget(t *testing.T) {
	cache := NewMemoryCache()
	session := &fakeSession{}
	session.login("t1", "profile-1")
	r := NewResolver(cache, session, &recordingReporter{}, discardLogger())

	require.True(t, r.Resolve(context.Background()).IsAuthenticated())

	session.login("", "")
	r.Forget()
	assert.Equal(t, Anonymous, r.Resolve(context.Background()).Kind)

	session.login("t3", "profile-3")
	r.Forget()
	assert.Equal(t, "profile-3", r.Resolve(context.Background()).ID)
}

func TestResolver_CacheFailureStillResolves(t *testing.T) {
	reporter := &recordingReporter{}
	id := NewResolver(failingCache{}, nil, reporter, discardLogger()).Resolve(context.Background())

	assert.Equal(t, Anonymous, id.Kind)
	assert.NotEmpty(t, id.ID)
	assert.Contains(t, reporter.reported(), "resolve_identity")
}
