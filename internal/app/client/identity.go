package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	keyAnonymousID      = "anonymousId"
	keyResolvedIdentity = "resolvedIdentity"

	profileLookupTimeout = 5 * time.Second
)

type IdentityKind string

const (
	Authenticated IdentityKind = "authenticated"
	Anonymous     IdentityKind = "anonymous"
)

// Identity владелец записей: профиль или анонимное устройство.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id"`
}

func (i Identity) IsAuthenticated() bool {
	return i.Kind == Authenticated
}

// OwnerID значение owner_id для записей; у анонимных записей владельца нет.
func (i Identity) OwnerID() string {
	if i.IsAuthenticated() {
		return i.ID
	}
	return ""
}

type identityMirror struct {
	Identity
	SessionKey string `json:"session_key,omitempty"`
}

// Resolver определяет текущую личность. Никогда не возвращает ошибку:
// любой сбой сводится к анонимной личности.
type Resolver struct {
	cache    Cache
	session  SessionSource
	reporter Reporter
	log      *slog.Logger
	newID    func() string

	mu   sync.Mutex
	memo *identityMirror
}

func NewResolver(cache Cache, session SessionSource, reporter Reporter, log *slog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		session:  session,
		reporter: reporter,
		log:      log.With("component", "identity_resolver"),
		newID:    uuid.NewString,
	}
}

func (r *Resolver) Resolve(ctx context.Context) Identity {
	if r.session != nil && r.session.HasSession() {
		key := r.session.SessionKey()
		if id, ok := r.mirrored(key); ok {
			return id
		}

		lookupCtx, cancel := context.WithTimeout(ctx, profileLookupTimeout)
		profile, err := r.session.CurrentProfile(lookupCtx)
		cancel()

		if err == nil && profile.ID == "" {
			err = ErrProfileMissing
		}
		if err == nil {
			id := Identity{Kind: Authenticated, ID: profile.ID}
			r.remember(identityMirror{Identity: id, SessionKey: key})
			r.log.Debug("Личность определена по профилю", "profile_id", profile.ID)
			return id
		}

		r.reporter.Report("resolve_identity", err)
	}

	return r.anonymous()
}

// Forget сбрасывает запомненную личность, например после выхода.
func (r *Resolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memo = nil
	if err := r.cache.Remove(keyResolvedIdentity); err != nil {
		r.reporter.Report("forget_identity", err)
	}
}

func (r *Resolver) mirrored(sessionKey string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memo != nil && r.memo.IsAuthenticated() && r.memo.SessionKey == sessionKey {
		return r.memo.Identity, true
	}

	raw, ok, err := r.cache.Get(keyResolvedIdentity)
	if err != nil {
		r.reporter.Report("resolve_identity", err)
		return Identity{}, false
	}
	if !ok {
		return Identity{}, false
	}

	var m identityMirror
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		r.log.Warn("Повреждённое зеркало личности в кэше", "error", err)
		return Identity{}, false
	}
	if !m.IsAuthenticated() || m.ID == "" || m.SessionKey != sessionKey {
		return Identity{}, false
	}

	r.memo = &m
	return m.Identity, true
}

func (r *Resolver) remember(m identityMirror) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memo = &m
	r.writeMirror(m)
}

func (r *Resolver) writeMirror(m identityMirror) {
	data, err := json.Marshal(m)
	if err != nil {
		r.reporter.Report("mirror_identity", err)
		return
	}
	if err := r.cache.Set(keyResolvedIdentity, string(data)); err != nil {
		r.reporter.Report("mirror_identity", err)
	}
}

func (r *Resolver) anonymous() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memo != nil && r.memo.Kind == Anonymous {
		return r.memo.Identity
	}

	anonID, ok, err := r.cache.Get(keyAnonymousID)
	switch {
	case err != nil:
		// кэш недоступен: временный id только на время процесса
		r.reporter.Report("resolve_identity", fmt.Errorf("чтение анонимного id: %w", err))
		anonID = r.newID()
	case !ok || anonID == "":
		anonID = r.newID()
		if err := r.cache.Set(keyAnonymousID, anonID); err != nil {
			r.reporter.Report("resolve_identity", fmt.Errorf("сохранение анонимного id: %w", err))
		}
		r.log.Info("Создан анонимный идентификатор", "anonymous_id", anonID)
	}

	m := identityMirror{Identity: Identity{Kind: Anonymous, ID: anonID}}
	r.memo = &m
	r.writeMirror(m)
	return m.Identity
}
