package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/syncstate"
)

// keyPremiumStatus префикс ключа; флаг хранится отдельно для каждой личности.
const keyPremiumStatus = "premiumStatus"

var (
	ErrPurchaseFailed   = errors.New("purchase failed")
	ErrNothingToRestore = errors.New("no purchases to restore")
)

// PurchaseResult итог покупки, который отдаёт платёжный SDK.
type PurchaseResult struct {
	Success   bool
	ProductID string
	Reason    string
	Error     error
}

// RestoreResult итог восстановления покупок.
type RestoreResult struct {
	Success bool
	Count   int
}

type Entitlement struct {
	Premium       bool      `json:"premium"`
	ProductID     string    `json:"product_id,omitempty"`
	ActivatedAt   time.Time `json:"activated_at,omitempty"`
	RestoredCount int       `json:"restored_count,omitempty"`
	// ProfileSync состояние флага is_premium в серверном профиле.
	ProfileSync syncstate.Status `json:"profile_sync,omitempty"`
}

// ProfileUpdater выставляет премиум-флаг в профиле на сервере.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, premium bool) error
}

// Entitlements хранит флаг премиум-доступа личности в кэше и дублирует его в профиль на сервере.
type Entitlements struct {
	sc       *SyncContext
	profiles ProfileUpdater
	log      *slog.Logger
	mu       sync.Mutex
}

func NewEntitlements(sc *SyncContext, profiles ProfileUpdater) *Entitlements {
	return &Entitlements{
		sc:       sc,
		profiles: profiles,
		log:      sc.Log.With("component", "entitlements"),
	}
}

// Key ключ для планировщика сверки.
func (e *Entitlements) Key() string {
	return keyPremiumStatus
}

// Current флаг текущей личности.
func (e *Entitlements) Current(ctx context.Context) (Entitlement, error) {
	key := premiumKey(e.sc.Identity.Resolve(ctx))

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readLocked(key)
}

func (e *Entitlements) ApplyPurchase(ctx context.Context, res PurchaseResult) (Entitlement, error) {
	if !res.Success {
		current, err := e.Current(ctx)
		if err != nil {
			return Entitlement{}, err
		}
		if res.Error != nil {
			return current, fmt.Errorf("%w: %s: %w", ErrPurchaseFailed, res.Reason, res.Error)
		}
		return current, fmt.Errorf("%w: %s", ErrPurchaseFailed, res.Reason)
	}

	return e.grant(ctx, func(ent *Entitlement) {
		ent.ProductID = res.ProductID
	})
}

func (e *Entitlements) ApplyRestore(ctx context.Context, res RestoreResult) (Entitlement, error) {
	if !res.Success || res.Count <= 0 {
		current, err := e.Current(ctx)
		if err != nil {
			return Entitlement{}, err
		}
		return current, ErrNothingToRestore
	}

	return e.grant(ctx, func(ent *Entitlement) {
		ent.RestoredCount = res.Count
	})
}

// Adopt переносит анонимный премиум-доступ вошедшему пользователю, если у того своего нет.
func (e *Entitlements) Adopt(ctx context.Context) (bool, error) {
	identity := e.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		return false, nil
	}

	e.mu.Lock()
	anon, err := e.readLocked(keyPremiumStatus)
	if err != nil {
		e.mu.Unlock()
		return false, err
	}
	key := premiumKey(identity)
	own, err := e.readLocked(key)
	if err != nil {
		e.mu.Unlock()
		return false, err
	}
	if !anon.Premium || own.Premium {
		e.mu.Unlock()
		return false, nil
	}

	anon.ProfileSync = syncstate.Pending
	err = e.writeLocked(key, anon)
	if err == nil {
		err = e.removeLocked(keyPremiumStatus)
	}
	e.mu.Unlock()
	if err != nil {
		return false, err
	}

	e.log.Info("Премиум-доступ передан пользователю", "product_id", anon.ProductID)
	e.sc.trigger(e.Key())
	return true, nil
}

// Reconcile повторяет неудавшуюся отправку is_premium в профиль.
func (e *Entitlements) Reconcile(ctx context.Context, _ time.Duration) (int, error) {
	identity := e.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() || e.profiles == nil {
		return 0, nil
	}
	key := premiumKey(identity)

	ent, err := e.Current(ctx)
	if err != nil {
		return 0, err
	}
	if !ent.Premium || ent.ProfileSync != syncstate.Pending {
		return 0, nil
	}

	if err := e.updateProfile(ctx); err != nil {
		e.log.Warn("Премиум-флаг профиля по-прежнему не обновлён", "error", err)
		e.sc.report("reconcile_update_profile", err)
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.readLocked(key)
	if err != nil {
		return 0, err
	}
	if !current.Premium || current.ProfileSync != syncstate.Pending {
		return 0, nil
	}
	current.ProfileSync = syncstate.Synced
	if err := e.writeLocked(key, current); err != nil {
		return 0, err
	}
	return 1, nil
}

func (e *Entitlements) grant(ctx context.Context, apply func(ent *Entitlement)) (Entitlement, error) {
	identity := e.sc.Identity.Resolve(ctx)
	key := premiumKey(identity)

	e.mu.Lock()
	ent, err := e.readLocked(key)
	if err != nil {
		e.mu.Unlock()
		return Entitlement{}, err
	}

	if !ent.Premium {
		ent.ActivatedAt = e.sc.Now()
	}
	ent.Premium = true
	apply(&ent)
	if identity.IsAuthenticated() && e.profiles != nil {
		ent.ProfileSync = syncstate.Pending
	} else {
		ent.ProfileSync = syncstate.LocalOnly
	}

	err = e.writeLocked(key, ent)
	e.mu.Unlock()
	if err != nil {
		return Entitlement{}, err
	}

	e.log.Info("Премиум-доступ активирован", "product_id", ent.ProductID)

	if ent.ProfileSync != syncstate.Pending {
		return ent, nil
	}

	if err := e.updateProfile(ctx); err != nil {
		e.sc.report("update_profile", err)
		e.sc.trigger(e.Key())
		return ent, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// флаг мог смениться, пока шёл запрос
	current, err := e.readLocked(key)
	if err != nil {
		return ent, err
	}
	if current.Premium && current.ProfileSync == syncstate.Pending {
		current.ProfileSync = syncstate.Synced
		if err := e.writeLocked(key, current); err != nil {
			return ent, err
		}
	}
	return current, nil
}

func (e *Entitlements) updateProfile(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.sc.WriteTimeout)
	defer cancel()
	return e.profiles.UpdateProfile(ctx, true)
}

// premiumKey ключ кэша для личности; у анонимной личности ключ без суффикса.
func premiumKey(identity Identity) string {
	if owner := identity.OwnerID(); owner != "" {
		return keyPremiumStatus + ":" + owner
	}
	return keyPremiumStatus
}

func (e *Entitlements) readLocked(key string) (Entitlement, error) {
	raw, ok, err := e.sc.Cache.Get(key)
	if err != nil {
		return Entitlement{}, fmt.Errorf("%w: %v", ErrCache, err)
	}
	if !ok || raw == "" {
		return Entitlement{}, nil
	}

	var ent Entitlement
	if err := json.Unmarshal([]byte(raw), &ent); err != nil {
		e.log.Warn("Повреждённый статус подписки в кэше", "error", err)
		return Entitlement{}, nil
	}
	return ent, nil
}

func (e *Entitlements) writeLocked(key string, ent Entitlement) error {
	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	if err := e.sc.Cache.Set(key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}

func (e *Entitlements) removeLocked(key string) error {
	if err := e.sc.Cache.Remove(key); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}
