package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/syncstate"
)

// ErrSyncInProgress сверка этой коллекции уже идёт.
var ErrSyncInProgress = errors.New("reconciliation already in progress")

// Entity ограничение для записей, которые хранит Collection.
type Entity[T any] interface {
	*T
	LocalKey() string
	RecordID() string
	AssignID(id string)
	State() syncstate.Status
	MarkState(s syncstate.Status)
	AssignOwner(owner string)
	Owner() string
	CreatedTime() time.Time
	Normalize(now time.Time) []string
}

// MissingParentHook вызывается, когда сервер отверг запись из-за отсутствующей
// родительской строки. true означает, что родитель выгружен и вставку стоит повторить один раз.
type MissingParentHook[T any] func(ctx context.Context, rec T) bool

// Collection локальная коллекция записей одного типа: запись с откатом
// на кэш, чтение с обновлением кэша и сверка отложенных записей.
type Collection[T any, P Entity[T]] struct {
	sc       *SyncContext
	key      string
	remote   string
	onParent MissingParentHook[T]
	log      *slog.Logger

	mu          sync.Mutex
	reconciling atomic.Bool
}

func NewCollection[T any, P Entity[T]](sc *SyncContext, cacheKey, remoteCollection string) *Collection[T, P] {
	return &Collection[T, P]{
		sc:     sc,
		key:    cacheKey,
		remote: remoteCollection,
		log:    sc.Log.With("component", "collection", "collection", cacheKey),
	}
}

// OnMissingParent задаёт обработчик отказа по внешнему ключу.
func (c *Collection[T, P]) OnMissingParent(hook MissingParentHook[T]) *Collection[T, P] {
	c.onParent = hook
	return c
}

// Key ключ коллекции в локальном кэше.
func (c *Collection[T, P]) Key() string {
	return c.key
}

// Write сохраняет запись. Запись всегда попадает в кэш; ошибка возвращается
// только если не удалось записать в кэш. Возвращает id записи: серверный при
// успешной выгрузке, иначе сгенерированный клиентом.
func (c *Collection[T, P]) Write(ctx context.Context, rec T) (string, error) {
	p := P(&rec)
	c.logNotes(p.Normalize(c.sc.Now()), p.RecordID())

	identity := c.sc.Identity.Resolve(ctx)
	p.AssignOwner(identity.OwnerID())
	if p.RecordID() == "" {
		p.AssignID(c.sc.NewID())
	}

	if !identity.IsAuthenticated() {
		p.MarkState(syncstate.LocalOnly)
	} else if pushed, err := c.push(ctx, rec); err != nil {
		c.log.Warn("Не удалось сохранить запись на сервере, сохраняем локально", "id", p.RecordID(), "error", err)
		c.sc.report("write_"+c.remote, err)
		p.MarkState(syncstate.Pending)
	} else {
		rec = pushed
		p = P(&rec)
	}

	if err := c.store(rec); err != nil {
		return "", err
	}

	writeOutcomes.WithLabelValues(c.remote, string(p.State())).Inc()
	return p.RecordID(), nil
}

// Load читает записи текущей личности.
func (c *Collection[T, P]) Load(ctx context.Context) ([]T, error) {
	return c.LoadFor(ctx, c.sc.Identity.Resolve(ctx))
}

// LoadFor читает записи личности: с сервера с обновлением кэша, при сбое из кэша.
// Пустой результат это пустой срез, а не заглушки.
func (c *Collection[T, P]) LoadFor(ctx context.Context, identity Identity) ([]T, error) {
	owner := identity.OwnerID()

	var (
		items      []T
		fromRemote bool
	)

	if identity.IsAuthenticated() {
		remoteItems, err := c.fetch(ctx, owner)
		if err != nil {
			readFallbacks.WithLabelValues(c.remote).Inc()
			c.log.Warn("Сервер недоступен, читаем из кэша", "error", err)
			c.sc.report("load_"+c.remote, err)
		} else {
			items, err = c.refresh(remoteItems, owner)
			if err != nil {
				return nil, err
			}
			fromRemote = true
		}
	}

	if !fromRemote {
		cached, err := c.snapshot()
		if err != nil {
			return nil, err
		}
		items = ownedBy[T, P](cached, owner)
	}

	slices.SortStableFunc(items, func(a, b T) int {
		return P(&b).CreatedTime().Compare(P(&a).CreatedTime())
	})

	if countState[T, P](items, syncstate.Pending) > 0 {
		c.sc.trigger(c.key)
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Reconcile выгружает отложенные записи по одной с паузой delay между попытками.
func (c *Collection[T, P]) Reconcile(ctx context.Context, delay time.Duration) (int, error) {
	if !c.reconciling.CompareAndSwap(false, true) {
		return 0, ErrSyncInProgress
	}
	defer c.reconciling.Store(false)

	identity := c.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		c.log.Debug("Сверка пропущена: нет активной сессии")
		return 0, nil
	}

	cached, err := c.snapshot()
	if err != nil {
		return 0, err
	}

	var pending []T
	for _, item := range ownedBy[T, P](cached, identity.ID) {
		if P(&item).State() == syncstate.Pending {
			pending = append(pending, item)
		}
	}

	confirmed := 0
	superseded := false
	for i, item := range pending {
		if i > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return confirmed, ctx.Err()
			case <-timer.C:
			}
		}

		key := P(&item).LocalKey()
		pushed, err := c.push(ctx, item)
		if err != nil {
			c.log.Warn("Запись по-прежнему не выгружена", "key", key, "error", err)
			c.sc.report("reconcile_"+c.remote, err)
			continue
		}

		replaced, err := c.replace(item, pushed)
		if err != nil {
			return confirmed, err
		}
		if !replaced {
			c.log.Info("Запись изменена во время выгрузки, остаётся в очереди", "key", key)
			superseded = true
			continue
		}
		confirmed++
		reconciledCounter.WithLabelValues(c.remote).Inc()
	}

	if superseded {
		c.sc.trigger(c.key)
	}
	if len(pending) > 0 {
		c.log.Info("Сверка завершена", "pending", len(pending), "confirmed", confirmed)
	}
	return confirmed, nil
}

// Adopt передаёт анонимные записи вошедшему пользователю и ставит их в очередь на выгрузку.
func (c *Collection[T, P]) Adopt(ctx context.Context) (int, error) {
	identity := c.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		return 0, nil
	}

	c.mu.Lock()
	items, err := c.readLocked()
	if err != nil {
		c.mu.Unlock()
		return 0, err
	}

	adopted := 0
	for i := range items {
		p := P(&items[i])
		if p.State() == syncstate.LocalOnly && p.Owner() == "" {
			p.AssignOwner(identity.ID)
			p.MarkState(syncstate.Pending)
			adopted++
		}
	}

	if adopted > 0 {
		err = c.writeLocked(items)
	}
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if adopted > 0 {
		c.log.Info("Локальные записи переданы пользователю", "count", adopted)
		c.sc.trigger(c.key)
	}
	return adopted, nil
}

// Stats количество записей коллекции по статусам.
func (c *Collection[T, P]) Stats() (map[syncstate.Status]int, error) {
	items, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	stats := make(map[syncstate.Status]int, 3)
	for i := range items {
		stats[P(&items[i]).State()]++
	}
	return stats, nil
}

func (c *Collection[T, P]) push(ctx context.Context, rec T) (T, error) {
	out, err := c.upsert(ctx, rec)
	if errors.Is(err, ErrReferential) && c.onParent != nil {
		if c.onParent(ctx, rec) {
			c.log.Info("Родительская запись выгружена, повторяем вставку", "id", P(&rec).RecordID())
			out, err = c.upsert(ctx, rec)
		}
	}
	return out, err
}

// upsert одна попытка идемпотентной вставки с таймаутом.
func (c *Collection[T, P]) upsert(ctx context.Context, rec T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.sc.WriteTimeout)
	defer cancel()

	p := P(&rec)
	state := p.State()
	// статус синхронизации серверу не нужен
	p.MarkState("")
	payload, err := json.Marshal(rec)
	p.MarkState(state)
	if err != nil {
		return rec, fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	row, err := c.sc.Remote.Insert(ctx, c.remote, payload)
	if err != nil {
		return rec, err
	}

	id, err := rowID(row)
	if err != nil {
		return rec, err
	}

	p.AssignID(id)
	p.MarkState(syncstate.Synced)
	return rec, nil
}

func (c *Collection[T, P]) fetch(ctx context.Context, owner string) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.sc.ReadTimeout)
	defer cancel()

	rows, err := c.sc.Remote.Select(ctx, c.remote, Filter{OwnerID: owner})
	if err != nil {
		return nil, err
	}

	now := c.sc.Now()
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			c.log.Warn("Пропущена непригодная строка сервера", "error", err)
			continue
		}
		p := P(&item)
		c.logNotes(p.Normalize(now), p.RecordID())
		p.MarkState(syncstate.Synced)
		items = append(items, item)
	}
	return items, nil
}

// refresh заменяет срез владельца в кэше серверными строками одной записью.
// Невыгруженные записи владельца остаются и вытесняют серверную строку с тем же ключом.
func (c *Collection[T, P]) refresh(remoteItems []T, owner string) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	unsynced := make(map[string]T)
	merged := make([]T, 0, len(remoteItems)+len(local))
	for _, item := range local {
		p := P(&item)
		switch {
		case p.Owner() != owner:
			merged = append(merged, item)
		case p.State() != syncstate.Synced:
			unsynced[p.LocalKey()] = item
		}
	}

	for _, item := range remoteItems {
		key := P(&item).LocalKey()
		if kept, ok := unsynced[key]; ok {
			item = kept
			delete(unsynced, key)
		}
		merged = append(merged, item)
	}
	for _, item := range local {
		p := P(&item)
		if p.Owner() != owner {
			continue
		}
		if kept, ok := unsynced[p.LocalKey()]; ok {
			merged = append(merged, kept)
			delete(unsynced, p.LocalKey())
		}
	}

	if err := c.writeLocked(merged); err != nil {
		return nil, err
	}
	return ownedBy[T, P](merged, owner), nil
}

// store вставляет или заменяет запись по локальному ключу.
func (c *Collection[T, P]) store(rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.readLocked()
	if err != nil {
		return err
	}

	key := P(&rec).LocalKey()
	idx := slices.IndexFunc(items, func(item T) bool { return P(&item).LocalKey() == key })
	if idx >= 0 {
		items[idx] = rec
	} else {
		items = append(items, rec)
	}

	return c.writeLocked(items)
}

// replace обновляет запись на месте после выгрузки; кэш перечитывается
// непосредственно перед записью. false означает, что запись за время выгрузки
// изменилась или исчезла и кэш не тронут.
func (c *Collection[T, P]) replace(sent, rec T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.readLocked()
	if err != nil {
		return false, err
	}

	key := P(&sent).LocalKey()
	idx := slices.IndexFunc(items, func(item T) bool { return P(&item).LocalKey() == key })
	if idx < 0 || !c.sameEntry(items[idx], sent) {
		return false, nil
	}
	items[idx] = rec

	return true, c.writeLocked(items)
}

// sameEntry сравнивает запись кэша с выгруженной копией после той же нормализации, что и snapshot.
func (c *Collection[T, P]) sameEntry(current, sent T) bool {
	p := P(&current)
	if p.State().Normalize() != syncstate.Pending {
		return false
	}
	p.Normalize(c.sc.Now())
	p.MarkState(syncstate.Pending)

	a, errA := json.Marshal(current)
	b, errB := json.Marshal(sent)
	return errA == nil && errB == nil && string(a) == string(b)
}

func (c *Collection[T, P]) snapshot() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	now := c.sc.Now()
	for i := range items {
		p := P(&items[i])
		c.logNotes(p.Normalize(now), p.RecordID())
		p.MarkState(p.State().Normalize())
	}
	return items, nil
}

func (c *Collection[T, P]) readLocked() ([]T, error) {
	raw, ok, err := c.sc.Cache.Get(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCache, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		c.log.Error("Повреждённые данные коллекции в кэше", "error", err)
		c.sc.report("cache_"+c.key, err)
		return nil, nil
	}

	items := make([]T, 0, len(elems))
	for _, elem := range elems {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			c.log.Warn("Пропущена повреждённая запись кэша", "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Collection[T, P]) writeLocked(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: сериализация: %v", ErrCache, err)
	}
	if err := c.sc.Cache.Set(c.key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}

func (c *Collection[T, P]) logNotes(notes []string, id string) {
	for _, n := range notes {
		c.log.Warn("Некорректные данные заменены значением по умолчанию", "id", id, "field", n)
	}
}

func ownedBy[T any, P Entity[T]](items []T, owner string) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if P(&items[i]).Owner() == owner {
			out = append(out, items[i])
		}
	}
	return out
}

func countState[T any, P Entity[T]](items []T, state syncstate.Status) int {
	n := 0
	for i := range items {
		if P(&items[i]).State() == state {
			n++
		}
	}
	return n
}
