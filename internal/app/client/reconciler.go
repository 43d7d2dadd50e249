package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const (
	DefaultReconcileDelay = 1500 * time.Millisecond
	DefaultSyncInterval   = 30 * time.Second

	statsFileName = "sync_stats.json"
)

var ErrUnknownCollection = errors.New("unknown collection")

// reconcilable хранилище, отложенные записи которого умеет выгружать сверка.
type reconcilable interface {
	Key() string
	Reconcile(ctx context.Context, delay time.Duration) (int, error)
}

// SyncError ошибка сверки одной коллекции
type SyncError struct {
	Collection string    `json:"collection"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`

	err error
}

// SyncStats накопленная статистика сверок
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded"`
	TotalErrors     int       `json:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
}

// SyncResult результат одного прохода по всем коллекциям
type SyncResult struct {
	Success   bool           `json:"success"`
	Uploaded  map[string]int `json:"uploaded"`
	Errors    []SyncError    `json:"errors"`
	Duration  time.Duration  `json:"duration"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
}

// Err первая ошибка прохода, подходящая под target.
func (r *SyncResult) Err(target error) error {
	for _, e := range r.Errors {
		if errors.Is(e.err, target) {
			return e.err
		}
	}
	return nil
}

// Total общее число выгруженных записей.
func (r *SyncResult) Total() int {
	total := 0
	for _, n := range r.Uploaded {
		total += n
	}
	return total
}

// Reconciler фоновая сверка отложенных записей всех коллекций.
type Reconciler struct {
	log      *slog.Logger
	delay    time.Duration
	interval time.Duration
	statsDir string
	now      func() time.Time

	mu       sync.RWMutex
	order    []string
	stores   map[string]reconcilable
	active   map[string]bool
	rerun    map[string]bool
	stats    *SyncStats
	lastSync time.Time
	syncing  int

	wg sync.WaitGroup
}

// NewReconciler создаёт сверку. statsDir пустой отключает сохранение статистики.
func NewReconciler(log *slog.Logger, delay, interval time.Duration, statsDir string) *Reconciler {
	if delay < 0 {
		delay = DefaultReconcileDelay
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	r := &Reconciler{
		log:      log.With("component", "reconciler"),
		delay:    delay,
		interval: interval,
		statsDir: statsDir,
		now:      time.Now,
		stores:   make(map[string]reconcilable),
		active:   make(map[string]bool),
		rerun:    make(map[string]bool),
		stats:    &SyncStats{},
	}

	if stats, err := r.loadStats(); err == nil {
		r.stats = stats
	}

	return r
}

// Register добавляет хранилище в сверку.
func (r *Reconciler) Register(stores ...reconcilable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range stores {
		if _, ok := r.stores[s.Key()]; !ok {
			r.order = append(r.order, s.Key())
		}
		r.stores[s.Key()] = s
	}
}

// Reconcile выгружает отложенные записи одной коллекции.
func (r *Reconciler) Reconcile(ctx context.Context, key string) (int, error) {
	r.mu.RLock()
	store, ok := r.stores[key]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCollection, key)
	}

	r.setSyncing(1)
	defer r.setSyncing(-1)

	return store.Reconcile(ctx, r.delay)
}

// ReconcileAll проходит по всем коллекциям в порядке регистрации.
// План идёт первым, чтобы отметки о выполнении не упирались во внешний ключ.
func (r *Reconciler) ReconcileAll(ctx context.Context) *SyncResult {
	result := &SyncResult{
		StartTime: r.now(),
		Uploaded:  make(map[string]int),
		Errors:    []SyncError{},
	}

	r.mu.RLock()
	keys := append([]string(nil), r.order...)
	r.mu.RUnlock()

	r.log.Debug("Начало сверки", "collections", len(keys))

	for _, key := range keys {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, SyncError{
				Collection: key,
				Error:      ctx.Err().Error(),
				Timestamp:  r.now(),
				err:        ctx.Err(),
			})
			break
		}

		n, err := r.Reconcile(ctx, key)
		result.Uploaded[key] = n
		if err != nil {
			result.Errors = append(result.Errors, SyncError{
				Collection: key,
				Error:      err.Error(),
				Timestamp:  r.now(),
				err:        err,
			})
		}
	}

	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = len(result.Errors) == 0

	r.updateStats(result)

	if result.Success {
		r.log.Info("Сверка завершена", "duration", result.Duration, "uploaded", result.Total())
	} else {
		r.log.Warn("Сверка завершена с ошибками", "duration", result.Duration, "errors", len(result.Errors))
	}

	return result
}

// Trigger запускает сверку коллекции в фоне. Вызовы во время идущей
// сверки схлопываются в один повторный проход.
func (r *Reconciler) Trigger(key string) {
	r.mu.Lock()
	if _, ok := r.stores[key]; !ok {
		r.mu.Unlock()
		return
	}
	if r.active[key] {
		r.rerun[key] = true
		r.mu.Unlock()
		return
	}
	r.active[key] = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		for {
			n, err := r.Reconcile(context.Background(), key)
			switch {
			case errors.Is(err, ErrSyncInProgress):
				r.log.Debug("Сверка уже выполняется", "collection", key)
			case err != nil:
				r.log.Warn("Ошибка фоновой сверки", "collection", key, "error", err)
			case n > 0:
				r.log.Info("Фоновая сверка выгрузила записи", "collection", key, "count", n)
			}

			r.mu.Lock()
			if r.rerun[key] {
				delete(r.rerun, key)
				r.mu.Unlock()
				continue
			}
			delete(r.active, key)
			r.mu.Unlock()
			return
		}
	}()
}

// Wait дожидается завершения фоновых сверок.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// StartAutoSync запускает периодическую сверку до отмены ctx.
func (r *Reconciler) StartAutoSync(ctx context.Context) {
	r.log.Info("Запуск автоматической сверки", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Автоматическая сверка остановлена")
			return
		case <-ticker.C:
			r.ReconcileAll(ctx)
		}
	}
}

// GetStats возвращает копию статистики
func (r *Reconciler) GetStats() SyncStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *r.stats
}

// GetLastSyncTime время последнего прохода
func (r *Reconciler) GetLastSyncTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSync
}

// IsSyncing выполняется ли сейчас сверка
func (r *Reconciler) IsSyncing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.syncing > 0
}

// ResetStats сбрасывает статистику
func (r *Reconciler) ResetStats() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = &SyncStats{}
	r.saveStats()
}

func (r *Reconciler) setSyncing(delta int) {
	r.mu.Lock()
	r.syncing += delta
	r.mu.Unlock()
}

func (r *Reconciler) updateStats(result *SyncResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.TotalSyncs++
	if result.Success {
		r.stats.LastSuccessful = result.EndTime
	} else {
		r.stats.LastFailed = result.EndTime
	}
	r.stats.TotalUploaded += result.Total()
	r.stats.TotalErrors += len(result.Errors)

	if r.stats.TotalSyncs == 1 {
		r.stats.AvgSyncDuration = result.Duration.Seconds()
	} else {
		r.stats.AvgSyncDuration = (r.stats.AvgSyncDuration*float64(r.stats.TotalSyncs-1) +
			result.Duration.Seconds()) / float64(r.stats.TotalSyncs)
	}

	r.lastSync = result.EndTime
	r.saveStats()
}

func (r *Reconciler) loadStats() (*SyncStats, error) {
	if r.statsDir == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(r.statsDir, statsFileName))
	if err != nil {
		return nil, err
	}

	var stats SyncStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("ошибка парсинга статистики: %w", err)
	}
	return &stats, nil
}

// saveStats вызывается под r.mu
func (r *Reconciler) saveStats() {
	if r.statsDir == "" {
		return
	}

	data, err := json.MarshalIndent(r.stats, "", "  ")
	if err != nil {
		r.log.Error("Ошибка сериализации статистики", "error", err)
		return
	}

	if err := os.WriteFile(filepath.Join(r.statsDir, statsFileName), data, 0600); err != nil {
		r.log.Error("Ошибка записи статистики", "error", err)
	}
}
