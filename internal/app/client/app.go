package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	gosync "sync"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/client/config"
	"pacekeeper/internal/domain/activity"
	"pacekeeper/internal/domain/syncstate"
	"pacekeeper/internal/domain/user"
	"pacekeeper/internal/domain/workout"
)

type App struct {
	config     *config.Config
	log        *slog.Logger
	httpClient *httpClient
	cache      Cache
	sc         *SyncContext

	activities  *Collection[activity.Record, *activity.Record]
	completions *Collection[workout.Completion, *workout.Completion]
	plans       *PlanStore
	premium     *Entitlements
	reconciler  *Reconciler

	wg     gosync.WaitGroup
	cancel context.CancelFunc
}

// SyncStatus сводка по локальным записям для команды sync --status
type SyncStatus struct {
	Identity    Identity                            `json:"identity"`
	Collections map[string]map[syncstate.Status]int `json:"collections"`
	Stats       SyncStats                           `json:"stats"`
	LastSync    time.Time                           `json:"last_sync"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	httpCl := NewHTTPClient(cfg, log)

	// Локальный кэш: SQLite, при сбое память
	var cache Cache
	sqliteCache, err := NewSQLiteCache(cfg.CachePath)
	if err != nil {
		log.Warn("Не удалось открыть SQLite, используем память", "error", err)
		cache = NewMemoryCache()
	} else {
		cache = sqliteCache
	}

	app := newApp(cfg, log, httpCl, cache, httpCl)

	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		log.Debug("Токен загружен из файла")
	}

	return app, nil
}

func newApp(cfg *config.Config, log *slog.Logger, httpCl *httpClient, cache Cache, remote RemoteStore) *App {
	sc := NewSyncContext(cache, remote, httpCl, log)
	if cfg.WriteTimeout > 0 {
		sc.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.ReadTimeout > 0 {
		sc.ReadTimeout = cfg.ReadTimeout
	}

	plans := NewPlanStore(sc)
	reconciler := NewReconciler(log, cfg.ReconcileDelay, time.Duration(cfg.SyncInterval)*time.Second, cfg.ConfigDir)

	app := &App{
		config:      cfg,
		log:         log,
		httpClient:  httpCl,
		cache:       cache,
		sc:          sc,
		activities:  NewCollection[activity.Record](sc, "userActivities", CollectionActivities),
		completions: NewCollection[workout.Completion](sc, "completedWorkouts", CollectionCompletions).OnMissingParent(plans.CompletionHook()),
		plans:       plans,
		premium:     NewEntitlements(sc, httpCl),
		reconciler:  reconciler,
	}

	reconciler.Register(app.plans, app.activities, app.completions, app.premium)
	sc.Trigger = reconciler.Trigger

	return app
}

// Run запускает автоматическую сверку до сигнала завершения
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.handleSignals()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.reconciler.StartAutoSync(ctx)
	}()

	if addr := a.config.MetricsAddr; addr != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := serveMetrics(ctx, addr, a.log); err != nil {
				a.log.Error("Сервер метрик остановлен", "addr", addr, "error", err)
			}
		}()
	}

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	if a.cancel != nil {
		a.cancel()
	}

	a.wg.Wait()
	a.reconciler.Wait()

	if err := a.cache.Close(); err != nil {
		a.log.Warn("Ошибка закрытия кэша", "error", err)
	}
	a.log.Info("Клиент завершил работу")
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.httpClient.HealthCheck(ctx)
}

// Identity текущая личность
func (a *App) Identity(ctx context.Context) Identity {
	return a.sc.Identity.Resolve(ctx)
}

// IsAuthenticated есть ли сохранённая сессия
func (a *App) IsAuthenticated() bool {
	return a.httpClient.HasSession()
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("токен не найден. Выполните вход: pacekeeper auth login")
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.httpClient.SetToken(token)
	a.sc.Identity.Forget()

	return nil
}

// ClearToken удаляет токен; дальнейшие записи становятся анонимными
func (a *App) ClearToken() error {
	a.httpClient.SetToken("")
	a.sc.Identity.Forget()

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}

	return nil
}

// Register регистрирует нового пользователя
func (a *App) Register(ctx context.Context, req user.BaseRequest) (int, error) {
	id, err := a.httpClient.Register(ctx, req.Login, req.Password)
	if err != nil {
		return 0, err
	}

	a.log.Info("Пользователь успешно зарегистрирован", "login", req.Login)
	return id, nil
}

// Login выполняет вход и передаёт анонимные записи вошедшему пользователю
func (a *App) Login(ctx context.Context, req user.BaseRequest) (int, error) {
	token, err := a.httpClient.Login(ctx, req.Login, req.Password)
	if err != nil {
		return 0, err
	}

	if err = a.SaveToken(token); err != nil {
		return 0, err
	}

	identity := a.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		a.log.Warn("Профиль не получен, записи остаются локальными", "login", req.Login)
		return 0, nil
	}

	adopted, err := a.Adopt(ctx)
	if err != nil {
		return adopted, err
	}

	a.log.Info("Вход выполнен успешно", "login", req.Login, "adopted", adopted)
	return adopted, nil
}

// Adopt передаёт все анонимные записи текущему пользователю
func (a *App) Adopt(ctx context.Context) (int, error) {
	total := 0

	n, err := a.plans.Adopt(ctx)
	if err != nil {
		return total, err
	}
	total += n

	for _, adopt := range []func(context.Context) (int, error){a.activities.Adopt, a.completions.Adopt} {
		n, err := adopt(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}

	if _, err := a.premium.Adopt(ctx); err != nil {
		return total, err
	}

	return total, nil
}

// PublishActivity сохраняет тренировку
func (a *App) PublishActivity(ctx context.Context, rec activity.Record) (string, error) {
	return a.activities.Write(ctx, rec)
}

// ListActivities тренировки текущей личности, новые первыми
func (a *App) ListActivities(ctx context.Context) ([]activity.Record, error) {
	return a.activities.Load(ctx)
}

// CompleteWorkout отмечает выполнение тренировки плана
func (a *App) CompleteWorkout(ctx context.Context, c workout.Completion) (string, error) {
	if strings.TrimSpace(c.WorkoutID) == "" {
		return "", workout.ErrMissingWorkout
	}
	return a.completions.Write(ctx, c)
}

// CompleteWithActivity сохраняет тренировку и отмечает по ней выполнение
func (a *App) CompleteWithActivity(ctx context.Context, rec activity.Record, workoutID, planID string, week int) (string, error) {
	if strings.TrimSpace(workoutID) == "" {
		return "", workout.ErrMissingWorkout
	}

	id, err := a.activities.Write(ctx, rec)
	if err != nil {
		return "", err
	}
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = a.sc.Now()
	}

	return a.completions.Write(ctx, workout.FromActivity(rec, workoutID, planID, week))
}

// ListCompletions отметки о выполнении текущей личности
func (a *App) ListCompletions(ctx context.Context) ([]workout.Completion, error) {
	return a.completions.Load(ctx)
}

// ImportPlan сохраняет тренировочный план
func (a *App) ImportPlan(ctx context.Context, plan workout.Plan) (workout.Plan, error) {
	return a.plans.Save(ctx, plan)
}

// CurrentPlan сохранённый план
func (a *App) CurrentPlan() (workout.Plan, bool, error) {
	return a.plans.Current()
}

// Premium статус подписки текущей личности
func (a *App) Premium(ctx context.Context) (Entitlement, error) {
	return a.premium.Current(ctx)
}

// ApplyPurchase применяет итог покупки
func (a *App) ApplyPurchase(ctx context.Context, res PurchaseResult) (Entitlement, error) {
	return a.premium.ApplyPurchase(ctx, res)
}

// ApplyRestore применяет итог восстановления покупок
func (a *App) ApplyRestore(ctx context.Context, res RestoreResult) (Entitlement, error) {
	return a.premium.ApplyRestore(ctx, res)
}

// Sync запускает сверку всех коллекций
func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	if !a.Identity(ctx).IsAuthenticated() {
		return nil, fmt.Errorf("пользователь не аутентифицирован")
	}

	result := a.reconciler.ReconcileAll(ctx)
	if err := result.Err(ErrSyncInProgress); err != nil {
		return result, err
	}
	return result, nil
}

// SyncStatus количество записей по статусам и статистика сверок
func (a *App) SyncStatus(ctx context.Context) (*SyncStatus, error) {
	status := &SyncStatus{
		Identity:    a.Identity(ctx),
		Collections: make(map[string]map[syncstate.Status]int, 3),
		Stats:       a.reconciler.GetStats(),
		LastSync:    a.reconciler.GetLastSyncTime(),
	}

	for _, c := range []interface {
		Key() string
		Stats() (map[syncstate.Status]int, error)
	}{a.activities, a.completions} {
		stats, err := c.Stats()
		if err != nil {
			return nil, err
		}
		status.Collections[c.Key()] = stats
	}

	plan, ok, err := a.plans.Current()
	if err != nil {
		return nil, err
	}
	if ok {
		status.Collections[a.plans.Key()] = map[syncstate.Status]int{plan.SyncStatus: 1}
	}

	return status, nil
}

// Reconciler фоновая сверка
func (a *App) Reconciler() *Reconciler {
	return a.reconciler
}

type appKey struct{}

// WithApp кладёт приложение в контекст команды
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

var ErrNoApp = errors.New("приложение не инициализировано")

// FromContext достаёт приложение из контекста команды
func FromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}
