package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/syncstate"
	"pacekeeper/internal/domain/workout"
)

const keySavedPlan = "savedPlan"

// PlanStore хранит текущий тренировочный план одним объектом в кэше
// и умеет выгрузить его на сервер, когда отметка о выполнении ссылается на него.
type PlanStore struct {
	sc  *SyncContext
	log *slog.Logger
	mu  sync.Mutex
}

func NewPlanStore(sc *SyncContext) *PlanStore {
	return &PlanStore{
		sc:  sc,
		log: sc.Log.With("component", "plan_store"),
	}
}

// planRow строка training_plans без вложенных сессий.
type planRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Goal      string    `json:"goal,omitempty"`
	Weeks     int       `json:"weeks"`
	StartDate string    `json:"start_date,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Key ключ плана в локальном кэше.
func (s *PlanStore) Key() string {
	return keySavedPlan
}

// Save сохраняет план локально и пытается выгрузить его.
func (s *PlanStore) Save(ctx context.Context, plan workout.Plan) (workout.Plan, error) {
	if plan.ID == "" {
		plan.ID = s.sc.NewID()
	}

	identity := s.sc.Identity.Resolve(ctx)
	plan.OwnerID = identity.OwnerID()
	plan.Normalize(s.sc.Now())
	if err := plan.Validate(); err != nil {
		return workout.Plan{}, err
	}

	if !identity.IsAuthenticated() {
		plan.SyncStatus = syncstate.LocalOnly
	} else if err := s.upload(ctx, plan); err != nil {
		s.log.Warn("Не удалось сохранить план на сервере, сохраняем локально", "plan_id", plan.ID, "error", err)
		s.sc.report("save_plan", err)
		plan.SyncStatus = syncstate.Pending
	} else {
		plan.SyncStatus = syncstate.Synced
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(plan); err != nil {
		return workout.Plan{}, err
	}

	return plan, nil
}

// Current возвращает сохранённый план.
func (s *PlanStore) Current() (workout.Plan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Migrate выгружает сохранённый план, если его id совпадает с planID.
// Используется как разовая попытка при отказе по внешнему ключу.
func (s *PlanStore) Migrate(ctx context.Context, planID string) bool {
	if planID == "" {
		return false
	}

	plan, ok, err := s.Current()
	if err != nil {
		s.sc.report("migrate_plan", err)
		return false
	}
	if !ok || plan.ID != planID {
		s.log.Debug("План для переноса не найден", "plan_id", planID)
		return false
	}

	identity := s.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		return false
	}
	plan.OwnerID = identity.ID
	plan.Normalize(s.sc.Now())

	if err := s.upload(ctx, plan); err != nil {
		s.log.Warn("Не удалось перенести план на сервер", "plan_id", planID, "error", err)
		s.sc.report("migrate_plan", err)
		return false
	}

	plan.SyncStatus = syncstate.Synced
	s.mu.Lock()
	if err := s.writeLocked(plan); err != nil {
		s.sc.report("migrate_plan", err)
	}
	s.mu.Unlock()

	s.log.Info("План перенесён на сервер", "plan_id", planID, "sessions", len(plan.Sessions))
	return true
}

// CompletionHook обработчик отказа по внешнему ключу для отметок о выполнении.
func (s *PlanStore) CompletionHook() MissingParentHook[workout.Completion] {
	return func(ctx context.Context, rec workout.Completion) bool {
		return s.Migrate(ctx, rec.PlanID)
	}
}

// Reconcile выгружает план, если он ждёт синхронизации.
func (s *PlanStore) Reconcile(ctx context.Context, _ time.Duration) (int, error) {
	plan, ok, err := s.Current()
	if err != nil {
		return 0, err
	}
	if !ok || plan.SyncStatus != syncstate.Pending {
		return 0, nil
	}

	if s.Migrate(ctx, plan.ID) {
		return 1, nil
	}
	return 0, nil
}

// Adopt ставит анонимный план в очередь на выгрузку после входа.
func (s *PlanStore) Adopt(ctx context.Context) (int, error) {
	identity := s.sc.Identity.Resolve(ctx)
	if !identity.IsAuthenticated() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok, err := s.readLocked()
	if err != nil || !ok || plan.SyncStatus != syncstate.LocalOnly {
		return 0, err
	}

	plan.OwnerID = identity.ID
	plan.SyncStatus = syncstate.Pending
	plan.Normalize(s.sc.Now())
	if err := s.writeLocked(plan); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *PlanStore) upload(ctx context.Context, plan workout.Plan) error {
	row, err := json.Marshal(planRow{
		ID:        plan.ID,
		Title:     plan.Title,
		Goal:      plan.Goal,
		Weeks:     plan.Weeks,
		StartDate: plan.StartDate,
		OwnerID:   plan.OwnerID,
		CreatedAt: plan.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("ошибка сериализации плана: %w", err)
	}

	if err := s.insert(ctx, CollectionPlans, row); err != nil {
		return fmt.Errorf("выгрузка плана %s: %w", plan.ID, err)
	}

	for _, session := range plan.Sessions {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("ошибка сериализации сессии: %w", err)
		}
		if err := s.insert(ctx, CollectionSessions, data); err != nil {
			return fmt.Errorf("выгрузка сессии %s: %w", session.ID, err)
		}
	}

	return nil
}

func (s *PlanStore) insert(ctx context.Context, collection string, row json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.sc.WriteTimeout)
	defer cancel()

	_, err := s.sc.Remote.Insert(ctx, collection, row)
	return err
}

func (s *PlanStore) readLocked() (workout.Plan, bool, error) {
	raw, ok, err := s.sc.Cache.Get(keySavedPlan)
	if err != nil {
		return workout.Plan{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	if !ok || raw == "" {
		return workout.Plan{}, false, nil
	}

	var plan workout.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		s.log.Warn("Повреждённый план в кэше", "error", err)
		return workout.Plan{}, false, nil
	}
	return plan, true, nil
}

func (s *PlanStore) writeLocked(plan workout.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("%w: сериализация плана: %v", ErrCache, err)
	}
	if err := s.sc.Cache.Set(keySavedPlan, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}
