package workout

import (
	"fmt"
	"strings"
	"time"

	"pacekeeper/internal/domain/syncstate"
)

// Session запланированная тренировка внутри плана.
type Session struct {
	ID          string  `json:"id"`
	PlanID      string  `json:"plan_id"`
	Week        int     `json:"week"`
	Day         int     `json:"day"`
	Kind        string  `json:"kind"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	Description string  `json:"description,omitempty"`
	OwnerID     string  `json:"owner_id,omitempty"`
}

// Plan тренировочный план, хранится в кэше целиком одним объектом.
type Plan struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Goal       string           `json:"goal,omitempty"`
	Weeks      int              `json:"weeks"`
	StartDate  string           `json:"start_date,omitempty"`
	Sessions   []Session        `json:"sessions"`
	OwnerID    string           `json:"owner_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	SyncStatus syncstate.Status `json:"sync_status,omitempty"`
}

// Normalize проставляет связи сессий с планом и выравнивает счётчик недель.
func (p *Plan) Normalize(now time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	p.Goal = strings.TrimSpace(p.Goal)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	maxWeek := 0
	for i := range p.Sessions {
		s := &p.Sessions[i]
		s.PlanID = p.ID
		s.OwnerID = p.OwnerID
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.DistanceKm < 0 {
			s.DistanceKm = 0
		}
		if s.Week > maxWeek {
			maxWeek = s.Week
		}
	}
	if p.Weeks < maxWeek {
		p.Weeks = maxWeek
	}
}

// Validate проверяет обязательные идентификаторы.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: пустой id плана", ErrInvalidPlan)
	}
	seen := make(map[string]struct{}, len(p.Sessions))
	for _, s := range p.Sessions {
		if s.ID == "" {
			return fmt.Errorf("%w: сессия без id", ErrInvalidPlan)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: повторяющаяся сессия %s", ErrInvalidPlan, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Session ищет сессию плана по идентификатору.
func (p *Plan) Session(id string) (Session, bool) {
	for _, s := range p.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}
