package workout

import (
	"encoding/json"
	"fmt"
	"time"

	"pacekeeper/internal/domain/activity"
	"pacekeeper/internal/domain/syncstate"
)

// DateLayout формат календарной даты выполнения.
const DateLayout = "2006-01-02"

// Completion отметка о выполнении запланированной тренировки.
type Completion struct {
	ID                    string           `json:"id"`
	WorkoutID             string           `json:"workout_id"`
	PlanID                string           `json:"plan_id,omitempty"`
	WeekNumber            *int             `json:"week_number,omitempty"`
	ActualDistanceKm      *float64         `json:"actual_distance_km,omitempty"`
	ActualDurationSeconds *int             `json:"actual_duration_seconds,omitempty"`
	CompletedDate         string           `json:"completed_date"`
	ActivityID            string           `json:"activity_id,omitempty"`
	OwnerID               string           `json:"owner_id,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	SyncStatus            syncstate.Status `json:"sync_status,omitempty"`

	notes []string
}

// FromActivity собирает отметку о выполнении по фактической тренировке.
// Дата выполнения берётся из даты тренировки.
func FromActivity(rec activity.Record, workoutID, planID string, week int) Completion {
	distance := rec.DistanceKm
	duration := rec.DurationSeconds

	c := Completion{
		WorkoutID:             workoutID,
		PlanID:                planID,
		ActualDistanceKm:      &distance,
		ActualDurationSeconds: &duration,
		ActivityID:            rec.ID,
	}
	if week > 0 {
		c.WeekNumber = &week
	}
	if !rec.CreatedAt.IsZero() {
		c.CompletedDate = rec.CreatedAt.Format(DateLayout)
	}
	return c
}

// UnmarshalJSON нестрогий разбор, как у activity.Record.
func (c *Completion) UnmarshalJSON(data []byte) error {
	type plain Completion
	var raw struct {
		plain
		WeekNumber            json.RawMessage `json:"week_number"`
		ActualDistanceKm      json.RawMessage `json:"actual_distance_km"`
		ActualDurationSeconds json.RawMessage `json:"actual_duration_seconds"`
		CreatedAt             json.RawMessage `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ошибка разбора отметки о тренировке: %w", err)
	}

	*c = Completion(raw.plain)
	c.notes = nil

	if !activity.IsAbsent(raw.WeekNumber) {
		w, err := activity.DecodeNumber(raw.WeekNumber)
		if err != nil {
			c.note("week_number: %v", err)
		} else {
			v := int(w)
			c.WeekNumber = &v
		}
	}

	if !activity.IsAbsent(raw.ActualDistanceKm) {
		d, err := activity.DecodeNumber(raw.ActualDistanceKm)
		if err != nil {
			c.note("actual_distance_km: %v", err)
		} else {
			c.ActualDistanceKm = &d
		}
	}

	if !activity.IsAbsent(raw.ActualDurationSeconds) {
		d, err := activity.DecodeDuration(raw.ActualDurationSeconds)
		if err != nil {
			c.note("actual_duration_seconds: %v", err)
			d = activity.DefaultDurationSeconds
		}
		c.ActualDurationSeconds = &d
	}

	if !activity.IsAbsent(raw.CreatedAt) {
		t, err := activity.DecodeTime(raw.CreatedAt)
		if err != nil {
			c.note("created_at: %v", err)
		}
		c.CreatedAt = t
	}

	return nil
}

func (c *Completion) note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// LocalKey пара (план, тренировка); исправления перезаписывают прежнюю отметку.
func (c *Completion) LocalKey() string { return c.PlanID + "/" + c.WorkoutID }

func (c *Completion) RecordID() string { return c.ID }

func (c *Completion) AssignID(id string) { c.ID = id }

func (c *Completion) State() syncstate.Status { return c.SyncStatus }

func (c *Completion) MarkState(s syncstate.Status) { c.SyncStatus = s }

func (c *Completion) AssignOwner(owner string) { c.OwnerID = owner }

func (c *Completion) Owner() string { return c.OwnerID }

func (c *Completion) CreatedTime() time.Time { return c.CreatedAt }
