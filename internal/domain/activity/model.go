package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"pacekeeper/internal/domain/syncstate"
)

// GPSPoint точка трека.
type GPSPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Record завершённая тренировка пользователя.
type Record struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Type            string           `json:"type"`
	DistanceKm      float64          `json:"distance_km"`
	DurationSeconds int              `json:"duration_seconds"`
	Calories        *int             `json:"calories,omitempty"`
	GPSTrack        []GPSPoint       `json:"gps_track,omitempty"`
	IsPublic        bool             `json:"is_public"`
	OwnerID         string           `json:"owner_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	SyncStatus      syncstate.Status `json:"sync_status,omitempty"`

	// notes накапливает исправления, сделанные при нестрогом разборе
	notes []string
}

// UnmarshalJSON разбирает запись нестрого: испорченные числа и длительности
// не приводят к ошибке, а заменяются значениями по умолчанию.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		DistanceKm      json.RawMessage `json:"distance_km"`
		DurationSeconds json.RawMessage `json:"duration_seconds"`
		Duration        json.RawMessage `json:"duration"`
		Calories        json.RawMessage `json:"calories"`
		GPSTrack        json.RawMessage `json:"gps_track"`
		CreatedAt       json.RawMessage `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ошибка разбора активности: %w", err)
	}

	*r = Record(raw.plain)
	r.notes = nil

	if !IsAbsent(raw.DistanceKm) {
		d, err := DecodeNumber(raw.DistanceKm)
		if err != nil {
			r.note("distance_km: %v", err)
		}
		r.DistanceKm = d
	}

	durationRaw := raw.DurationSeconds
	if IsAbsent(durationRaw) {
		durationRaw = raw.Duration
	}
	if !IsAbsent(durationRaw) {
		d, err := DecodeDuration(durationRaw)
		if err != nil {
			r.note("duration: %v", err)
			d = DefaultDurationSeconds
		}
		r.DurationSeconds = d
	}

	if !IsAbsent(raw.Calories) {
		c, err := DecodeNumber(raw.Calories)
		if err != nil {
			r.note("calories: %v", err)
		} else {
			v := int(c)
			r.Calories = &v
		}
	}

	if !IsAbsent(raw.GPSTrack) {
		if err := json.Unmarshal(raw.GPSTrack, &r.GPSTrack); err != nil {
			r.note("gps_track: %v", err)
			r.GPSTrack = nil
		}
	}

	if !IsAbsent(raw.CreatedAt) {
		t, err := DecodeTime(raw.CreatedAt)
		if err != nil {
			r.note("created_at: %v", err)
		}
		r.CreatedAt = t
	}

	return nil
}

func (r *Record) note(format string, args ...any) {
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
}

// DurationLabel возвращает длительность в виде HH:MM:SS.
func (r *Record) DurationLabel() string {
	return FormatDuration(r.DurationSeconds)
}

// PaceSecondsPerKm средний темп, 0 если дистанция нулевая.
func (r *Record) PaceSecondsPerKm() int {
	if r.DistanceKm <= 0 {
		return 0
	}
	return int(float64(r.DurationSeconds) / r.DistanceKm)
}

// LocalKey ключ записи в локальном кэше.
func (r *Record) LocalKey() string { return r.ID }

func (r *Record) RecordID() string { return r.ID }

func (r *Record) AssignID(id string) { r.ID = id }

func (r *Record) State() syncstate.Status { return r.SyncStatus }

func (r *Record) MarkState(s syncstate.Status) { r.SyncStatus = s }

func (r *Record) AssignOwner(owner string) { r.OwnerID = owner }

func (r *Record) Owner() string { return r.OwnerID }

func (r *Record) CreatedTime() time.Time { return r.CreatedAt }
