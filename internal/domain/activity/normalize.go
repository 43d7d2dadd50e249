package activity

import (
	"math"
	"strings"
	"time"
)

const (
	// CaloriesPerKm линейный коэффициент оценки калорий по дистанции.
	CaloriesPerKm = 60

	DefaultType  = "run"
	DefaultTitle = "Run"
)

// EstimateCalories оценивает калории по дистанции.
func EstimateCalories(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Round(distanceKm * CaloriesPerKm))
}

// Normalize приводит запись к каноническому виду и возвращает список
// внесённых исправлений. Ошибок не бывает: всё испорченное заменяется значениями по умолчанию.
func (r *Record) Normalize(now time.Time) []string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	r.Description = strings.TrimSpace(r.Description)

	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = DefaultType
	}

	if math.IsNaN(r.DistanceKm) || math.IsInf(r.DistanceKm, 0) || r.DistanceKm < 0 {
		r.note("distance_km: отрицательное или нечисловое значение %v", r.DistanceKm)
		r.DistanceKm = 0
	}

	if r.DurationSeconds < 0 {
		r.note("duration: отрицательное значение %d", r.DurationSeconds)
		r.DurationSeconds = DefaultDurationSeconds
	}

	if r.Calories == nil || *r.Calories < 0 {
		c := EstimateCalories(r.DistanceKm)
		r.Calories = &c
	}

	if len(r.GPSTrack) > 0 {
		track := r.GPSTrack[:0]
		for _, p := range r.GPSTrack {
			if !validPoint(p) {
				r.note("gps_track: отброшена точка %.5f,%.5f", p.Latitude, p.Longitude)
				continue
			}
			track = append(track, p)
		}
		r.GPSTrack = track
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}

	notes := r.notes
	r.notes = nil
	return notes
}

func validPoint(p GPSPoint) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}
