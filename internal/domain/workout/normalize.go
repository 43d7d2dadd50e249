package workout

import (
	"math"
	"strings"
	"time"
)

// Normalize приводит отметку к каноническому виду. Дата выполнения не может
// быть позже момента вставки; нераспознанная дата заменяется сегодняшней.
func (c *Completion) Normalize(now time.Time) []string {
	c.WorkoutID = strings.TrimSpace(c.WorkoutID)
	c.PlanID = strings.TrimSpace(c.PlanID)

	if c.WeekNumber != nil && *c.WeekNumber < 1 {
		c.note("week_number: неположительное значение %d", *c.WeekNumber)
		c.WeekNumber = nil
	}

	if d := c.ActualDistanceKm; d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0) || *d < 0) {
		c.note("actual_distance_km: отрицательное или нечисловое значение %v", *d)
		zero := 0.0
		c.ActualDistanceKm = &zero
	}

	if d := c.ActualDurationSeconds; d != nil && *d < 0 {
		c.note("actual_duration_seconds: отрицательное значение %d", *d)
		zero := 0
		c.ActualDurationSeconds = &zero
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	today := c.CreatedAt.Format(DateLayout)
	switch date, err := time.Parse(DateLayout, strings.TrimSpace(c.CompletedDate)); {
	case c.CompletedDate == "":
		c.CompletedDate = today
	case err != nil:
		c.note("completed_date: нераспознанная дата %q", c.CompletedDate)
		c.CompletedDate = today
	case date.Format(DateLayout) > today:
		c.note("completed_date: дата из будущего %s", c.CompletedDate)
		c.CompletedDate = today
	default:
		c.CompletedDate = date.Format(DateLayout)
	}

	notes := c.notes
	c.notes = nil
	return notes
}
