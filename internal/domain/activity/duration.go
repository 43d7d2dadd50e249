package activity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDurationSeconds подставляется вместо нераспознанной длительности.
const DefaultDurationSeconds = 0

// ParseDuration разбирает длительность в форматах HH:MM:SS, MM:SS или число секунд.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: пустая строка", ErrMalformedDuration)
	}

	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
		}
		return int(math.Round(f)), nil
	}
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
		}
		// старшая часть может быть любой, остальные в пределах минуты
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
		}
		values[i] = v
	}

	if len(values) == 2 {
		return values[0]*60 + values[1], nil
	}
	return values[0]*3600 + values[1]*60 + values[2], nil
}

// FormatDuration форматирует секунды как HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// NormalizeDuration возвращает секунды или DefaultDurationSeconds для мусорного ввода.
func NormalizeDuration(s string) int {
	v, err := ParseDuration(s)
	if err != nil {
		return DefaultDurationSeconds
	}
	return v
}
