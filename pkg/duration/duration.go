// Package duration разбирает длительности модерации вида "30 minutes",
// "1 hour", "2 days", "1 week" или "PERMANENT".
package duration

import (
	"strconv"
	"strings"
	"time"

	"github.com/thereayou/lazycord/pkg/apperrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Parse возвращает (nil, nil) для постоянной длительности ("PERMANENT" или
// пустая строка). Неизвестная единица измерения трактуется как часы: это
// унаследованное поведение, на него полагаются существующие клиенты.
func Parse(raw string) (*time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "permanent") {
		return nil, nil
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return nil, apperrors.InvalidArg("duration must look like \"2 hours\" or \"PERMANENT\"")
	}

	value, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || value <= 0 {
		return nil, apperrors.InvalidArg("duration magnitude must be a positive integer")
	}

	var unit time.Duration
	switch strings.ToLower(parts[1]) {
	case "minutes", "minute", "min", "m":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day", "d":
		unit = day
	case "weeks", "week", "w":
		unit = week
	default:
		unit = time.Hour
	}

	d := time.Duration(value) * unit
	return &d, nil
}
