package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/bistro/internal/calendar"
)

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseOptionalDate accepts a calendar date or an RFC3339 timestamp. A
// timestamp keeps its offset so the calendar day is the one the caller meant.
func parseOptionalDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if day, err := calendar.Parse(trimmed); err == nil {
		parsed := day.Time()
		return &parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	return nil, errors.New("invalid_date")
}
