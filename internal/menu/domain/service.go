package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// GetWeek returns the complete Monday–Friday grid of the week containing
	// ref, or the current week when ref is nil. Missing slots are created.
	GetWeek(ctx context.Context, ref *time.Time) (*WeekResponse, error)
	GetSlot(ctx context.Context, id string) (*SlotResponse, error)
	Rename(ctx context.Context, req RenameRequest) (*SlotResponse, error)
	Suggest(ctx context.Context, query string) ([]string, error)
}

const (
	MinDescriptionLength = 2
	MaxDescriptionLength = 200
	MinSuggestQuery      = 2
	MaxSuggestions       = 10
)

type RenameRequest struct {
	ID          string `json:"daily_meal_id"`
	Description string `json:"new_description"`
}

type SlotResponse struct {
	ID          string    `json:"id"`
	DayNumber   int32     `json:"day_number"`
	Date        string    `json:"date"`
	Option      string    `json:"option"`
	OptionLabel string    `json:"option_label"`
	OptionSlug  string    `json:"option_slug"`
	Description string    `json:"description"`
	IsToday     bool      `json:"is_today"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WeekResponse struct {
	WeekStart string         `json:"week_start"`
	WeekEnd   string         `json:"week_end"`
	Slots     []SlotResponse `json:"slots"`
}

var (
	ErrInvalidDescription = errors.New("invalid_description")
	ErrNotFound           = errors.New("not_found")
)
