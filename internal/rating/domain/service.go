package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Rate records stars for one of today's meals. A user holds at most one
	// rating per day; re-rating the same meal overwrites the stars.
	Rate(ctx context.Context, req RateRequest) (*RateResponse, error)
	TopMenus(ctx context.Context, minRatings int) ([]TopMenu, error)
	// ListMine returns the user's ratings in the business week containing ref,
	// or the current week when ref is nil.
	ListMine(ctx context.Context, userID string, ref *time.Time) ([]RatingResponse, error)
	SlotSummary(ctx context.Context, mealSlotID string) (*SlotSummary, error)
}

const (
	MinStars          = 1
	MaxStars          = 5
	DefaultMinRatings = 1
)

// Outcome names the transition a successful Rate applied.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

type RateRequest struct {
	MealSlotID string `json:"daily_meal_id"`
	Stars      int    `json:"stars"`
	UserID     string `json:"user_id"`
}

type RatingResponse struct {
	ID         string    `json:"id"`
	MealSlotID string    `json:"daily_meal_id"`
	Date       string    `json:"date"`
	Stars      int       `json:"stars"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RateResponse struct {
	RatingResponse
	Outcome Outcome `json:"outcome"`
}

type SlotSummary struct {
	MealSlotID string  `json:"daily_meal_id"`
	Date       string  `json:"date"`
	Count      int     `json:"count"`
	AvgStars   float64 `json:"avg_stars"`
}

var (
	ErrMealNotFound      = errors.New("meal_not_found")
	ErrNotToday          = errors.New("only_todays_meal_can_be_rated")
	ErrInvalidStars      = errors.New("stars_out_of_range")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyRatedOther = errors.New("already_rated_other_meal_today")
)
