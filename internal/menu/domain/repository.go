package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	// Create inserts slot. A slot already present for the same day and option
	// fails with a duplicate-key error.
	Create(ctx context.Context, db *gorm.DB, slot *MealSlot) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MealSlot, error)
	// ListByDayRange returns slots with from <= day_number <= to ordered by day, then option.
	ListByDayRange(ctx context.Context, db *gorm.DB, from, to calendar.DayNumber) ([]MealSlot, error)
	UpdateDescription(ctx context.Context, db *gorm.DB, slot *MealSlot) error
	// SearchDescriptions returns up to limit distinct non-empty descriptions
	// containing query, ignoring case.
	SearchDescriptions(ctx context.Context, db *gorm.DB, query string, limit int) ([]string, error)
}
