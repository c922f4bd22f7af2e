package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
	"gorm.io/gorm"
)

type Repository interface {
	FindByUserDay(ctx context.Context, db *gorm.DB, day calendar.DayNumber, userID string) (*Rating, error)
	FindByMealDay(ctx context.Context, db *gorm.DB, mealSlotID snowflake.ID, day calendar.DayNumber) ([]Rating, error)
	// Create fails with a duplicate-key error when the user already has a
	// rating for the day.
	Create(ctx context.Context, db *gorm.DB, rating *Rating) error
	UpdateStars(ctx context.Context, db *gorm.DB, id snowflake.ID, stars int, day calendar.DayNumber, updatedAt time.Time) error
	TopMenus(ctx context.Context, db *gorm.DB, minRatings int) ([]TopMenu, error)
	ListByUserRange(ctx context.Context, db *gorm.DB, userID string, from, to calendar.DayNumber) ([]Rating, error)
}
