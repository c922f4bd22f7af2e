// Package domain contains the meal rating model and its contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
)

// Rating is a user's single star rating for one day. DayNumber mirrors the
// rated slot's day so the per-day uniqueness lives on this table.
type Rating struct {
	ID         snowflake.ID       `gorm:"primaryKey"`
	MealSlotID snowflake.ID       `gorm:"column:meal_slot_id;not null;index:ix_meal_ratings_slot_day,priority:1"`
	DayNumber  calendar.DayNumber `gorm:"column:day_number;not null;uniqueIndex:ux_meal_ratings_day_user,priority:1;index:ix_meal_ratings_slot_day,priority:2"`
	UserID     string             `gorm:"column:user_id;type:varchar(191);not null;uniqueIndex:ux_meal_ratings_day_user,priority:2"`
	Stars      int                `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Rating) TableName() string { return "meal_ratings" }

// TopMenu is one aggregate row per dish description.
type TopMenu struct {
	Description string  `gorm:"column:description" json:"description"`
	AvgStars    float64 `gorm:"column:avg_stars" json:"avg_stars"`
	Count       int64   `gorm:"column:rating_count" json:"count"`
}
