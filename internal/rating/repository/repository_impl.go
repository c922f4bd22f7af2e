package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/rating/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByUserDay(ctx context.Context, db *gorm.DB, day calendar.DayNumber, userID string) (*domain.Rating, error) {
	var rating domain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, meal_slot_id, day_number, user_id, stars, created_at, updated_at
		 FROM meal_ratings WHERE day_number = ? AND user_id = ?`,
		day,
		userID,
	).Scan(&rating).Error
	if err != nil {
		return nil, err
	}
	if rating.ID == 0 {
		return nil, nil
	}
	return &rating, nil
}

func (r *repo) FindByMealDay(ctx context.Context, db *gorm.DB, mealSlotID snowflake.ID, day calendar.DayNumber) ([]domain.Rating, error) {
	var items []domain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, meal_slot_id, day_number, user_id, stars, created_at, updated_at
		 FROM meal_ratings WHERE meal_slot_id = ? AND day_number = ?
		 ORDER BY id ASC`,
		mealSlotID,
		day,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, rating *domain.Rating) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO meal_ratings (
			id, meal_slot_id, day_number, user_id, stars, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rating.ID,
		rating.MealSlotID,
		rating.DayNumber,
		rating.UserID,
		rating.Stars,
		rating.CreatedAt,
		rating.UpdatedAt,
	).Error
}

func (r *repo) UpdateStars(ctx context.Context, db *gorm.DB, id snowflake.ID, stars int, day calendar.DayNumber, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE meal_ratings SET stars = ?, day_number = ?, updated_at = ? WHERE id = ?`,
		stars,
		day,
		updatedAt,
		id,
	).Error
}

func (r *repo) TopMenus(ctx context.Context, db *gorm.DB, minRatings int) ([]domain.TopMenu, error) {
	var items []domain.TopMenu
	err := db.WithContext(ctx).Raw(
		`SELECT s.description AS description,
		        AVG(r.stars * 1.0) AS avg_stars,
		        COUNT(*) AS rating_count
		 FROM meal_ratings r
		 JOIN meal_slots s ON s.id = r.meal_slot_id
		 WHERE s.description IS NOT NULL AND s.description <> ''
		 GROUP BY s.description
		 HAVING COUNT(*) >= ?
		 ORDER BY avg_stars DESC, rating_count DESC, description ASC`,
		minRatings,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByUserRange(ctx context.Context, db *gorm.DB, userID string, from, to calendar.DayNumber) ([]domain.Rating, error) {
	var items []domain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, meal_slot_id, day_number, user_id, stars, created_at, updated_at
		 FROM meal_ratings
		 WHERE user_id = ? AND day_number >= ? AND day_number <= ?
		 ORDER BY day_number ASC`,
		userID,
		from,
		to,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
