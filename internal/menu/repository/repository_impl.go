package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/menu/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, slot *domain.MealSlot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO meal_slots (
			id, day_number, meal_option, description, description_search, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		slot.ID,
		slot.DayNumber,
		slot.Option,
		slot.Description,
		domain.SearchText(slot.Description),
		slot.CreatedAt,
		slot.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.MealSlot, error) {
	var slot domain.MealSlot
	err := db.WithContext(ctx).Raw(
		`SELECT id, day_number, meal_option, description, created_at, updated_at
		 FROM meal_slots WHERE id = ?`,
		id,
	).Scan(&slot).Error
	if err != nil {
		return nil, err
	}
	if slot.ID == 0 {
		return nil, nil
	}
	return &slot, nil
}

func (r *repo) ListByDayRange(ctx context.Context, db *gorm.DB, from, to calendar.DayNumber) ([]domain.MealSlot, error) {
	var items []domain.MealSlot
	err := db.WithContext(ctx).Raw(
		`SELECT id, day_number, meal_option, description, created_at, updated_at
		 FROM meal_slots
		 WHERE day_number >= ? AND day_number <= ?
		 ORDER BY day_number ASC, meal_option ASC`,
		from,
		to,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateDescription(ctx context.Context, db *gorm.DB, slot *domain.MealSlot) error {
	if slot == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE meal_slots SET description = ?, description_search = ?, updated_at = ? WHERE id = ?`,
		slot.Description,
		domain.SearchText(slot.Description),
		slot.UpdatedAt,
		slot.ID,
	).Error
}

func (r *repo) SearchDescriptions(ctx context.Context, db *gorm.DB, query string, limit int) ([]string, error) {
	var items []string
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT description
		 FROM meal_slots
		 WHERE description <> '' AND description_search LIKE ? ESCAPE '!'
		 ORDER BY description ASC
		 LIMIT ?`,
		"%"+escapeLike(domain.SearchText(query))+"%",
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes query match literally inside a LIKE pattern using '!' as
// the escape character, which reads the same on every supported dialect.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
