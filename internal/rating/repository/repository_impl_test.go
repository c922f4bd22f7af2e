package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/rating/domain"
	"github.com/smallbiznis/bistro/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Rating{}))
	return conn
}

func newRating(node *snowflake.Node, slotID snowflake.ID, day calendar.DayNumber, userID string, stars int) *domain.Rating {
	now := time.Now().UTC()
	return &domain.Rating{
		ID:         node.Generate(),
		MealSlotID: slotID,
		DayNumber:  day,
		UserID:     userID,
		Stars:      stars,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateEnforcesOneRatingPerUserDay(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := Provide()
	day := calendar.FromDate(2026, time.March, 4)

	require.NoError(t, repo.Create(context.Background(), conn, newRating(node, 1, day, "alice", 3)))

	err := repo.Create(context.Background(), conn, newRating(node, 2, day, "alice", 4))
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))

	assert.NoError(t, repo.Create(context.Background(), conn, newRating(node, 2, day, "bob", 4)))
	assert.NoError(t, repo.Create(context.Background(), conn, newRating(node, 2, day.AddDays(1), "alice", 4)))
}

func TestFindByUserDay(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := Provide()
	day := calendar.FromDate(2026, time.March, 4)

	missing, err := repo.FindByUserDay(context.Background(), conn, day, "alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created := newRating(node, 7, day, "alice", 3)
	require.NoError(t, repo.Create(context.Background(), conn, created))

	found, err := repo.FindByUserDay(context.Background(), conn, day, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, snowflake.ID(7), found.MealSlotID)
}

func TestUpdateStars(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := Provide()
	day := calendar.FromDate(2026, time.March, 4)

	created := newRating(node, 7, day, "alice", 3)
	require.NoError(t, repo.Create(context.Background(), conn, created))
	require.NoError(t, repo.UpdateStars(context.Background(), conn, created.ID, 5, day, time.Now().UTC()))

	found, err := repo.FindByUserDay(context.Background(), conn, day, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 5, found.Stars)
}

func TestFindByMealDayAndListByUserRange(t *testing.T) {
	conn := setupDB(t)
	node, _ := snowflake.NewNode(1)
	repo := Provide()
	monday := calendar.FromDate(2026, time.March, 2)

	require.NoError(t, repo.Create(context.Background(), conn, newRating(node, 7, monday, "alice", 3)))
	require.NoError(t, repo.Create(context.Background(), conn, newRating(node, 7, monday, "bob", 4)))
	require.NoError(t, repo.Create(context.Background(), conn, newRating(node, 8, monday.AddDays(1), "alice", 2)))
	require.NoError(t, repo.Create(context.Background(), conn, newRating(node, 9, monday.AddDays(7), "alice", 1)))

	items, err := repo.FindByMealDay(context.Background(), conn, 7, monday)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.ListByUserRange(context.Background(), conn, "alice", monday, monday.AddDays(4))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, monday, items[0].DayNumber)
	assert.Equal(t, monday.AddDays(1), items[1].DayNumber)
}
