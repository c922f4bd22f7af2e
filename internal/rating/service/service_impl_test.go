package service

import (
	"context"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/clock"
	"github.com/smallbiznis/bistro/internal/config"
	menudomain "github.com/smallbiznis/bistro/internal/menu/domain"
	menurepository "github.com/smallbiznis/bistro/internal/menu/repository"
	"github.com/smallbiznis/bistro/internal/rating/domain"
	"github.com/smallbiznis/bistro/internal/rating/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Wednesday
var now = time.Date(2026, time.March, 4, 12, 15, 0, 0, time.UTC)

var today = calendar.FromDate(2026, time.March, 4)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T, repo domain.Repository) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&menudomain.MealSlot{}, &domain.Rating{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if repo == nil {
		repo = repository.Provide()
	}
	fake := clock.NewFakeClock(now)

	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repo,
		MenuRepo: menurepository.Provide(),
		Clock:    fake,
		Config:   config.Config{Timezone: "UTC"},
	})
	return fixture{svc: svc, db: conn, node: node, clock: fake}
}

func (f fixture) slot(t *testing.T, day calendar.DayNumber, option menudomain.MealOption, description string) *menudomain.MealSlot {
	t.Helper()
	slot := &menudomain.MealSlot{
		ID:          f.node.Generate(),
		DayNumber:   day,
		Option:      option,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, menurepository.Provide().Create(context.Background(), f.db, slot))
	return slot
}

func (f fixture) ratings(t *testing.T) []domain.Rating {
	t.Helper()
	var items []domain.Rating
	require.NoError(t, f.db.Order("id").Find(&items).Error)
	return items
}

func TestRateCreatesThenOverwritesSameMeal(t *testing.T) {
	f := setup(t, nil)
	slot := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")

	first, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: slot.ID.String(), Stars: 3, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, first.Outcome)
	assert.Equal(t, "2026-03-04", first.Date)

	second, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: slot.ID.String(), Stars: 5, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, second.Outcome)
	assert.Equal(t, first.ID, second.ID)

	rows := f.ratings(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Stars)
	assert.Equal(t, today, rows[0].DayNumber)
}

func TestRateIsIdempotent(t *testing.T) {
	f := setup(t, nil)
	slot := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	req := domain.RateRequest{MealSlotID: slot.ID.String(), Stars: 4, UserID: "alice"}

	_, err := f.svc.Rate(context.Background(), req)
	require.NoError(t, err)
	_, err = f.svc.Rate(context.Background(), req)
	require.NoError(t, err)

	rows := f.ratings(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Stars)
}

func TestRateRejectsSecondMealSameDay(t *testing.T) {
	f := setup(t, nil)
	a := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	b := f.slot(t, today, menudomain.OptionJustGoodFood, "Pasta")

	_, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: a.ID.String(), Stars: 2, UserID: "alice"})
	require.NoError(t, err)

	_, err = f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: b.ID.String(), Stars: 5, UserID: "alice"})
	assert.ErrorIs(t, err, domain.ErrAlreadyRatedOther)

	rows := f.ratings(t)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].MealSlotID)
	assert.Equal(t, 2, rows[0].Stars)
}

func TestRateOtherUsersAreIndependent(t *testing.T) {
	f := setup(t, nil)
	a := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	b := f.slot(t, today, menudomain.OptionJustGoodFood, "Pasta")

	_, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: a.ID.String(), Stars: 2, UserID: "alice"})
	require.NoError(t, err)
	_, err = f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: b.ID.String(), Stars: 4, UserID: "bob"})
	require.NoError(t, err)

	assert.Len(t, f.ratings(t), 2)
}

func TestRateResetsNextDay(t *testing.T) {
	f := setup(t, nil)
	wednesday := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	thursday := f.slot(t, today.AddDays(1), menudomain.OptionJustGoodFood, "Pasta")

	_, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: wednesday.ID.String(), Stars: 2, UserID: "alice"})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	resp, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: thursday.ID.String(), Stars: 4, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, resp.Outcome)
	assert.Len(t, f.ratings(t), 2)
}

func TestRateValidation(t *testing.T) {
	f := setup(t, nil)
	current := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	yesterday := f.slot(t, today.AddDays(-1), menudomain.OptionGrillSandwiches, "Soup")

	cases := []struct {
		name string
		req  domain.RateRequest
		err  error
	}{
		{name: "unknown meal", req: domain.RateRequest{MealSlotID: f.node.Generate().String(), Stars: 3, UserID: "alice"}, err: domain.ErrMealNotFound},
		{name: "malformed id", req: domain.RateRequest{MealSlotID: "burger", Stars: 3, UserID: "alice"}, err: domain.ErrMealNotFound},
		{name: "not today", req: domain.RateRequest{MealSlotID: yesterday.ID.String(), Stars: 3, UserID: "alice"}, err: domain.ErrNotToday},
		{name: "not today before stars", req: domain.RateRequest{MealSlotID: yesterday.ID.String(), Stars: 0, UserID: ""}, err: domain.ErrNotToday},
		{name: "zero stars", req: domain.RateRequest{MealSlotID: current.ID.String(), Stars: 0, UserID: "alice"}, err: domain.ErrInvalidStars},
		{name: "six stars", req: domain.RateRequest{MealSlotID: current.ID.String(), Stars: 6, UserID: "alice"}, err: domain.ErrInvalidStars},
		{name: "stars before user", req: domain.RateRequest{MealSlotID: current.ID.String(), Stars: 9, UserID: ""}, err: domain.ErrInvalidStars},
		{name: "missing user", req: domain.RateRequest{MealSlotID: current.ID.String(), Stars: 3, UserID: "  "}, err: domain.ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Rate(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
	assert.Empty(t, f.ratings(t))
}

func TestRateUsesConfiguredTimezone(t *testing.T) {
	f := setup(t, nil)
	svc := New(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		GenID:    f.node,
		Repo:     repository.Provide(),
		MenuRepo: menurepository.Provide(),
		Clock:    clock.NewFakeClock(time.Date(2026, time.March, 4, 23, 30, 0, 0, time.UTC)),
		Config:   config.Config{Timezone: "Etc/GMT-2"},
	})
	thursday := f.slot(t, today.AddDays(1), menudomain.OptionGrillSandwiches, "Burger")

	_, err := svc.Rate(context.Background(), domain.RateRequest{MealSlotID: thursday.ID.String(), Stars: 3, UserID: "alice"})
	assert.NoError(t, err)
}

// racingRepo hides the first lookup and lets a rival rating land right
// before the service's insert, as a concurrent request would.
type racingRepo struct {
	domain.Repository
	node  *snowflake.Node
	rival snowflake.ID
	raced bool
}

func (r *racingRepo) FindByUserDay(ctx context.Context, conn *gorm.DB, day calendar.DayNumber, userID string) (*domain.Rating, error) {
	if !r.raced {
		return nil, nil
	}
	return r.Repository.FindByUserDay(ctx, conn, day, userID)
}

func (r *racingRepo) Create(ctx context.Context, conn *gorm.DB, rating *domain.Rating) error {
	if !r.raced {
		r.raced = true
		rival := *rating
		rival.ID = r.node.Generate()
		rival.MealSlotID = r.rival
		rival.Stars = 1
		if err := r.Repository.Create(ctx, conn, &rival); err != nil {
			return err
		}
	}
	return r.Repository.Create(ctx, conn, rating)
}

func TestRateRetriesAfterConcurrentInsertSameMeal(t *testing.T) {
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	racing := &racingRepo{Repository: repository.Provide(), node: node}
	f := setup(t, racing)
	slot := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	racing.rival = slot.ID

	resp, err := f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: slot.ID.String(), Stars: 5, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, resp.Outcome)

	rows := f.ratings(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Stars)
}

func TestRateRetriesAfterConcurrentInsertOtherMeal(t *testing.T) {
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	racing := &racingRepo{Repository: repository.Provide(), node: node}
	f := setup(t, racing)
	a := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")
	b := f.slot(t, today, menudomain.OptionJustGoodFood, "Pasta")
	racing.rival = a.ID

	_, err = f.svc.Rate(context.Background(), domain.RateRequest{MealSlotID: b.ID.String(), Stars: 5, UserID: "alice"})
	assert.ErrorIs(t, err, domain.ErrAlreadyRatedOther)

	rows := f.ratings(t)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].MealSlotID)
	assert.Equal(t, 1, rows[0].Stars)
}

func seedRating(t *testing.T, f fixture, slot *menudomain.MealSlot, userID string, stars int) {
	t.Helper()
	require.NoError(t, repository.Provide().Create(context.Background(), f.db, &domain.Rating{
		ID:         f.node.Generate(),
		MealSlotID: slot.ID,
		DayNumber:  slot.DayNumber,
		UserID:     userID,
		Stars:      stars,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func TestTopMenus(t *testing.T) {
	f := setup(t, nil)
	monday := calendar.FromDate(2026, time.March, 2)

	pizzaMon := f.slot(t, monday, menudomain.OptionGrillSandwiches, "Pizza")
	pizzaTue := f.slot(t, monday.AddDays(1), menudomain.OptionGrillSandwiches, "Pizza")
	curry := f.slot(t, monday, menudomain.OptionJustGoodFood, "Curry")
	soup := f.slot(t, monday.AddDays(1), menudomain.OptionJustGoodFood, "Soup")
	blank := f.slot(t, monday, menudomain.OptionSmutsLeibspeise, "")
	salad := f.slot(t, monday.AddDays(1), menudomain.OptionSmutsLeibspeise, "Salad")

	seedRating(t, f, pizzaMon, "u1", 4)
	seedRating(t, f, pizzaMon, "u2", 5)
	seedRating(t, f, pizzaTue, "u1", 3)
	seedRating(t, f, curry, "u3", 4)
	seedRating(t, f, soup, "u2", 5)
	seedRating(t, f, soup, "u3", 3)
	seedRating(t, f, blank, "u4", 5)
	seedRating(t, f, salad, "u4", 4)

	items, err := f.svc.TopMenus(context.Background(), domain.DefaultMinRatings)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "Pizza", items[0].Description)
	assert.EqualValues(t, 3, items[0].Count)
	assert.InDelta(t, 4.0, items[0].AvgStars, 1e-9)

	assert.Equal(t, "Soup", items[1].Description)
	assert.EqualValues(t, 2, items[1].Count)
	assert.InDelta(t, 4.0, items[1].AvgStars, 1e-9)

	assert.Equal(t, "Curry", items[2].Description)
	assert.Equal(t, "Salad", items[3].Description)

	items, err = f.svc.TopMenus(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pizza", items[0].Description)

	clamped, err := f.svc.TopMenus(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, clamped, 4)

	none, err := f.svc.TopMenus(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListMine(t *testing.T) {
	f := setup(t, nil)
	monday := calendar.FromDate(2026, time.March, 2)

	seedRating(t, f, f.slot(t, monday, menudomain.OptionGrillSandwiches, "Pizza"), "alice", 4)
	seedRating(t, f, f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger"), "alice", 2)
	seedRating(t, f, f.slot(t, monday.AddDays(7), menudomain.OptionGrillSandwiches, "Wrap"), "alice", 5)
	seedRating(t, f, f.slot(t, today, menudomain.OptionJustGoodFood, "Pasta"), "bob", 1)

	items, err := f.svc.ListMine(context.Background(), "alice", nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-03-02", items[0].Date)
	assert.Equal(t, "2026-03-04", items[1].Date)

	next := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	items, err = f.svc.ListMine(context.Background(), "alice", &next)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Stars)

	_, err = f.svc.ListMine(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSlotSummary(t *testing.T) {
	f := setup(t, nil)
	slot := f.slot(t, today, menudomain.OptionGrillSandwiches, "Burger")

	summary, err := f.svc.SlotSummary(context.Background(), slot.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)

	seedRating(t, f, slot, "alice", 4)
	seedRating(t, f, slot, "bob", 1)

	summary, err = f.svc.SlotSummary(context.Background(), slot.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 2.5, summary.AvgStars, 1e-9)
	assert.Equal(t, "2026-03-04", summary.Date)

	_, err = f.svc.SlotSummary(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrMealNotFound)
}
