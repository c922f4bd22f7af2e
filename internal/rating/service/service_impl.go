package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/clock"
	"github.com/smallbiznis/bistro/internal/config"
	menudomain "github.com/smallbiznis/bistro/internal/menu/domain"
	"github.com/smallbiznis/bistro/internal/observability/metrics"
	"github.com/smallbiznis/bistro/internal/rating/domain"
	"github.com/smallbiznis/bistro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	MenuRepo menudomain.Repository
	Clock    clock.Clock
	Config   config.Config
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	menuRepo menudomain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	loc      *time.Location
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rating.service"),
		repo:     p.Repo,
		menuRepo: p.MenuRepo,
		genID:    p.GenID,
		clock:    p.Clock,
		loc:      p.Config.Location(),
		metrics:  p.Metrics,
	}
}

func (s *Service) Rate(ctx context.Context, req domain.RateRequest) (*domain.RateResponse, error) {
	resp, err := s.rate(ctx, req)
	if err != nil {
		s.metrics.RecordRating(ctx, "rejected", rejectReason(err))
		return nil, err
	}
	s.metrics.RecordRating(ctx, string(resp.Outcome), "")
	return resp, nil
}

func (s *Service) rate(ctx context.Context, req domain.RateRequest) (*domain.RateResponse, error) {
	slot, err := s.findSlot(ctx, req.MealSlotID)
	if err != nil {
		return nil, err
	}

	today := calendar.Today(s.clock, s.loc)
	if slot.DayNumber != today {
		return nil, domain.ErrNotToday
	}
	if req.Stars < domain.MinStars || req.Stars > domain.MaxStars {
		return nil, domain.ErrInvalidStars
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	existing, err := s.repo.FindByUserDay(ctx, s.db, today, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		now := s.clock.Now().UTC()
		rating := &domain.Rating{
			ID:         s.genID.Generate(),
			MealSlotID: slot.ID,
			DayNumber:  today,
			UserID:     userID,
			Stars:      req.Stars,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err := s.repo.Create(ctx, s.db, rating)
		if err == nil {
			return toRateResponse(rating, domain.OutcomeCreated), nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}

		// A concurrent request for the same user and day won the insert.
		s.metrics.RecordUniqueRetry(ctx, "meal_rating")
		existing, err = s.repo.FindByUserDay(ctx, s.db, today, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("rating for %s vanished after duplicate insert", today)
		}
	}

	if existing.MealSlotID != slot.ID {
		return nil, domain.ErrAlreadyRatedOther
	}

	existing.Stars = req.Stars
	existing.DayNumber = today
	existing.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateStars(ctx, s.db, existing.ID, existing.Stars, existing.DayNumber, existing.UpdatedAt); err != nil {
		return nil, err
	}
	return toRateResponse(existing, domain.OutcomeUpdated), nil
}

func (s *Service) TopMenus(ctx context.Context, minRatings int) ([]domain.TopMenu, error) {
	if minRatings < domain.DefaultMinRatings {
		minRatings = domain.DefaultMinRatings
	}

	items, err := s.repo.TopMenus(ctx, s.db, minRatings)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.TopMenu{}
	}
	return items, nil
}

func (s *Service) ListMine(ctx context.Context, userID string, ref *time.Time) ([]domain.RatingResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	monday := calendar.WeekStartOf(calendar.Today(s.clock, s.loc))
	if ref != nil {
		monday = calendar.WeekStart(*ref)
	}

	items, err := s.repo.ListByUserRange(ctx, s.db, userID, monday, monday.AddDays(calendar.BusinessDays-1))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RatingResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) SlotSummary(ctx context.Context, mealSlotID string) (*domain.SlotSummary, error) {
	slot, err := s.findSlot(ctx, mealSlotID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.FindByMealDay(ctx, s.db, slot.ID, slot.DayNumber)
	if err != nil {
		return nil, err
	}

	summary := &domain.SlotSummary{
		MealSlotID: slot.ID.String(),
		Date:       slot.DayNumber.String(),
		Count:      len(items),
	}
	if len(items) > 0 {
		total := 0
		for _, item := range items {
			total += item.Stars
		}
		summary.AvgStars = float64(total) / float64(len(items))
	}
	return summary, nil
}

func (s *Service) findSlot(ctx context.Context, id string) (*menudomain.MealSlot, error) {
	slotID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrMealNotFound
	}

	slot, err := s.menuRepo.FindByID(ctx, s.db, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, domain.ErrMealNotFound
	}
	return slot, nil
}

func toResponse(rating *domain.Rating) domain.RatingResponse {
	return domain.RatingResponse{
		ID:         rating.ID.String(),
		MealSlotID: rating.MealSlotID.String(),
		Date:       rating.DayNumber.String(),
		Stars:      rating.Stars,
		UpdatedAt:  rating.UpdatedAt,
	}
}

func toRateResponse(rating *domain.Rating, outcome domain.Outcome) *domain.RateResponse {
	return &domain.RateResponse{
		RatingResponse: toResponse(rating),
		Outcome:        outcome,
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMealNotFound):
		return "meal_not_found"
	case errors.Is(err, domain.ErrNotToday):
		return "not_today"
	case errors.Is(err, domain.ErrInvalidStars):
		return "invalid_stars"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrAlreadyRatedOther):
		return "already_rated_other"
	default:
		return "storage"
	}
}
