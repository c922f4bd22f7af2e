package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/bistro/internal/calendar"
	"github.com/smallbiznis/bistro/internal/clock"
	"github.com/smallbiznis/bistro/internal/config"
	"github.com/smallbiznis/bistro/internal/menu/domain"
	"github.com/smallbiznis/bistro/internal/observability/metrics"
	"github.com/smallbiznis/bistro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Config  config.Config
	Labels  *config.MenuConfigHolder `optional:"true"`
	Metrics *metrics.Metrics         `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	loc     *time.Location
	labels  *config.MenuConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("menu.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   p.Clock,
		loc:     p.Config.Location(),
		labels:  p.Labels,
		metrics: p.Metrics,
	}
}

func (s *Service) GetWeek(ctx context.Context, ref *time.Time) (*domain.WeekResponse, error) {
	today := calendar.Today(s.clock, s.loc)

	monday := calendar.WeekStartOf(today)
	if ref != nil {
		monday = calendar.WeekStart(*ref)
	}
	friday := monday.AddDays(calendar.BusinessDays - 1)

	slots, err := s.repo.ListByDayRange(ctx, s.db, monday, friday)
	if err != nil {
		return nil, err
	}

	if len(slots) != domain.WeekSize() {
		if err := s.materialize(ctx, monday, slots); err != nil {
			return nil, err
		}
		slots, err = s.repo.ListByDayRange(ctx, s.db, monday, friday)
		if err != nil {
			return nil, err
		}
	}

	resp := &domain.WeekResponse{
		WeekStart: monday.String(),
		WeekEnd:   friday.String(),
		Slots:     make([]domain.SlotResponse, 0, len(slots)),
	}
	for i := range slots {
		resp.Slots = append(resp.Slots, s.toResponse(&slots[i], today))
	}
	return resp, nil
}

// materialize creates every (day, option) slot of the week missing from
// existing. A concurrent request creating the same slot is not an error.
func (s *Service) materialize(ctx context.Context, monday calendar.DayNumber, existing []domain.MealSlot) error {
	present := make(map[domain.SlotKey]struct{}, len(existing))
	for _, slot := range existing {
		present[slot.Key()] = struct{}{}
	}

	created := 0
	for _, day := range calendar.BusinessWeek(monday) {
		for _, option := range domain.AllOptions {
			key := domain.SlotKey{DayNumber: day, Option: option}
			if _, ok := present[key]; ok {
				continue
			}

			now := s.clock.Now().UTC()
			slot := &domain.MealSlot{
				ID:        s.genID.Generate(),
				DayNumber: day,
				Option:    option,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.Create(ctx, s.db, slot); err != nil {
				if db.IsDuplicateKeyErr(err) {
					s.metrics.RecordUniqueRetry(ctx, "meal_slot")
					s.log.Debug("meal slot already created concurrently",
						zap.String("day", day.String()),
						zap.String("option", option.Code()),
					)
					continue
				}
				s.log.Error("failed to create meal slot",
					zap.String("day", day.String()),
					zap.String("option", option.Code()),
					zap.Error(err),
				)
				return err
			}
			created++
		}
	}

	if created > 0 {
		s.metrics.RecordSlotsMaterialized(ctx, created)
		s.log.Info("materialized meal slots",
			zap.String("week_start", monday.String()),
			zap.Int("created", created),
		)
	}
	return nil
}

func (s *Service) GetSlot(ctx context.Context, id string) (*domain.SlotResponse, error) {
	slot, err := s.findSlot(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(slot, calendar.Today(s.clock, s.loc))
	return &resp, nil
}

func (s *Service) Rename(ctx context.Context, req domain.RenameRequest) (*domain.SlotResponse, error) {
	slot, err := s.findSlot(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	length := utf8.RuneCountInString(description)
	if length < domain.MinDescriptionLength || length > domain.MaxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}

	slot.Description = description
	slot.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateDescription(ctx, s.db, slot); err != nil {
		return nil, err
	}

	resp := s.toResponse(slot, calendar.Today(s.clock, s.loc))
	return &resp, nil
}

func (s *Service) Suggest(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < domain.MinSuggestQuery {
		return []string{}, nil
	}

	items, err := s.repo.SearchDescriptions(ctx, s.db, query, domain.MaxSuggestions)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func (s *Service) findSlot(ctx context.Context, id string) (*domain.MealSlot, error) {
	slotID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	slot, err := s.repo.FindByID(ctx, s.db, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, domain.ErrNotFound
	}
	return slot, nil
}

func (s *Service) toResponse(slot *domain.MealSlot, today calendar.DayNumber) domain.SlotResponse {
	code := slot.Option.Code()
	label := s.labels.Label(code)
	return domain.SlotResponse{
		ID:          slot.ID.String(),
		DayNumber:   int32(slot.DayNumber),
		Date:        slot.DayNumber.String(),
		Option:      code,
		OptionLabel: label,
		OptionSlug:  slug.Make(label),
		Description: slot.Description,
		IsToday:     slot.DayNumber == today,
		UpdatedAt:   slot.UpdatedAt,
	}
}
