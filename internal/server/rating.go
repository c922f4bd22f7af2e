package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/smallbiznis/bistro/internal/rating/domain"
)

type rateMealRequest struct {
	DailyMealID string `json:"daily_meal_id"`
	Stars       int    `json:"stars"`
	UserID      string `json:"user_id"`
}

func (s *Server) RateMeal(c *gin.Context) {
	var req rateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.Rate(c.Request.Context(), ratingdomain.RateRequest{
		MealSlotID: strings.TrimSpace(req.DailyMealID),
		Stars:      req.Stars,
		UserID:     s.callerID(c, req.UserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Outcome == ratingdomain.OutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) GetTopMenus(c *gin.Context) {
	minRatings := ratingdomain.DefaultMinRatings
	raw := c.Query("min_ratings")
	if raw == "" {
		raw = c.Query("minRatings")
	}
	parsed, err := parseOptionalInt(raw)
	if err != nil {
		AbortWithError(c, newValidationError("min_ratings", "invalid_min_ratings", "min_ratings must be an integer"))
		return
	}
	if parsed != nil {
		minRatings = *parsed
	}

	items, err := s.ratingSvc.TopMenus(c.Request.Context(), minRatings)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListMyRatings(c *gin.Context) {
	ref, err := parseOptionalDate(c.Query("date"))
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD or RFC3339"))
		return
	}

	items, err := s.ratingSvc.ListMine(c.Request.Context(), s.callerID(c, c.Query("user_id")), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetSlotRatingSummary(c *gin.Context) {
	resp, err := s.ratingSvc.SlotSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
