package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	menudomain "github.com/smallbiznis/bistro/internal/menu/domain"
)

type renameSlotRequest struct {
	DailyMealID    string `json:"daily_meal_id"`
	NewDescription string `json:"new_description"`
}

func (s *Server) GetWeek(c *gin.Context) {
	ref, err := parseOptionalDate(c.Query("date"))
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD or RFC3339"))
		return
	}

	resp, err := s.menuSvc.GetWeek(c.Request.Context(), ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSlot(c *gin.Context) {
	resp, err := s.menuSvc.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenameSlot(c *gin.Context) {
	var req renameSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.menuSvc.Rename(c.Request.Context(), menudomain.RenameRequest{
		ID:          strings.TrimSpace(req.DailyMealID),
		Description: req.NewDescription,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Autocomplete(c *gin.Context) {
	items, err := s.menuSvc.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
