package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/prompts"
	"github.com/timmy/tabextract/internal/service"
)

// SurveyLister lists stored surveys. *service.SurveyResolver satisfies it.
type SurveyLister interface {
	List(ctx context.Context) ([]service.Survey, error)
}

// CatalogHandler serves the choices a client offers before starting a job.
type CatalogHandler struct {
	surveys SurveyLister
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - surveys: survey lister used for the existing-data picker.
//
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(surveys SurveyLister) *CatalogHandler {
	return &CatalogHandler{surveys: surveys}
}

// Models handles GET /api/v1/models.
func (h *CatalogHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  prompts.Models(),
		"default": prompts.DefaultInstruction,
	})
}

// Surveys handles GET /api/v1/surveys.
func (h *CatalogHandler) Surveys(c *gin.Context) {
	ctx := c.Request.Context()
	surveys, err := h.surveys.List(ctx)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to load surveys: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load surveys: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}
