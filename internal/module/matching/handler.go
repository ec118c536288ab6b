package matching

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamforge/server/internal/module/auth"
	"github.com/teamforge/server/internal/module/profile"
	"github.com/teamforge/server/internal/shared/response"
)

// Handler handles HTTP requests for candidate ranking.
type Handler struct {
	service      *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler creates a new matching handler.
func NewHandler(service *Service, defaultLimit, maxLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Handler{
		service:      service,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// RegisterRoutes registers matching routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/candidates", h.Candidates)
}

// CandidatesQuery represents query parameters for the candidates endpoint.
type CandidatesQuery struct {
	MinScore int `form:"min_score" binding:"omitempty,min=0,max=100"`
	Limit    int `form:"limit" binding:"omitempty,min=1"`
}

// Candidates handles ranked candidate listing for the caller.
func (h *Handler) Candidates(c *gin.Context) {
	selfID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var query CandidatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	limit := query.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	ranked, err := h.service.Candidates(c.Request.Context(), selfID, RankOptions{
		MinScore: query.MinScore,
		Limit:    limit,
	})
	if err != nil {
		response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
			{Err: profile.ErrProfileNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "profile not found"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": ranked,
		"count":      len(ranked),
	})
}
