package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamforge/server/internal/module/auth"
	"github.com/teamforge/server/internal/shared/response"
)

// Handler handles HTTP requests for profiles.
type Handler struct {
	service *Service
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers profile routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profiles := r.Group("/profiles")
	{
		profiles.POST("", h.Upsert)
		profiles.GET("/me", h.GetMe)
		profiles.GET("/:id", h.Get)
	}
}

// Upsert handles profile creation and update.
func (h *Handler) Upsert(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.Upsert(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetMe handles reading the caller's own profile.
func (h *Handler) GetMe(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	p, err := h.service.Get(c.Request.Context(), actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Get handles reading a profile by id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid profile id")
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrProfileNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: ErrInvalidSkillLevel, Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR"},
	})
}
