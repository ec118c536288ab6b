package application

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamforge/server/internal/module/auth"
	"github.com/teamforge/server/internal/module/team"
	"github.com/teamforge/server/internal/shared/response"
)

// Handler handles HTTP requests for applications.
type Handler struct {
	service *Service
}

// NewHandler creates a new application handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers application routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	apps := r.Group("/applications")
	{
		apps.POST("", h.Submit)
		apps.GET("/mine", h.ListMine)
		apps.GET("/:id", h.Get)
		apps.POST("/:id/accept", h.Accept)
		apps.POST("/:id/reject", h.Reject)
		apps.POST("/:id/withdraw", h.Withdraw)
	}

	r.GET("/openings/:id/applications", h.ListForOpening)
}

// Submit handles applying to an opening.
func (h *Handler) Submit(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.service.Submit(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// Get handles reading an application.
func (h *Handler) Get(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	app, err := h.service.Get(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Accept handles accepting an application.
func (h *Handler) Accept(c *gin.Context) {
	h.resolve(c, h.service.Accept)
}

// Reject handles rejecting an application.
func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, h.service.Reject)
}

// Withdraw handles withdrawing an application.
func (h *Handler) Withdraw(c *gin.Context) {
	h.resolve(c, h.service.Withdraw)
}

// resolve runs one of the lifecycle transitions identified by the path id.
func (h *Handler) resolve(c *gin.Context, fn func(ctx context.Context, applicationID, actorID uuid.UUID) (*Application, error)) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}

	app, err := fn(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListMine handles listing the caller's applications.
func (h *Handler) ListMine(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	limit, offset := pagination(c)

	apps, err := h.service.ListMine(c.Request.Context(), actorID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// ListForOpening handles listing an opening's applications.
func (h *Handler) ListForOpening(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	openingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opening id")
		return
	}

	limit, offset := pagination(c)

	apps, err := h.service.ListForOpening(c.Request.Context(), openingID, actorID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrApplicationNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: team.ErrOpeningNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: team.ErrTeamNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: ErrNotAuthorized, Status: http.StatusForbidden, Code: "FORBIDDEN"},
		{Err: ErrInvalidTransition, Status: http.StatusConflict, Code: "INVALID_TRANSITION"},
		{Err: ErrAlreadyResolved, Status: http.StatusConflict, Code: "ALREADY_RESOLVED"},
		{Err: ErrOpeningNotOpen, Status: http.StatusConflict, Code: "OPENING_NOT_OPEN"},
		{Err: ErrDeadlinePassed, Status: http.StatusUnprocessableEntity, Code: "DEADLINE_PASSED"},
		{Err: ErrOpeningFull, Status: http.StatusConflict, Code: "OPENING_FULL"},
		{Err: ErrAlreadyMember, Status: http.StatusConflict, Code: "ALREADY_MEMBER"},
		{Err: ErrDuplicateApplication, Status: http.StatusConflict, Code: "DUPLICATE_APPLICATION"},
	})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
