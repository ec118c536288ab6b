package team

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamforge/server/internal/module/auth"
	"github.com/teamforge/server/internal/shared/response"
)

// Handler handles HTTP requests for teams and openings.
type Handler struct {
	service *Service
}

// NewHandler creates a new team handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers team and opening routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	teams := r.Group("/teams")
	{
		teams.POST("", h.CreateTeam)
		teams.GET("/mine", h.ListMyTeams)
		teams.GET("/:id", h.GetTeam)
		teams.GET("/:id/members", h.ListMembers)
		teams.POST("/:id/archive", h.ArchiveTeam)
		teams.POST("/:id/openings", h.CreateOpening)
	}

	openings := r.Group("/openings")
	{
		openings.GET("", h.ListOpenings)
		openings.GET("/:id", h.GetOpening)
		openings.PATCH("/:id", h.UpdateOpening)
		openings.DELETE("/:id", h.DeleteOpening)
	}
}

// CreateTeam handles team creation.
func (h *Handler) CreateTeam(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.service.CreateTeam(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, team)
}

// GetTeam handles reading a team by id.
func (h *Handler) GetTeam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	team, err := h.service.GetTeam(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

// ListMembers handles listing a team's members.
func (h *Handler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// ListMyTeams handles listing the caller's teams.
func (h *Handler) ListMyTeams(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	limit, offset := pagination(c)

	teams, err := h.service.ListMyTeams(c.Request.Context(), actorID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// ArchiveTeam handles archiving a team.
func (h *Handler) ArchiveTeam(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	if err := h.service.ArchiveTeam(c.Request.Context(), id, actorID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(TeamStatusArchived)})
}

// CreateOpening handles creating an opening on a team.
func (h *Handler) CreateOpening(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}

	var req CreateOpeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	opening, err := h.service.CreateOpening(c.Request.Context(), teamID, actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, opening)
}

// ListOpenings handles browsing open openings.
func (h *Handler) ListOpenings(c *gin.Context) {
	limit, offset := pagination(c)

	openings, err := h.service.ListOpenings(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"openings": openings})
}

// GetOpening handles reading an opening by id.
func (h *Handler) GetOpening(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opening id")
		return
	}

	opening, err := h.service.GetOpening(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, opening)
}

// UpdateOpening handles owner edits to an opening.
func (h *Handler) UpdateOpening(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opening id")
		return
	}

	var req UpdateOpeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	opening, err := h.service.UpdateOpening(c.Request.Context(), id, actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, opening)
}

// DeleteOpening handles deleting an opening.
func (h *Handler) DeleteOpening(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opening id")
		return
	}

	if err := h.service.DeleteOpening(c.Request.Context(), id, actorID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrTeamNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: ErrOpeningNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: ErrNotAuthorized, Status: http.StatusForbidden, Code: "FORBIDDEN"},
		{Err: ErrTeamArchived, Status: http.StatusConflict, Code: "TEAM_ARCHIVED"},
		{Err: ErrInvalidSeats, Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR"},
		{Err: ErrInvalidCapacity, Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR"},
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
