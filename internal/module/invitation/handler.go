package invitation

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

// Handler handles HTTP requests for invitations.
type Handler struct {
	service *Service
}

// NewHandler creates a new invitation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers invitation routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	invs := r.Group("/invitations")
	{
		invs.POST("", h.Create)
		invs.GET("/mine", h.ListMine)
		invs.GET("/:id", h.Get)
		invs.POST("/:id/accept", h.Accept)
		invs.POST("/:id/reject", h.Reject)
		invs.POST("/:id/withdraw", h.Withdraw)
	}

	r.GET("/teams/:id/invitations", h.ListForTeam)
}

// Create handles inviting a profile to a team.
func (h *Handler) Create(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	inv, err := h.service.Invite(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// Get handles reading an invitation.
func (h *Handler) Get(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	inv, err := h.service.Get(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Accept handles accepting an invitation.
func (h *Handler) Accept(c *gin.Context) {
	h.resolve(c, h.service.Accept)
}

// Reject handles rejecting an invitation.
func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, h.service.Reject)
}

// Withdraw handles withdrawing an invitation.
func (h *Handler) Withdraw(c *gin.Context) {
	h.resolve(c, h.service.Withdraw)
}

// ListMine handles listing the caller's incoming invitations.
func (h *Handler) ListMine(c *gin.Context) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	limit, offset := pagination(c)

	invs, err := h.service.ListMine(c.Request.Context(), actorID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

// ListForTeam handles listing a team's invitations.
func (h *Handler) ListForTeam(c *gin.Context) {
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

	limit, offset := pagination(c)

	invs, err := h.service.ListForTeam(c.Request.Context(), teamID, actorID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

// resolve runs one of the lifecycle transitions identified by the path id.
func (h *Handler) resolve(c *gin.Context, fn func(ctx context.Context, invitationID, actorID uuid.UUID) (*Invitation, error)) {
	actorID, ok := auth.ProfileID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	inv, err := fn(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrInvitationNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: team.ErrTeamNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
		{Err: ErrNotAuthorized, Status: http.StatusForbidden, Code: "FORBIDDEN"},
		{Err: ErrInvalidTransition, Status: http.StatusConflict, Code: "INVALID_TRANSITION"},
		{Err: ErrAlreadyResolved, Status: http.StatusConflict, Code: "ALREADY_RESOLVED"},
		{Err: ErrTeamFull, Status: http.StatusConflict, Code: "TEAM_FULL"},
		{Err: ErrTeamArchived, Status: http.StatusConflict, Code: "TEAM_ARCHIVED"},
		{Err: ErrAlreadyMember, Status: http.StatusConflict, Code: "ALREADY_MEMBER"},
		{Err: ErrDuplicateInvitation, Status: http.StatusConflict, Code: "DUPLICATE_INVITATION"},
		{Err: ErrSelfInvitation, Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR"},
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
