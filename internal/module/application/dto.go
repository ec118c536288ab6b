package application

import "github.com/google/uuid"

// SubmitApplicationRequest represents a request to apply to an opening.
// Skills is an optional self-reported list shown to the reviewing owner.
type SubmitApplicationRequest struct {
	OpeningID uuid.UUID `json:"opening_id" binding:"required"`
	Message   string    `json:"message" binding:"max=2000"`
	Skills    []string  `json:"skills" binding:"max=50"`
}
