package profile

// SkillInput is one skill entry in an upsert request.
type SkillInput struct {
	Name  string     `json:"name" binding:"required,min=1,max=64"`
	Level SkillLevel `json:"level" binding:"required,oneof=beginner intermediate advanced expert"`
}

// UpsertProfileRequest represents a request to create or update a profile.
type UpsertProfileRequest struct {
	DisplayName string       `json:"display_name" binding:"required,min=1,max=100"`
	Bio         string       `json:"bio" binding:"max=1000"`
	Skills      []SkillInput `json:"skills" binding:"max=50,dive"`
}
