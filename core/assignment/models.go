package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

type Assignment struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	GroupID     string    `json:"group_id"`
	SubjectID   string    `json:"subject_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// joined for display
	SubjectName  string `json:"subject_name,omitempty"`
	GroupGrade   int    `json:"group_grade,omitempty"`
	GroupSection string `json:"group_section,omitempty"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	GroupID     string    `json:"group_id" validate:"required,uuid4"`
	SubjectID   string    `json:"subject_id" validate:"required,uuid4"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}
