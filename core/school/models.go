package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Grade     int       `json:"grade"`
	Section   string    `json:"section"`
	Subjects  []Subject `json:"subjects,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Student struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`           // UTC
	UpdatedAt time.Time `json:"updated_at"`           // UTC
}

type Guardian struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Grade      int      `json:"grade" validate:"required,min=1,max=12"`
	Section    string   `json:"section" validate:"required,max=4"`
	SubjectIDs []string `json:"subject_ids" validate:"omitempty,dive,uuid4"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Section = core.CleanString(ng.Section, true /* lower */)
	return validate.Struct(ng)
}

// UpdateGroup defines what may be modified on an existing Group.
type UpdateGroup struct {
	Grade      int      `json:"grade" validate:"omitempty,min=1,max=12"`
	Section    string   `json:"section" validate:"omitempty,max=4"`
	SubjectIDs []string `json:"subject_ids" validate:"omitempty,dive,uuid4"`
}

func (ug *UpdateGroup) Validate(orig Group, validate *validator.Validate) error {
	if ug.Grade == 0 {
		ug.Grade = orig.Grade
	}
	if section := core.CleanString(ug.Section, true /* lower */); section != "" {
		ug.Section = section
	} else {
		ug.Section = orig.Section
	}
	return validate.Struct(ug)
}

// NewGuardian is a guardian linked during enrollment; an existing guardian
// with the same email is reused instead of duplicated.
type NewGuardian struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name      string        `json:"name" validate:"required"`
	GroupID   string        `json:"group_id" validate:"required,uuid4"`
	BirthDate string        `json:"birth_date" validate:"omitempty,date_"`
	Guardians []NewGuardian `json:"guardians" validate:"omitempty,dive"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	for i := range ns.Guardians {
		ns.Guardians[i].Name = core.CleanString(ns.Guardians[i].Name)
		ns.Guardians[i].Email = core.CleanString(ns.Guardians[i].Email, true /* lower */)
	}
	return validate.Struct(ns)
}
