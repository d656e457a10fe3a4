package planning

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

// PlanSession is one entry of a lesson plan's activities sequence.
// The didactic moments keep their Spanish names; they are stored verbatim.
type PlanSession struct {
	Date       string `json:"date" validate:"required,date_"` // YYYY-MM-DD
	Apertura   string `json:"apertura"`
	Desarrollo string `json:"desarrollo"`
	Cierre     string `json:"cierre"`
}

type LessonPlan struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	TeacherID   string        `json:"teacher_id"`
	GroupID     string        `json:"group_id"`
	SubjectID   string        `json:"subject_id"`
	Title       string        `json:"title"`
	StartDate   string        `json:"start_date"` // YYYY-MM-DD
	EndDate     string        `json:"end_date"`   // YYYY-MM-DD
	Temporality string        `json:"temporality"`
	Sessions    []PlanSession `json:"activities_sequence"`
	CreatedAt   time.Time     `json:"created_at"` // UTC
	UpdatedAt   time.Time     `json:"updated_at"` // UTC

	// joined for display
	SubjectName  string `json:"subject_name,omitempty"`
	GroupGrade   int    `json:"group_grade,omitempty"`
	GroupSection string `json:"group_section,omitempty"`
}

// NewLessonPlan contains information needed to create a new LessonPlan.
type NewLessonPlan struct {
	Title       string        `json:"title" validate:"required"`
	StartDate   string        `json:"start_date" validate:"required,date_"`
	EndDate     string        `json:"end_date" validate:"required,date_"`
	Temporality string        `json:"temporality"`
	GroupID     string        `json:"group_id" validate:"required,uuid4"`
	SubjectID   string        `json:"subject_id" validate:"required,uuid4"`
	Sessions    []PlanSession `json:"activities_sequence" validate:"dive"`
}

func (np *NewLessonPlan) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	return validate.Struct(np)
}

// SubstituteRequest is the structured prompt payload sent to the generator:
// a reason for the absence plus, per day, the classes needing cover.
type SubstituteRequest struct {
	Reason string          `json:"reason" validate:"required"`
	Days   []SubstituteDay `json:"days" validate:"required,min=1,dive"`
}

type SubstituteDay struct {
	Date    string            `json:"date" validate:"required,date_"`
	Classes []SubstituteClass `json:"classes" validate:"required,min=1,dive"`
}

type SubstituteClass struct {
	Subject string `json:"subject" validate:"required"`
	Grade   int    `json:"grade"`
	Section string `json:"section"`
	Topic   string `json:"topic"`
}

func (sr *SubstituteRequest) Validate(validate *validator.Validate) error {
	sr.Reason = core.CleanString(sr.Reason)
	return validate.Struct(sr)
}

// GeneratedActivity is one substitute activity as returned by the generator;
// the generator is opaque, the shape mirrors a plan session.
type GeneratedActivity struct {
	Date       string `json:"date"`
	Subject    string `json:"subject"`
	Title      string `json:"title"`
	Apertura   string `json:"apertura"`
	Desarrollo string `json:"desarrollo"`
	Cierre     string `json:"cierre"`
	Materials  string `json:"materials"`
}
