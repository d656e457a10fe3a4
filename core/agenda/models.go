package agenda

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

// EventType discriminates the heterogeneous sources merged into the agenda.
type EventType string

const (
	TypeSEP        EventType = "SEP"        // official calendar entries
	TypeDirection  EventType = "DIRECTION"  // direction-authored school entries
	TypeAssignment EventType = "ASSIGNMENT" // assignment due dates
	TypePersonal   EventType = "PERSONAL"   // per-teacher events
	TypePlanning   EventType = "PLANNING"   // lesson-plan sessions
)

// presentation tags per type; not semantically load-bearing
var typeColors = map[EventType]string{
	TypeSEP:        "cyan",
	TypeDirection:  "cyan",
	TypeAssignment: "emerald",
	TypePersonal:   "indigo",
	TypePlanning:   "violet",
}

// SessionDetails carries the exploded lesson-plan session content so the
// agenda can render a PLANNING event without a second lookup.
type SessionDetails struct {
	Apertura   string `json:"apertura"`
	Desarrollo string `json:"desarrollo"`
	Cierre     string `json:"cierre"`
	PlanTitle  string `json:"plan_title,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Group      string `json:"group,omitempty"`
}

// CalendarEvent is the normalized, date-bucketed read projection the calendar
// grid renders. It owns no persisted state; it is rebuilt on every
// month/tenant change from the four source tables.
type CalendarEvent struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Date        string          `json:"date"` // YYYY-MM-DD, the bucketing key
	Type        EventType       `json:"type"`
	Color       string          `json:"color"`
	Subtitle    string          `json:"subtitle,omitempty"`
	DisplayTime string          `json:"display_time,omitempty"`
	StartTime   *time.Time      `json:"start_time,omitempty"` // same-day ordering only
	PlanID      string          `json:"original_plan_id,omitempty"`
	Details     *SessionDetails `json:"details,omitempty"`
}

// CalendarEntry is a row of the institutional calendar table
// (imported .ics entries, official SEP entries, direction entries).
type CalendarEntry struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartDate     string    `json:"start_date"` // YYYY-MM-DD
	EndDate       string    `json:"end_date"`   // YYYY-MM-DD
	Type          string    `json:"type"`       // "direction" | "generic"
	IsOfficialSEP bool      `json:"is_official_sep"`
	CreatedAt     time.Time `json:"created_at"`
}

// TeacherEvent is a row of the personal teacher-events table.
type TeacherEvent struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	TeacherID string    `json:"teacher_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSchoolEvent creates an institutional calendar entry.
type NewSchoolEvent struct {
	Title     string `json:"title" validate:"required"`
	Date      string `json:"date" validate:"required,date_"`
	Direction bool   `json:"direction"` // direction-wide visibility
}

func (ne *NewSchoolEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	return validate.Struct(ne)
}

// NewPersonalEvent creates a per-teacher event.
type NewPersonalEvent struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date" validate:"required,date_"`
	Time  string `json:"time" validate:"omitempty,len=5"` // HH:MM; defaults to 09:00
}

func (ne *NewPersonalEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	if ne.Time == "" {
		ne.Time = "09:00"
	}
	return validate.Struct(ne)
}
