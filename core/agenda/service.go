package agenda

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/assignment"
	"github.com/escolaria/escolaria/core/planning"
)

const dateLayout = "2006-01-02"

// due dates near the month boundary stay visible
const assignmentBufferDays = 7

var (
	ErrNotFound     = errors.New("event not found")
	ErrNotDeletable = errors.New("this event type cannot be deleted from the agenda")
)

type (
	Repository interface {
		// QueryCalendarEntries returns entries overlapping [monthStart, monthEnd]
		// that are tenant-scoped OR flagged official (dates compared as strings).
		QueryCalendarEntries(ctx context.Context, tenantID, monthStart, monthEnd string) ([]CalendarEntry, error)
		CreateCalendarEntries(ctx context.Context, entries []CalendarEntry) error
		// DeleteCalendarEntry only removes the tenant's own entry; official
		// rows carry no tenant and cannot be deleted this way.
		DeleteCalendarEntry(ctx context.Context, tenantID, id string) error

		QueryTeacherEvents(ctx context.Context, teacherID string, from, to time.Time) ([]TeacherEvent, error)
		CreateTeacherEvent(ctx context.Context, ev TeacherEvent) (TeacherEvent, error)
		// DeleteTeacherEvent only removes the owning teacher's event.
		DeleteTeacherEvent(ctx context.Context, teacherID, id string) error
	}

	// AssignmentSource and PlanSource are the read sides of the two sibling
	// domains the agenda projects from.
	AssignmentSource interface {
		QueryByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]assignment.Assignment, error)
	}

	PlanSource interface {
		QueryOverlapping(ctx context.Context, tenantID, from, to string) ([]planning.LessonPlan, error)
	}

	ServiceInterface interface {
		MonthEvents(ctx context.Context, tenantID, teacherID string, year int, month time.Month) ([]CalendarEvent, error)
		ImportICS(ctx context.Context, tenantID, icsText string, direction bool) (int, error)
		CreateSchoolEvent(ctx context.Context, tenantID string, ne NewSchoolEvent) (CalendarEntry, error)
		CreatePersonalEvent(ctx context.Context, tenantID, teacherID string, ne NewPersonalEvent) (TeacherEvent, error)
		DeleteEvent(ctx context.Context, tenantID, teacherID string, eventType EventType, id string) error
	}

	service struct {
		repo        Repository
		assignments AssignmentSource
		plans       PlanSource
		logger      core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, assignments AssignmentSource, plans PlanSource, logger core.Logger) *service {
	return &service{
		repo:        repo,
		assignments: assignments,
		plans:       plans,
		logger:      logger,
	}
}

// MonthEvents merges the four event sources for the visible month into one
// normalized list. A failing source is logged and skipped so the agenda still
// renders what it can; it never fails the whole view.
func (svc *service) MonthEvents(ctx context.Context, tenantID, teacherID string, year int, month time.Month) ([]CalendarEvent, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	monthStartStr := monthStart.Format(dateLayout)
	monthEndStr := monthEnd.Format(dateLayout)

	events := make([]CalendarEvent, 0)

	// 1. institutional entries (tenant-scoped OR official)
	entries, err := svc.repo.QueryCalendarEntries(ctx, tenantID, monthStartStr, monthEndStr)
	if err != nil {
		svc.logger.Error("agenda: querying calendar entries", err)
	}
	for _, e := range entries {
		events = append(events, normalizeCalendarEntry(e))
	}

	// 2. assignment due dates, with a ±7-day buffer around the month so
	// near-boundary deliveries stay visible
	bufferStart := monthStart.AddDate(0, 0, -assignmentBufferDays)
	bufferEnd := monthEnd.AddDate(0, 0, assignmentBufferDays)
	assignments, err := svc.assignments.QueryByDueRange(ctx, tenantID, bufferStart, bufferEnd)
	if err != nil {
		svc.logger.Error("agenda: querying assignments", err)
	}
	for _, a := range assignments {
		events = append(events, normalizeAssignment(a))
	}

	// 3. personal teacher events
	teacherEvents, err := svc.repo.QueryTeacherEvents(ctx, teacherID, monthStart, monthEnd.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		svc.logger.Error("agenda: querying teacher events", err)
	}
	for _, te := range teacherEvents {
		events = append(events, normalizeTeacherEvent(te))
	}

	// 4. lesson-plan sessions, one event per session inside the month
	plans, err := svc.plans.QueryOverlapping(ctx, tenantID, monthStartStr, monthEndStr)
	if err != nil {
		svc.logger.Error("agenda: querying lesson plans", err)
	}
	for _, plan := range plans {
		events = append(events, explodePlan(plan, monthStartStr, monthEndStr)...)
	}

	return events, nil
}

// DailyEvents filters a month's events down to one day and orders the timed
// ones by start time; untimed events keep their fetch order.
func DailyEvents(events []CalendarEvent, date string) []CalendarEvent {
	daily := make([]CalendarEvent, 0)
	for _, ev := range events {
		if ev.Date == date {
			daily = append(daily, ev)
		}
	}
	sort.SliceStable(daily, func(i, j int) bool {
		if daily[i].StartTime == nil || daily[j].StartTime == nil {
			return false
		}
		return daily[i].StartTime.Before(*daily[j].StartTime)
	})
	return daily
}

// ImportICS parses an .ics payload and bulk-inserts one institutional entry
// per parsed event. Zero parsed events is "nothing to import", not an error.
func (svc *service) ImportICS(ctx context.Context, tenantID, icsText string, direction bool) (int, error) {
	parsed := ParseICS(icsText)
	if len(parsed) == 0 {
		return 0, nil
	}

	entryType := "generic"
	if direction {
		entryType = "direction"
	}

	entries := make([]CalendarEntry, 0, len(parsed))
	for _, ev := range parsed {
		entries = append(entries, CalendarEntry{
			TenantID:      tenantID,
			Title:         ev.Title,
			Description:   ev.Description,
			StartDate:     ev.StartDate,
			EndDate:       ev.EndDate,
			Type:          entryType,
			IsOfficialSEP: false,
		})
	}
	if err := svc.repo.CreateCalendarEntries(ctx, entries); err != nil {
		return 0, errors.Wrap(err, "inserting imported entries")
	}
	return len(entries), nil
}

func (svc *service) CreateSchoolEvent(ctx context.Context, tenantID string, ne NewSchoolEvent) (CalendarEntry, error) {
	entryType := "generic"
	if ne.Direction {
		entryType = "direction"
	}
	entry := CalendarEntry{
		TenantID:  tenantID,
		Title:     ne.Title,
		StartDate: ne.Date,
		EndDate:   ne.Date,
		Type:      entryType,
	}
	if err := svc.repo.CreateCalendarEntries(ctx, []CalendarEntry{entry}); err != nil {
		return CalendarEntry{}, errors.Wrap(err, "inserting school event")
	}
	return entry, nil
}

func (svc *service) CreatePersonalEvent(ctx context.Context, tenantID, teacherID string, ne NewPersonalEvent) (TeacherEvent, error) {
	start, err := time.Parse(dateLayout+" 15:04", ne.Date+" "+ne.Time)
	if err != nil {
		return TeacherEvent{}, core.NewValidationError(
			errors.New("invalid date or time"),
			core.FieldError{Field: "time", Error: "invalid date or time"},
		)
	}
	ev := TeacherEvent{
		TenantID:  tenantID,
		TeacherID: teacherID,
		Title:     ne.Title,
		StartTime: start,
		EndTime:   start,
	}
	return svc.repo.CreateTeacherEvent(ctx, ev)
}

// DeleteEvent removes a source record. The target table depends on the event
// type; institutional entries are scoped to the caller's tenant and personal
// events to the owning teacher, so a caller can never reach another tenant's
// or teacher's rows.
func (svc *service) DeleteEvent(ctx context.Context, tenantID, teacherID string, eventType EventType, id string) error {
	switch eventType {
	case TypeSEP, TypeDirection:
		return svc.repo.DeleteCalendarEntry(ctx, tenantID, id)
	case TypePersonal:
		return svc.repo.DeleteTeacherEvent(ctx, teacherID, id)
	default:
		// ASSIGNMENT and PLANNING events are projections of records owned
		// by their own modules
		return core.NewValidationError(ErrNotDeletable)
	}
}

// normalization

func normalizeCalendarEntry(e CalendarEntry) CalendarEvent {
	evType := TypeSEP
	if e.Type != "" && (e.Type == "direction" || e.Type == "DIRECTION") {
		evType = TypeDirection
	}
	return CalendarEvent{
		ID:    e.ID,
		Title: e.Title,
		Date:  e.StartDate,
		Type:  evType,
		Color: typeColors[evType],
	}
}

func normalizeAssignment(a assignment.Assignment) CalendarEvent {
	return CalendarEvent{
		ID:       a.ID,
		Title:    "Entrega: " + a.Title,
		Date:     a.DueDate.Format(dateLayout),
		Type:     TypeAssignment,
		Subtitle: fmt.Sprintf("%s (%d° %s)", a.SubjectName, a.GroupGrade, a.GroupSection),
		Color:    typeColors[TypeAssignment],
	}
}

func normalizeTeacherEvent(te TeacherEvent) CalendarEvent {
	start := te.StartTime
	return CalendarEvent{
		ID:          te.ID,
		Title:       te.Title,
		Date:        start.Format(dateLayout),
		Type:        TypePersonal,
		StartTime:   &start,
		DisplayTime: start.Format("3:04 PM"),
		Color:       typeColors[TypePersonal],
	}
}

// explodePlan synthesizes one PLANNING event per session whose date falls in
// the visible month; ids are "{planID}_{index}" so no extra table is needed.
func explodePlan(plan planning.LessonPlan, monthStart, monthEnd string) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(plan.Sessions))
	for i, session := range plan.Sessions {
		if session.Date < monthStart || session.Date > monthEnd {
			continue
		}
		title := plan.Title
		if title == "" {
			title = "Sesión de Clase"
		}
		events = append(events, CalendarEvent{
			ID:     fmt.Sprintf("%s_%d", plan.ID, i),
			PlanID: plan.ID,
			Title:  title,
			Date:   session.Date,
			Type:   TypePlanning,
			Color:  typeColors[TypePlanning],
			Details: &SessionDetails{
				Apertura:   session.Apertura,
				Desarrollo: session.Desarrollo,
				Cierre:     session.Cierre,
				PlanTitle:  plan.Title,
				Subject:    plan.SubjectName,
				Group:      fmt.Sprintf("%d° %s", plan.GroupGrade, plan.GroupSection),
			},
		})
	}
	return events
}
