package planning

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("lesson plan not found")

type (
	Repository interface {
		CreatePlan(ctx context.Context, plan LessonPlan) (LessonPlan, error)
		GetPlanByID(ctx context.Context, id string) (LessonPlan, error)
		// QueryPlansOverlapping returns a tenant's plans whose [start_date, end_date]
		// overlaps [from, to] (dates compared as YYYY-MM-DD strings).
		QueryPlansOverlapping(ctx context.Context, tenantID, from, to string) ([]LessonPlan, error)
		DeletePlansByID(ctx context.Context, ids ...string) error
	}

	// Generator produces substitute activities from a structured prompt.
	// One attempt only; a failure surfaces to the caller as-is.
	Generator interface {
		GenerateActivities(ctx context.Context, req SubstituteRequest) ([]GeneratedActivity, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, tenantID, teacherID string, np NewLessonPlan) (LessonPlan, error)
		GetByID(ctx context.Context, id string) (LessonPlan, error)
		QueryOverlapping(ctx context.Context, tenantID, from, to string) ([]LessonPlan, error)
		Delete(ctx context.Context, ids ...string) error
		GenerateSubstitutes(ctx context.Context, req SubstituteRequest) ([]GeneratedActivity, error)
	}

	service struct {
		repo Repository
		gen  Generator
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, gen Generator) *service {
	return &service{repo: repo, gen: gen}
}

func (svc *service) Create(ctx context.Context, tenantID, teacherID string, np NewLessonPlan) (LessonPlan, error) {
	now := time.Now().UTC()
	plan := LessonPlan{
		TenantID:    tenantID,
		TeacherID:   teacherID,
		GroupID:     np.GroupID,
		SubjectID:   np.SubjectID,
		Title:       np.Title,
		StartDate:   np.StartDate,
		EndDate:     np.EndDate,
		Temporality: np.Temporality,
		Sessions:    np.Sessions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreatePlan(ctx, plan)
}

func (svc *service) GetByID(ctx context.Context, id string) (LessonPlan, error) {
	return svc.repo.GetPlanByID(ctx, id)
}

func (svc *service) QueryOverlapping(ctx context.Context, tenantID, from, to string) ([]LessonPlan, error) {
	return svc.repo.QueryPlansOverlapping(ctx, tenantID, from, to)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeletePlansByID(ctx, ids...)
}

func (svc *service) GenerateSubstitutes(ctx context.Context, req SubstituteRequest) ([]GeneratedActivity, error) {
	activities, err := svc.gen.GenerateActivities(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "generating substitute activities")
	}
	return activities, nil
}
