package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignmentsByDueRange returns a tenant's assignments whose due
		// date falls within [from, to], subject & group display fields joined.
		QueryAssignmentsByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, tenantID string, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		QueryByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]Assignment, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, tenantID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	a := Assignment{
		TenantID:    tenantID,
		GroupID:     na.GroupID,
		SubjectID:   na.SubjectID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) QueryByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByDueRange(ctx, tenantID, from, to)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}
