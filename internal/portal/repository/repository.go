package repository

import (
	"context"
	"errors"

	"caseportal/internal/portal/model"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
)

type CaseRepository interface {
	// Insert a new case; sets Version to 1
	CreateCase(ctx context.Context, c *model.Case) error
	// Load one case by id
	LoadCase(ctx context.Context, id string) (*model.Case, error)
	// Replace the case only if its stored version still equals expectedVersion.
	// On success c.Version is bumped.
	SaveCase(ctx context.Context, c *model.Case, expectedVersion int64) error
	// Find cases with filter, newest first, with total count
	ListCases(ctx context.Context, filter model.CaseFilter) ([]*model.Case, int64, error)
	// Initialize Indexes
	EnsureIndexes(ctx context.Context) error
}

// AuditRepository is the append-only audit log of action attempts.
type AuditRepository interface {
	CreateAudit(ctx context.Context, audit *model.CaseAudit) error
	FindAudit(ctx context.Context, req model.GetCaseAuditReq) ([]*model.CaseAudit, int64, error)
	EnsureAuditIndexes(ctx context.Context) error
}
