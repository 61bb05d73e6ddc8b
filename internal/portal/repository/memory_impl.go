package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"caseportal/internal/portal/model"

	"github.com/google/uuid"
)

// MemoryCaseRepository keeps cases in process. It gives the same
// compare-and-set guarantee as the mongo repository and backs local runs and tests.
type MemoryCaseRepository struct {
	mu    sync.RWMutex
	cases map[string]model.Case
}

func NewMemoryCaseRepository() *MemoryCaseRepository {
	return &MemoryCaseRepository{cases: make(map[string]model.Case)}
}

func (r *MemoryCaseRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryCaseRepository) CreateCase(_ context.Context, c *model.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; ok {
		return ErrDuplicate
	}
	c.Version = 1
	r.cases[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCaseRepository) LoadCase(_ context.Context, id string) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (r *MemoryCaseRepository) SaveCase(_ context.Context, c *model.Case, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: case %s is no longer at version %d", ErrVersionConflict, c.ID, expectedVersion)
	}
	next := c.Clone()
	next.Version = expectedVersion + 1
	r.cases[c.ID] = next
	c.Version = next.Version
	return nil
}

func (r *MemoryCaseRepository) ListCases(_ context.Context, filter model.CaseFilter) ([]*model.Case, int64, error) {
	r.mu.RLock()
	matched := make([]*model.Case, 0)
	for _, c := range r.cases {
		c := c.Clone()
		if matchCase(&c, filter) {
			matched = append(matched, &c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.Size), total, nil
}

func matchCase(c *model.Case, f model.CaseFilter) bool {
	switch {
	case f.Kind != "" && c.Kind != f.Kind:
		return false
	case f.Status != "" && c.Status != f.Status:
		return false
	case f.OwnerID != "" && c.OwnerID != f.OwnerID:
		return false
	case f.AssigneeID != "" && c.AssigneeID != f.AssigneeID:
		return false
	}
	return f.Visibility.Allows(c)
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return items
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type MemoryAuditRepository struct {
	mu      sync.RWMutex
	records []model.CaseAudit
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) EnsureAuditIndexes(context.Context) error { return nil }

func (r *MemoryAuditRepository) CreateAudit(_ context.Context, audit *model.CaseAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *audit)
	return nil
}

func (r *MemoryAuditRepository) FindAudit(_ context.Context, req model.GetCaseAuditReq) ([]*model.CaseAudit, int64, error) {
	r.mu.RLock()
	matched := make([]*model.CaseAudit, 0)
	for i := len(r.records) - 1; i >= 0; i-- {
		a := r.records[i]
		if a.CaseID != req.CaseID {
			continue
		}
		if req.StartTime != nil && a.CreatedAt.Before(*req.StartTime) {
			continue
		}
		if req.EndTime != nil && a.CreatedAt.After(*req.EndTime) {
			continue
		}
		matched = append(matched, &a)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return paginate(matched, req.Page, req.Size), total, nil
}
