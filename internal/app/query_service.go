package app

import (
	"context"

	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
)

// QueryServiceImpl implements primary.QueryService: read-only projections
// computed from the state store at query time, never cached. A storage
// failure surfaces as an error; the views never return stale data.
type QueryServiceImpl struct {
	repo secondary.WorkflowRepository
}

// NewQueryService creates a QueryService over the given repository.
func NewQueryService(repo secondary.WorkflowRepository) *QueryServiceImpl {
	return &QueryServiceImpl{repo: repo}
}

// Active returns all workflows that are not soft-deleted.
func (s *QueryServiceImpl) Active(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return s.repo.ListActive(ctx)
}

// Completed returns completed, non-deleted workflows.
func (s *QueryServiceImpl) Completed(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return s.repo.ListCompleted(ctx)
}

// Stuck returns flagged, non-deleted workflows.
func (s *QueryServiceImpl) Stuck(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return s.repo.ListStuck(ctx)
}

// Recent returns workflows updated within the last 24 hours, newest first.
func (s *QueryServiceImpl) Recent(ctx context.Context) ([]*secondary.WorkflowRecord, error) {
	return s.repo.ListRecent(ctx)
}

// Ensure QueryServiceImpl implements the interface.
var _ primary.QueryService = (*QueryServiceImpl)(nil)
