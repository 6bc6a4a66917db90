package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/adw/internal/adapters/sqlite"
	"github.com/example/adw/internal/core/workflow"
)

func TestIssueRepository_SequentialAllocation(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewIssueRepository(conn)
	ctx := context.Background()

	first, err := repo.Allocate(ctx, 0, "first issue", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if first.IssueNumber != 1 {
		t.Errorf("first allocation = %d, want 1", first.IssueNumber)
	}

	second, err := repo.Allocate(ctx, 0, "second issue", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if second.IssueNumber != 2 {
		t.Errorf("second allocation = %d, want 2", second.IssueNumber)
	}
}

func TestIssueRepository_SequentialNeverReusesReleased(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewIssueRepository(conn)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Allocate(ctx, 0, "issue", ""); err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
	}
	if err := repo.SoftDelete(ctx, 3); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	// The released number stays burned for sequential allocation even
	// though an explicit claim could take it.
	next, err := repo.Allocate(ctx, 0, "issue", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if next.IssueNumber != 4 {
		t.Errorf("allocation after release = %d, want 4", next.IssueNumber)
	}
}

func TestIssueRepository_ExplicitClaim(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewIssueRepository(conn)
	ctx := context.Background()

	claimed, err := repo.Allocate(ctx, 100, "pinned issue", "")
	if err != nil {
		t.Fatalf("Allocate(100) error = %v", err)
	}
	if claimed.IssueNumber != 100 {
		t.Errorf("claimed number = %d, want 100", claimed.IssueNumber)
	}

	if _, err := repo.Allocate(ctx, 100, "conflicting claim", ""); !errors.Is(err, workflow.ErrDuplicateIssueNumber) {
		t.Errorf("Allocate(taken) error = %v, want ErrDuplicateIssueNumber", err)
	}

	// Releasing the claim frees the number for a new explicit claim.
	if err := repo.SoftDelete(ctx, 100); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if _, err := repo.Allocate(ctx, 100, "second claim", ""); err != nil {
		t.Errorf("Allocate(released) error = %v", err)
	}
}

func TestIssueRepository_GetByNumber(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewIssueRepository(conn)
	ctx := context.Background()

	if _, err := repo.Allocate(ctx, 7, "lookup target", ""); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	got, err := repo.GetByNumber(ctx, 7)
	if err != nil {
		t.Fatalf("GetByNumber() error = %v", err)
	}
	if got.IssueTitle != "lookup target" {
		t.Errorf("IssueTitle = %q, want %q", got.IssueTitle, "lookup target")
	}

	if _, err := repo.GetByNumber(ctx, 999); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("GetByNumber(missing) error = %v, want ErrNotFound", err)
	}
}
