package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/courseloom/courseloom-backend/internal/model"
)

func TestRequireOwner(t *testing.T) {
	owner := Actor{ID: 7, Role: model.RoleInstructor}
	if err := Require(owner, 7); err != nil {
		t.Fatalf("owner should pass, got %v", err)
	}
}

func TestRequireOtherInstructorForbidden(t *testing.T) {
	other := Actor{ID: 8, Role: model.RoleInstructor}
	if err := Require(other, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner should get ErrForbidden, got %v", err)
	}
}

func TestRequireAdminBypass(t *testing.T) {
	admin := Actor{ID: 99, Role: model.RoleAdmin}
	if err := Require(admin, 7); err != nil {
		t.Fatalf("admin should bypass ownership, got %v", err)
	}
}

func TestRequireFnSkipsLookupForAdmin(t *testing.T) {
	admin := Actor{ID: 99, Role: model.RoleAdmin}
	lookupCalled := false

	err := RequireFn(context.Background(), admin, func(ctx context.Context) (int, error) {
		lookupCalled = true
		return 0, errors.New("lookup should not run")
	})
	if err != nil {
		t.Fatalf("admin RequireFn failed: %v", err)
	}
	if lookupCalled {
		t.Fatalf("lookup ran for admin actor")
	}
}

func TestRequireFnPropagatesLookupError(t *testing.T) {
	actor := Actor{ID: 5, Role: model.RoleInstructor}
	wantErr := errors.New("course not found")

	err := RequireFn(context.Background(), actor, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestRequireFnChecksResolvedOwner(t *testing.T) {
	lookup := func(ctx context.Context) (int, error) { return 42, nil }

	owner := Actor{ID: 42, Role: model.RoleInstructor}
	if err := RequireFn(context.Background(), owner, lookup); err != nil {
		t.Fatalf("resolved owner should pass, got %v", err)
	}

	stranger := Actor{ID: 43, Role: model.RoleInstructor}
	if err := RequireFn(context.Background(), stranger, lookup); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger should get ErrForbidden, got %v", err)
	}
}
