package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CourseStore is the data access needed by CourseService.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context, page, perPage int, category string) ([]model.Course, int64, error)
	ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error)
}

// CourseService handles course business logic. All mutations run the
// ownership policy: only the owning instructor or an admin may change a
// course.
type CourseService struct {
	courses CourseStore
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses CourseStore) *CourseService {
	return &CourseService{courses: courses}
}

// Create registers a new unpublished course owned by the actor.
func (s *CourseService) Create(ctx context.Context, actor authz.Actor, req *model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		InstructorID: actor.ID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Get retrieves one course. Unpublished courses are visible only to
// their owner and admins.
func (s *CourseService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Course, error) {
	course, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		if err := authz.Require(actor, course.InstructorID); err != nil {
			// Hide the existence of unpublished courses.
			return nil, ErrNotFound
		}
	}
	return course, nil
}

// Update applies a partial update after the ownership check.
func (s *CourseService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(actor, course.InstructorID); err != nil {
		return nil, err
	}

	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != "" {
		course.Category = req.Category
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return course, nil
}

// Delete removes a course after the ownership check.
func (s *CourseService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	course, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Require(actor, course.InstructorID); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListPublished returns the public catalog with pagination.
func (s *CourseService) ListPublished(ctx context.Context, page, perPage int, category string) ([]model.Course, *response.Pagination, error) {
	courses, total, err := s.courses.ListPublished(ctx, page, perPage, category)
	if err != nil {
		return nil, nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, buildPagination(page, perPage, total), nil
}

// ListByInstructor returns every course owned by one instructor,
// published or not.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error) {
	courses, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// OwnerOf resolves a course's owning instructor, for the RequireFn
// form of the ownership policy used by nested resources.
func (s *CourseService) OwnerOf(id uuid.UUID) authz.OwnerLookup {
	return func(ctx context.Context) (int, error) {
		course, err := s.getByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return course.InstructorID, nil
	}
}

func (s *CourseService) getByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// buildPagination derives pagination metadata from a total row count.
func buildPagination(page, perPage int, total int64) *response.Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}
}
