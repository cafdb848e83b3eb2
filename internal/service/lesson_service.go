package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LessonService handles lesson business logic. Ownership follows the
// parent course.
type LessonService struct {
	lessonRepo    *repository.LessonRepository
	courseService *CourseService
}

// NewLessonService creates a new LessonService.
func NewLessonService(lessonRepo *repository.LessonRepository, courseService *CourseService) *LessonService {
	return &LessonService{lessonRepo: lessonRepo, courseService: courseService}
}

// Create adds a lesson to a course owned by the actor.
func (s *LessonService) Create(ctx context.Context, actor authz.Actor, courseID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, error) {
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(courseID)); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		OrderNum: req.OrderNum,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return lesson, nil
}

// Get retrieves one lesson.
func (s *LessonService) Get(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return s.getByID(ctx, id)
}

// ListByCourse retrieves the ordered lessons of a course.
func (s *LessonService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	lessons, err := s.lessonRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Update applies a partial update after the course-ownership check.
func (s *LessonService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdateLessonRequest) (*model.Lesson, error) {
	lesson, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(lesson.CourseID)); err != nil {
		return nil, err
	}

	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}
	if req.OrderNum != nil {
		lesson.OrderNum = *req.OrderNum
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	return lesson, nil
}

// Delete removes a lesson after the course-ownership check.
func (s *LessonService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	lesson, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(lesson.CourseID)); err != nil {
		return err
	}
	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

func (s *LessonService) getByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}
