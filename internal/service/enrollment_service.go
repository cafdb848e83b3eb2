package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EnrollmentStore is the data access needed by EnrollmentService.
type EnrollmentStore interface {
	Create(ctx context.Context, e *model.Enrollment) (bool, error)
	GetByStudentAndCourse(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, page, perPage int) ([]model.Enrollment, int64, error)
	UpdateProgress(ctx context.Context, studentID int, courseID uuid.UUID, progress float64, completed bool) error
	CompleteLesson(ctx context.Context, studentID int, lessonID uuid.UUID) (bool, error)
	CountProgress(ctx context.Context, studentID int, courseID uuid.UUID) (repository.ProgressCounts, error)
}

// LessonGetter resolves a lesson, for mapping a completion back to its course.
type LessonGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error)
}

// PaymentChecker reports whether a student has paid for a course.
type PaymentChecker interface {
	HasCompletedPayment(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error)
}

// Notifier dispatches a notification to one account. Delivery is
// best-effort and must not fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, accountID int, t model.NotificationType, title, body string)
}

// EnrollmentService handles enrollment and progress business logic.
type EnrollmentService struct {
	enrollments   EnrollmentStore
	lessons       LessonGetter
	payments      PaymentChecker
	courseService *CourseService
	notifier      Notifier
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(
	enrollments EnrollmentStore,
	lessons LessonGetter,
	payments PaymentChecker,
	courseService *CourseService,
	notifier Notifier,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments:   enrollments,
		lessons:       lessons,
		payments:      payments,
		courseService: courseService,
		notifier:      notifier,
	}
}

// Enroll creates the (student, course) enrollment. The course must be
// published; paid courses require a completed payment first; enrolling
// twice is rejected.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error) {
	course, err := s.courseService.getByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, ErrNotFound
	}

	if course.Price > 0 {
		paid, err := s.payments.HasCompletedPayment(ctx, studentID, courseID)
		if err != nil {
			return nil, fmt.Errorf("check payment: %w", err)
		}
		if !paid {
			return nil, ErrPaymentRequired
		}
	}

	created, err := s.enrollments.Create(ctx, &model.Enrollment{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	if !created {
		return nil, ErrAlreadyEnrolled
	}

	s.notifier.Notify(ctx, studentID, model.NotificationEnrollment,
		"Enrolled in course", fmt.Sprintf("You are now enrolled in %q.", course.Title))

	return s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
}

// ListOwn retrieves the caller's enrollments.
func (s *EnrollmentService) ListOwn(ctx context.Context, studentID int) ([]model.Enrollment, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListForCourse retrieves a course's enrollments for its owning
// instructor (or an admin).
func (s *EnrollmentService) ListForCourse(ctx context.Context, actor authz.Actor, courseID uuid.UUID, page, perPage int) ([]model.Enrollment, *response.Pagination, error) {
	if err := authz.RequireFn(ctx, actor, s.courseService.OwnerOf(courseID)); err != nil {
		return nil, nil, err
	}

	enrollments, total, err := s.enrollments.ListByCourse(ctx, courseID, page, perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, buildPagination(page, perPage, total), nil
}

// CompleteLesson marks a lesson done for the student and recomputes the
// enrollment progress. Completing the same lesson again is a no-op.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, studentID int, lessonID uuid.UUID) (*model.Enrollment, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, lesson.CourseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	if _, err := s.enrollments.CompleteLesson(ctx, studentID, lessonID); err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}

	return s.Recompute(ctx, studentID, lesson.CourseID)
}

// IsEnrolled reports whether the (student, course) enrollment exists.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get enrollment: %w", err)
	}
	return true, nil
}

// Recompute refreshes an enrollment's progress percentage from the
// completed/total item counts and flips the completed flag at 100%.
// Callers guarantee the enrollment exists.
func (s *EnrollmentService) Recompute(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error) {
	counts, err := s.enrollments.CountProgress(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("count progress: %w", err)
	}

	progress := progressPercent(counts)
	completed := progress >= 100

	if err := s.enrollments.UpdateProgress(ctx, studentID, courseID, progress, completed); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return enrollment, nil
}

// progressPercent computes completed items over total items as a 0–100
// percentage. A course with no lessons or quizzes counts as 0.
func progressPercent(pc repository.ProgressCounts) float64 {
	total := pc.TotalLessons + pc.TotalQuizzes
	if total == 0 {
		return 0
	}
	done := pc.CompletedLessons + pc.SubmittedQuizzes
	return float64(done) / float64(total) * 100
}
