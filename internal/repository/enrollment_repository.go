package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressCounts holds the raw numbers the progress percentage is
// computed from: completed items over total items of a course.
type ProgressCounts struct {
	TotalLessons     int
	TotalQuizzes     int
	CompletedLessons int
	SubmittedQuizzes int
}

// EnrollmentRepository handles enrollment and lesson-completion data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

const enrollmentColumns = `id, student_id, course_id, progress, completed, enrolled_at, updated_at`

// Create inserts a new enrollment. Returns false without error when the
// (student, course) pair already exists.
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO enrollments (student_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (student_id, course_id) DO NOTHING`,
		e.StudentID, e.CourseID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// GetByStudentAndCourse retrieves one enrollment.
func (r *EnrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID int, courseID uuid.UUID) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE student_id = $1 AND course_id = $2`, studentID, courseID,
	).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Progress, &e.Completed, &e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByStudent retrieves all enrollments of one student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Enrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE student_id = $1
		 ORDER BY enrolled_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Progress, &e.Completed, &e.EnrolledAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// ListByCourse retrieves enrollments of one course with pagination.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, page, perPage int) ([]model.Enrollment, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE course_id = $1
		 ORDER BY enrolled_at DESC
		 LIMIT $2 OFFSET $3`, courseID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Progress, &e.Completed, &e.EnrolledAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, total, rows.Err()
}

// UpdateProgress persists a recomputed progress percentage and flag.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, studentID int, courseID uuid.UUID, progress float64, completed bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE enrollments
		 SET progress = $1, completed = $2, updated_at = NOW()
		 WHERE student_id = $3 AND course_id = $4`,
		progress, completed, studentID, courseID)
	return err
}

// CompleteLesson marks a lesson done for a student. Re-completing is a
// no-op; returns false when the row already existed.
func (r *EnrollmentRepository) CompleteLesson(ctx context.Context, studentID int, lessonID uuid.UUID) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO lesson_completions (student_id, lesson_id)
		 VALUES ($1, $2)
		 ON CONFLICT (student_id, lesson_id) DO NOTHING`,
		studentID, lessonID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// CountProgress fetches the completed/total item counts for one
// (student, course) pair in a single round-trip.
func (r *EnrollmentRepository) CountProgress(ctx context.Context, studentID int, courseID uuid.UUID) (ProgressCounts, error) {
	var pc ProgressCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM lessons WHERE course_id = $2),
			(SELECT COUNT(*) FROM quizzes WHERE course_id = $2),
			(SELECT COUNT(*) FROM lesson_completions lc
			   JOIN lessons l ON lc.lesson_id = l.id
			  WHERE lc.student_id = $1 AND l.course_id = $2),
			(SELECT COUNT(*) FROM quiz_attempts qa
			   JOIN quizzes q ON qa.quiz_id = q.id
			  WHERE qa.student_id = $1 AND q.course_id = $2)`,
		studentID, courseID,
	).Scan(&pc.TotalLessons, &pc.TotalQuizzes, &pc.CompletedLessons, &pc.SubmittedQuizzes)
	return pc, err
}
