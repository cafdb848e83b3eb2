package repository

import (
	"context"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository handles course data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

const courseColumns = `id, title, description, category, price, instructor_id, published, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Price,
		&c.InstructorID, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, description, category, price, instructor_id, published)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.Description, c.Category, c.Price, c.InstructorID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a course by ID.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// Update persists the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE courses
		 SET title = $1, description = $2, category = $3, price = $4, published = $5, updated_at = NOW()
		 WHERE id = $6`,
		c.Title, c.Description, c.Category, c.Price, c.Published, c.ID)
	return err
}

// Delete removes a course and cascades to its lessons and quizzes.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return err
}

// ListPublished retrieves published courses with pagination and an
// optional category filter.
func (r *CourseRepository) ListPublished(ctx context.Context, page, perPage int, category string) ([]model.Course, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM courses WHERE published = TRUE`
	args := []any{}

	if category != "" {
		args = append(args, category)
		baseQuery += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + courseColumns + baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Price,
			&c.InstructorID, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

// ListByInstructor retrieves all courses owned by one instructor.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID int) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses
		 WHERE instructor_id = $1
		 ORDER BY created_at DESC`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Price,
			&c.InstructorID, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
