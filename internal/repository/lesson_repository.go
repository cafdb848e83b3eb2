package repository

import (
	"context"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

const lessonColumns = `id, course_id, title, content, video_url, order_num, created_at, updated_at`

// Create inserts a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO lessons (course_id, title, content, video_url, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		l.CourseID, l.Title, l.Content, l.VideoURL, l.OrderNum,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID retrieves a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.VideoURL, &l.OrderNum, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListByCourse retrieves all lessons of a course, ordered by order_num.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons
		 WHERE course_id = $1
		 ORDER BY order_num`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.VideoURL,
			&l.OrderNum, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Update persists the mutable fields of a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lessons
		 SET title = $1, content = $2, video_url = $3, order_num = $4, updated_at = NOW()
		 WHERE id = $5`,
		l.Title, l.Content, l.VideoURL, l.OrderNum, l.ID)
	return err
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return err
}
