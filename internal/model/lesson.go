package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson represents a single lesson inside a course.
type Lesson struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	VideoURL  string    `json:"video_url,omitempty"`
	OrderNum  int       `json:"order_num"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLessonRequest is the payload for adding a lesson to a course.
type CreateLessonRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Content  string `json:"content" binding:"max=50000"`
	VideoURL string `json:"video_url" binding:"omitempty,url,max=500"`
	OrderNum int    `json:"order_num" binding:"min=0"`
}

// UpdateLessonRequest is the payload for updating an existing lesson.
type UpdateLessonRequest struct {
	Title    string  `json:"title" binding:"omitempty,min=3,max=255"`
	Content  *string `json:"content" binding:"omitempty,max=50000"`
	VideoURL *string `json:"video_url" binding:"omitempty,max=500"`
	OrderNum *int    `json:"order_num" binding:"omitempty,min=0"`
}
