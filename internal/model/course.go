package model

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a course owned by one instructor.
type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	InstructorID int       `json:"instructor_id"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a new course.
type CreateCourseRequest struct {
	Title       string  `json:"title" binding:"required,min=3,max=255"`
	Description string  `json:"description" binding:"max=5000"`
	Category    string  `json:"category" binding:"required,min=2,max=100"`
	Price       float64 `json:"price" binding:"min=0"`
}

// UpdateCourseRequest is the payload for updating an existing course.
type UpdateCourseRequest struct {
	Title       string   `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=5000"`
	Category    string   `json:"category" binding:"omitempty,min=2,max=100"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Published   *bool    `json:"published" binding:"omitempty"`
}
