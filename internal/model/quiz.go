package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz represents a quiz belonging to one course. PassingScore is a raw
// correct-answer count, the same unit as QuizAttempt.Score.
type Quiz struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	PassingScore    int       `json:"passing_score"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateQuizRequest is the payload for adding a quiz to a course.
type CreateQuizRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	PassingScore    int    `json:"passing_score" binding:"min=0"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateQuizRequest is the payload for updating an existing quiz.
type UpdateQuizRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	PassingScore    *int   `json:"passing_score" binding:"omitempty,min=0"`
	DurationMinutes *int   `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}
