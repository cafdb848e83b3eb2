package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a student to a course with progress state.
// One enrollment exists per (student, course) pair.
type Enrollment struct {
	ID         int        `json:"id"`
	StudentID  int        `json:"student_id"`
	CourseID   uuid.UUID  `json:"course_id"`
	Progress   float64    `json:"progress"` // 0–100
	Completed  bool       `json:"completed"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LessonCompletion marks one lesson done for one student. The pair is
// unique; re-completing a lesson is a no-op.
type LessonCompletion struct {
	StudentID   int       `json:"student_id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
}
