package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizAttempt is a student's submitted answer set for one quiz. At most
// one attempt exists per (student, quiz) pair; the first submission is
// final and later submissions are rejected.
type QuizAttempt struct {
	ID        uuid.UUID         `json:"id"`
	QuizID    uuid.UUID         `json:"quiz_id"`
	StudentID int               `json:"student_id"`
	Answers   map[string]string `json:"answers"` // question ID → chosen option
	Score     int               `json:"score"`   // raw correct-answer count
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
}

// DurationSeconds derives how long the attempt took.
func (a QuizAttempt) DurationSeconds() int {
	return int(a.EndedAt.Sub(a.StartedAt).Seconds())
}

// SubmitQuizRequest is the payload for submitting quiz answers.
type SubmitQuizRequest struct {
	Answers   map[string]string `json:"answers" binding:"required"`
	StartedAt time.Time         `json:"started_at" binding:"required"`
	EndedAt   time.Time         `json:"ended_at" binding:"required,gtfield=StartedAt"`
}

// AttemptStatus enumerates the states reported by the status endpoint.
type AttemptStatus string

const (
	AttemptStatusNotAttempted AttemptStatus = "not_attempted"
	AttemptStatusSubmitted    AttemptStatus = "submitted"
)

// QuizStatusResponse is returned by the pure-read status endpoint.
type QuizStatusResponse struct {
	Status AttemptStatus `json:"status"`
	Score  *int          `json:"score,omitempty"`
}

// QuizResult is the graded breakdown of a stored attempt. Correct and
// wrong always sum to TotalQuestions; unanswered questions count wrong.
type QuizResult struct {
	QuizID          uuid.UUID `json:"quiz_id"`
	StudentID       int       `json:"student_id"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectAnswers  int       `json:"correct_answers"`
	WrongAnswers    int       `json:"wrong_answers"`
	Score           int       `json:"score"`
	Percentage      float64   `json:"percentage"`
	PassingScore    int       `json:"passing_score"`
	Passed          bool      `json:"passed"`
	DurationSeconds int       `json:"duration_seconds"`
}
