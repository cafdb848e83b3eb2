package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents a single quiz question.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	QuizID        uuid.UUID       `json:"quiz_id"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectOption string          `json:"correct_option"`
	OrderNum      int             `json:"order_num"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent strips the correct option from a question.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		OrderNum:     q.OrderNum,
	}
}

// AddQuestionRequest is the payload for adding a question to a quiz.
type AddQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"required"`
	CorrectOption string          `json:"correct_option" binding:"required,max=10"`
	OrderNum      int             `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
