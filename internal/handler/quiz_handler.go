package handler

import (
	"net/http"

	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuizHandler handles quiz management, taking, and results.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// ─── Instructor quiz management ─────────────────────────────────────────────

// CreateQuiz godoc
// POST /api/v1/instructor/courses/:course_id/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), middleware.GetActor(c), courseID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PUT /api/v1/instructor/quizzes/:quiz_id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), middleware.GetActor(c), quizID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// DeleteQuiz godoc
// DELETE /api/v1/instructor/quizzes/:quiz_id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), middleware.GetActor(c), quizID); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "quiz deleted"})
}

// AddQuestion godoc
// POST /api/v1/instructor/quizzes/:quiz_id/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), middleware.GetActor(c), quizID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/instructor/quizzes/:quiz_id/questions
// Atomically swaps the entire question set.
func (h *QuizHandler) ReplaceQuestions(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.quizService.ReplaceQuestions(c.Request.Context(), middleware.GetActor(c), quizID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ─── Student quiz taking ────────────────────────────────────────────────────

// GetQuiz godoc
// GET /api/v1/quizzes/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// GetQuizQuestions godoc
// GET /api/v1/quizzes/:quiz_id/questions
// The question set with the answer key stripped.
func (h *QuizHandler) GetQuizQuestions(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.quizService.QuestionsForStudent(c.Request.Context(), quizID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SubmitQuiz godoc
// POST /api/v1/quizzes/:quiz_id/submit
// Grades the answers. Exactly one attempt per student per quiz.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.quizService.Submit(c.Request.Context(), claims.UserID, quizID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// GetQuizResult godoc
// GET /api/v1/quizzes/:quiz_id/result
func (h *QuizHandler) GetQuizResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.quizService.GetResult(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetQuizStatus godoc
// GET /api/v1/quizzes/:quiz_id/status
func (h *QuizHandler) GetQuizStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	status, err := h.quizService.CheckStatus(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": status})
}
