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

// LessonHandler handles instructor lesson management.
type LessonHandler struct {
	lessonService *service.LessonService
}

// NewLessonHandler creates a new LessonHandler.
func NewLessonHandler(lessonService *service.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

// CreateLesson godoc
// POST /api/v1/instructor/courses/:course_id/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.Create(c.Request.Context(), middleware.GetActor(c), courseID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"lesson": lesson})
}

// GetLesson godoc
// GET /api/v1/lessons/:lesson_id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lesson, err := h.lessonService.Get(c.Request.Context(), lessonID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// UpdateLesson godoc
// PUT /api/v1/instructor/lessons/:lesson_id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.Update(c.Request.Context(), middleware.GetActor(c), lessonID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// DeleteLesson godoc
// DELETE /api/v1/instructor/lessons/:lesson_id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), middleware.GetActor(c), lessonID); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "lesson deleted"})
}
