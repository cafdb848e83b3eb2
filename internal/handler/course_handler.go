package handler

import (
	"net/http"
	"strconv"

	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CourseHandler handles the course catalog and instructor course management.
type CourseHandler struct {
	courseService *service.CourseService
	lessonService *service.LessonService
	quizService   *service.QuizService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService, lessonService *service.LessonService, quizService *service.QuizService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		lessonService: lessonService,
		quizService:   quizService,
	}
}

// ListCourses godoc
// GET /api/v1/courses
// Public catalog of published courses, optionally filtered by category.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	category := c.Query("category")

	courses, pagination, err := h.courseService.ListPublished(c.Request.Context(), page, perPage, category)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"courses": courses}, pagination)
}

// GetCourse godoc
// GET /api/v1/courses/:course_id
// One course. Unpublished courses resolve only for their owner or an admin.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), middleware.GetActor(c), courseID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// ListCourseLessons godoc
// GET /api/v1/courses/:course_id/lessons
// The ordered lessons of a course.
func (h *CourseHandler) ListCourseLessons(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	lessons, err := h.lessonService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lessons": lessons})
}

// ListCourseQuizzes godoc
// GET /api/v1/courses/:course_id/quizzes
// The quizzes of a course.
func (h *CourseHandler) ListCourseQuizzes(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quizzes, err := h.quizService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// CreateCourse godoc
// POST /api/v1/instructor/courses
// Creates an unpublished course owned by the caller.
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// ListOwnCourses godoc
// GET /api/v1/instructor/courses
// Every course owned by the caller, published or not.
func (h *CourseHandler) ListOwnCourses(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courses, err := h.courseService.ListByInstructor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// UpdateCourse godoc
// PUT /api/v1/instructor/courses/:course_id
// Partial update of an owned course, including publishing it.
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), middleware.GetActor(c), courseID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// DeleteCourse godoc
// DELETE /api/v1/instructor/courses/:course_id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), middleware.GetActor(c), courseID); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "course deleted"})
}
