package handler

import (
	"net/http"
	"strconv"

	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrollmentHandler handles enrollment and lesson progress endpoints.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// Enroll godoc
// POST /api/v1/courses/:course_id/enroll
// Enrolls the caller in a published course. Paid courses need a
// completed payment first.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// ListOwnEnrollments godoc
// GET /api/v1/enrollments
func (h *EnrollmentHandler) ListOwnEnrollments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	enrollments, err := h.enrollmentService.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollments": enrollments})
}

// ListCourseEnrollments godoc
// GET /api/v1/instructor/courses/:course_id/enrollments
// A course's enrollments, for its owning instructor or an admin.
func (h *EnrollmentHandler) ListCourseEnrollments(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	enrollments, pagination, err := h.enrollmentService.ListForCourse(c.Request.Context(), middleware.GetActor(c), courseID, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"enrollments": enrollments}, pagination)
}

// CompleteLesson godoc
// POST /api/v1/lessons/:lesson_id/complete
// Marks a lesson done and returns the refreshed enrollment progress.
// Completing the same lesson twice is a no-op.
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enrollment, err := h.enrollmentService.CompleteLesson(c.Request.Context(), claims.UserID, lessonID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": enrollment})
}
