package handler

import (
	"errors"
	"net/http"

	"github.com/courseloom/courseloom-backend/internal/authz"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// failFromError maps service-layer sentinel errors to HTTP responses.
// Unrecognized errors become a 500 with no detail leaked.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, authz.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrNotResourceOwner)
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyEnrolled)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, service.ErrPaymentRequired):
		response.Fail(c, http.StatusPaymentRequired, response.ErrPaymentRequired)
	case errors.Is(err, service.ErrPaymentNotPending):
		response.Fail(c, http.StatusConflict, response.ErrInvalidStatus)
	case errors.Is(err, service.ErrInsufficientBalance):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrPayoutExceeds)
	case errors.Is(err, service.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidStatus)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Fail(c, http.StatusUnauthorized, response.ErrRefreshInvalid)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
