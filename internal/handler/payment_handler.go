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

// PaymentHandler handles course purchase endpoints.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePayment godoc
// POST /api/v1/payments
// Opens a pending payment for a published course.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreatePaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": payment})
}

// CompletePayment godoc
// POST /api/v1/payments/:payment_id/complete
// Settles a pending payment and enrolls the student. Stands in for the
// callback a real gateway would make.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("payment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payment, err := h.paymentService.Complete(c.Request.Context(), middleware.GetActor(c), paymentID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": payment})
}

// ListOwnPayments godoc
// GET /api/v1/payments
func (h *PaymentHandler) ListOwnPayments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	payments, err := h.paymentService.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}
