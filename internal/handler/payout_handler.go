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

// PayoutHandler handles instructor payout requests and admin payout
// administration.
type PayoutHandler struct {
	payoutService *service.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutService *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// RequestPayout godoc
// POST /api/v1/instructor/payouts
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RequestPayoutRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payout, err := h.payoutService.Request(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payout": payout})
}

// GetBalance godoc
// GET /api/v1/instructor/payouts/balance
// The caller's withdrawable earnings.
func (h *PayoutHandler) GetBalance(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	balance, err := h.payoutService.Balance(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"balance": balance})
}

// ListOwnPayouts godoc
// GET /api/v1/instructor/payouts
func (h *PayoutHandler) ListOwnPayouts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	payouts, err := h.payoutService.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payouts": payouts})
}

// ─── Admin ──────────────────────────────────────────────────────────────────

// ListAllPayouts godoc
// GET /api/v1/admin/payouts
// Every payout, optionally filtered by ?status=.
func (h *PayoutHandler) ListAllPayouts(c *gin.Context) {
	payouts, err := h.payoutService.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payouts": payouts})
}

// UpdatePayoutStatus godoc
// PUT /api/v1/admin/payouts/:payout_id/status
func (h *PayoutHandler) UpdatePayoutStatus(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("payout_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdatePayoutStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payout, err := h.payoutService.UpdateStatus(c.Request.Context(), payoutID, model.PayoutStatus(req.Status))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payout": payout})
}

// ExportPayoutsCSV godoc
// GET /api/v1/admin/payouts/export
// Payouts as comma-separated text, optionally filtered by ?status=.
func (h *PayoutHandler) ExportPayoutsCSV(c *gin.Context) {
	csv, err := h.payoutService.ExportCSV(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="payouts.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}
