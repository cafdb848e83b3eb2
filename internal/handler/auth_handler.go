package handler

import (
	"net/http"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// refreshCookieName is the HTTP-only cookie carrying the rotating
// refresh token. The token never appears in a JSON body.
const refreshCookieName = "refresh_token"

// AuthHandler handles registration, login, token refresh, and the
// caller's own profile.
type AuthHandler struct {
	cfg            *config.Config
	authService    *service.AuthService
	accountService *service.AccountService
	log            zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, authService *service.AuthService, accountService *service.AccountService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:            cfg,
		authService:    authService,
		accountService: accountService,
		log:            log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a student or instructor account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("hash password")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	account := &model.Account{
		Email:        req.Email,
		Name:         req.Name,
		Role:         model.Role(req.Role),
		PasswordHash: hash,
	}

	if err := h.accountService.Register(c.Request.Context(), account); err != nil {
		if err == service.ErrEmailTaken {
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
			return
		}
		h.log.Error().Err(err).Msg("register account")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"account": account})
}

// Login godoc
// POST /api/v1/auth/login
// Verifies credentials, returns an access token, and sets the refresh cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.accountService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(account.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	h.issueSession(c, account)
}

// Refresh godoc
// POST /api/v1/auth/refresh
// Rotates the refresh token from the cookie and returns a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	oldToken, _ := c.Cookie(refreshCookieName)

	accountID, newToken, err := h.authService.Refresh(c.Request.Context(), oldToken)
	if err != nil {
		h.clearRefreshCookie(c)
		response.Fail(c, http.StatusUnauthorized, response.ErrRefreshInvalid)
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.clearRefreshCookie(c)
		response.Fail(c, http.StatusUnauthorized, response.ErrRefreshInvalid)
		return
	}

	accessToken, err := h.authService.GenerateAccessToken(account)
	if err != nil {
		h.log.Error().Err(err).Msg("generate access token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.setRefreshCookie(c, newToken)
	response.Success(c, http.StatusOK, model.LoginResponse{AccessToken: accessToken, Account: *account})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(refreshCookieName)
	if err := h.authService.RevokeRefreshToken(c.Request.Context(), token); err != nil {
		h.log.Warn().Err(err).Msg("revoke refresh token")
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// UpdateProfile godoc
// PUT /api/v1/auth/me
// Edits the caller's own profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.log.Error().Err(err).Msg("update profile")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"account": account})
}

// ChangePassword godoc
// PUT /api/v1/auth/me/password
// Changes the caller's password after verifying the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ChangePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.authService.CheckPassword(account.PasswordHash, req.CurrentPassword); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		h.log.Error().Err(err).Msg("hash password")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.accountService.UpdatePassword(c.Request.Context(), claims.UserID, hash); err != nil {
		h.log.Error().Err(err).Msg("update password")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}

// issueSession creates both halves of a session: access token in the
// body, rotating refresh token in the cookie.
func (h *AuthHandler) issueSession(c *gin.Context, account *model.Account) {
	accessToken, err := h.authService.GenerateAccessToken(account)
	if err != nil {
		h.log.Error().Err(err).Msg("generate access token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	refreshToken, err := h.authService.IssueRefreshToken(c.Request.Context(), account.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("issue refresh token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.setRefreshCookie(c, refreshToken)
	response.Success(c, http.StatusOK, model.LoginResponse{AccessToken: accessToken, Account: *account})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if h.cfg.CookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(refreshCookieName, token,
		int(h.authService.RefreshTokenTTL().Seconds()), "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}
