package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gamelog/auth"
	"gamelog/middleware"
	"gamelog/models"
	"gamelog/utils"

	"github.com/gin-gonic/gin"
)

// Register godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body models.RegisterInput true "Account"
// @Success      201 {object} auth.Session
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	// length rules apply to what gets stored
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), input)
	if errors.Is(err, auth.ErrUserExists) {
		h.metrics.AuthenticationAttempts.WithLabelValues("register", "failure").Inc()
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.storeError(c, err, "user")
		return
	}

	h.metrics.AuthenticationAttempts.WithLabelValues("register", "success").Inc()
	h.log.WithField("user_id", session.User.ID).Info("user registered")
	c.JSON(http.StatusCreated, session)
}

// Login godoc
// @Summary      Sign in with username or email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body models.LoginInput true "Credentials"
// @Success      200 {object} auth.Session
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), input.Login(), input.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.metrics.AuthenticationAttempts.WithLabelValues("login", "failure").Inc()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.storeError(c, err, "user")
		return
	}

	h.metrics.AuthenticationAttempts.WithLabelValues("login", "success").Inc()
	// a successful sign-in forgives earlier typos from this address
	if err := h.sessions.Reset(c.Request.Context(), c.ClientIP()); err != nil {
		h.log.WithError(err).Warn("reset login attempts")
	}
	c.JSON(http.StatusOK, session)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.User
// @Failure      401 {object} ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Select(models.PublicColumns).
		First(&user, callerID(c)).Error
	if err != nil {
		h.storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout godoc
// @Summary      Revoke the current token
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.auth.Logout(c.Request.Context(), id); err != nil {
		h.log.WithError(err).Error("revoke token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// countLimited records logins the rate limiter turned away.
func (h *Handler) countLimited(c *gin.Context) {
	c.Next()
	if c.Writer.Status() == http.StatusTooManyRequests {
		h.metrics.AuthenticationAttempts.WithLabelValues("login", "limited").Inc()
	}
}
