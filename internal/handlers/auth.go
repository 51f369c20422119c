package handlers

import (
	"errors"
	"net/http"

	"supply_sandbox/internal/service"

	"github.com/gin-gonic/gin"
)

// authCredentials is the body of both sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required" example:"planner"`
	Password string `json:"password" binding:"required" example:"s3cret!"`
}

func (in authCredentials) toService() service.Credentials {
	return service.Credentials{Username: in.Username, Password: in.Password}
}

// bindJSON decodes the body into dst or writes a 400. It reports whether the
// handler should continue.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      201   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var in authCredentials
	if !h.bindJSON(c, &in) {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), in.toService())
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to create user", "auth_sign_up_failed", err, "username", in.Username)
	}
}

// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  service.Token
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var in authCredentials
	if !h.bindJSON(c, &in) {
		return
	}

	tok, err := h.services.SignIn(c.Request.Context(), in.toService())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tok)
	case errors.Is(err, service.ErrInvalidCredentials):
		if h.log != nil {
			h.log.Infow("auth_sign_in_rejected", "username", in.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to sign in", "auth_sign_in_failed", err, "username", in.Username)
	}
}
