package handlers

import (
	"net/http"

	"marketplace/internal/service"
	"marketplace/internal/validation"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const rememberMaxAge = 30 * 24 * 60 * 60 // 30 days

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember" form:"remember"`
}

type resetRequest struct {
	Email string `json:"email" form:"email"`
}

// bindOrBadRequest binds JSON or form bodies into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      service.RegisterInput  true  "username, email, password, confirm_password"
// @Success      201    {object}  userResponse
// @Failure      400    {object}  map[string]interface{}
// @Router       /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input service.RegisterInput
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.Register(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "auth_register_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(u))
}

// @Summary      Log in
// @Description  Starts a cookie session. remember=true keeps it for 30 days.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}

	var errs validation.Errors
	errs.Check("username", validation.Required(input.Username), validation.MaxLen(input.Username, service.UsernameMaxLen))
	errs.Check("password", validation.Required(input.Password))
	if err := errs.Err(); err != nil {
		h.respondError(c, "auth_login_invalid", err)
		return
	}

	u, err := h.services.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.respondError(c, "auth_login_failed", err, "username", input.Username)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, u.ID)
	opts := sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if input.Remember {
		opts.MaxAge = rememberMaxAge
	}
	session.Options(opts)
	if err := session.Save(); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, "session_save_failed", err)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_login", "user_id", u.ID, "remember", input.Remember)
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// @Summary      Log out
// @Description  Clears the session cookie.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, "session_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// @Summary      Request a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *Handler) requestReset(c *gin.Context) {
	var input resetRequest
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}

	if err := h.services.RequestPasswordReset(c.Request.Context(), input.Email); err != nil {
		h.respondError(c, "auth_reset_request_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "An email has been sent to reset your password."})
}

// @Summary      Check a password reset token
// @Tags         auth
// @Produce      json
// @Param        token  path      string  true  "reset token from the email"
// @Success      200    {object}  map[string]bool
// @Failure      400    {object}  map[string]string
// @Router       /auth/reset-password/{token} [get]
func (h *Handler) checkResetToken(c *gin.Context) {
	if err := h.services.CheckResetToken(c.Request.Context(), c.Param("token")); err != nil {
		h.respondError(c, "auth_reset_token_rejected", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// @Summary      Set a new password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                      true  "reset token from the email"
// @Param        input  body      service.ResetPasswordInput  true  "password, confirm_password"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]interface{}
// @Router       /auth/reset-password/{token} [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input service.ResetPasswordInput
	if ok := h.bindOrBadRequest(c, &input); !ok {
		return
	}

	if err := h.services.ResetPassword(c.Request.Context(), c.Param("token"), input); err != nil {
		h.respondError(c, "auth_reset_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "The password has been changed. Please log in."})
}
