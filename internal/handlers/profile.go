package handlers

import (
	"errors"
	"net/http"

	"marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// formUpload opens an optional file field of a multipart form. The returned
// close func is never nil.
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &service.Upload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}

// @Summary      Current user's profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/profile [get]
func (h *Handler) getProfile(c *gin.Context) {
	u, err := h.services.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, "profile_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// @Summary      Update profile
// @Description  Multipart form: username, email and an optional jpg/png "picture" that becomes a 125x125 avatar.
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/profile [post]
func (h *Handler) updateProfile(c *gin.Context) {
	picture, closeFile, err := formUpload(c, "picture")
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "profile_bad_upload", err)
		return
	}
	defer closeFile()

	in := service.ProfileInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Picture:  picture,
	}

	userID := currentUserID(c)
	u, err := h.services.UpdateProfile(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, "profile_update_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}
