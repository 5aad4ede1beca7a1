package handlers

import (
	"errors"
	"net/http"

	"marketplace/internal/models"
	"marketplace/internal/service"
	"marketplace/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal server error"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "request_id", c.GetString(ctxRequestID)}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps service errors to HTTP statuses.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verrs.ByField()})
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logAndJSONError(c, http.StatusUnauthorized, "Username or password is incorrect.", logKey, err, kv...)
	case errors.Is(err, service.ErrInvalidResetToken):
		h.logAndJSONError(c, http.StatusBadRequest, "Invalid or expired token.", logKey, err, kv...)
	case errors.Is(err, service.ErrForbidden):
		h.logAndJSONError(c, http.StatusForbidden, "you do not own this listing", logKey, err, kv...)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrImageDecode):
		h.logAndJSONError(c, http.StatusBadRequest, "uploaded file is not a valid image", logKey, err, kv...)
	case errors.Is(err, service.ErrStorageWrite):
		h.logAndJSONError(c, http.StatusInternalServerError, "could not store uploaded file", logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

func imageURL(name string) string {
	return imagesPath + "/" + name
}

type userResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, ImageURL: imageURL(u.ImageFile)}
}

type listingResponse struct {
	models.Listing
	ImageURL string `json:"image_url"`
}

func newListingResponse(l models.Listing) listingResponse {
	return listingResponse{Listing: l, ImageURL: imageURL(l.ImageFile)}
}

type pageResponse struct {
	Items   []listingResponse `json:"items"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Total   int               `json:"total"`
	Pages   int               `json:"pages"`
	HasPrev bool              `json:"has_prev"`
	HasNext bool              `json:"has_next"`
}

func newPageResponse(p models.Page) pageResponse {
	items := make([]listingResponse, 0, len(p.Items))
	for _, l := range p.Items {
		items = append(items, newListingResponse(l))
	}
	return pageResponse{
		Items:   items,
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
		Pages:   p.Pages,
		HasPrev: p.HasPrev,
		HasNext: p.HasNext,
	}
}
