package handlers

import (
	"net/http"
	"strconv"

	"marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// parsePage reads ?page=N; anything unparsable is page 1.
func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return page
}

// parseID reads the :id path parameter and writes a 404 when it is not a number.
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrListingNotFound.Error()})
		return 0, false
	}
	return id, true
}

func listingForm(c *gin.Context) (service.ListingInput, func(), error) {
	picture, closeFile, err := formUpload(c, "item_picture")
	if err != nil {
		return service.ListingInput{}, closeFile, err
	}
	desc := c.PostForm("description")
	if desc == "" {
		desc = c.PostForm("desc")
	}
	return service.ListingInput{
		Item:        c.PostForm("item"),
		Description: desc,
		Price:       c.PostForm("price"),
		Picture:     picture,
	}, closeFile, nil
}

// @Summary      Home feed
// @Tags         listings
// @Produce      json
// @Param        page  query     int  false  "page number, 5 listings per page"
// @Success      200   {object}  pageResponse
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/listings [get]
func (h *Handler) feed(c *gin.Context) {
	page, err := h.services.Feed(c.Request.Context(), parsePage(c))
	if err != nil {
		h.respondError(c, "feed_failed", err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page))
}

// @Summary      Listings of one seller
// @Tags         listings
// @Produce      json
// @Param        username  path      string  true   "seller username"
// @Param        page      query     int     false  "page number"
// @Success      200       {object}  pageResponse
// @Failure      404       {object}  map[string]string
// @Router       /api/v1/users/{username}/listings [get]
func (h *Handler) sellerFeed(c *gin.Context) {
	username := c.Param("username")
	page, err := h.services.SellerFeed(c.Request.Context(), username, parsePage(c))
	if err != nil {
		h.respondError(c, "seller_feed_failed", err, "username", username)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(page))
}

// @Summary      One listing
// @Tags         listings
// @Produce      json
// @Param        id   path      int  true  "listing id"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/listings/{id} [get]
func (h *Handler) getListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	l, err := h.services.GetListing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "listing_get_failed", err, "listing_id", id)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(*l))
}

// @Summary      Post a listing
// @Description  Multipart form: item, description, price and an optional jpg/png "item_picture".
// @Tags         listings
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  listingResponse
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/listings [post]
func (h *Handler) createListing(c *gin.Context) {
	in, closeFile, err := listingForm(c)
	defer closeFile()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "listing_bad_upload", err)
		return
	}

	l, err := h.services.CreateListing(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		h.respondError(c, "listing_create_failed", err, "user_id", currentUserID(c))
		return
	}
	c.JSON(http.StatusCreated, newListingResponse(*l))
}

// @Summary      Edit a listing
// @Tags         listings
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path      int  true  "listing id"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/listings/{id} [put]
func (h *Handler) updateListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, closeFile, err := listingForm(c)
	defer closeFile()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "listing_bad_upload", err)
		return
	}

	l, err := h.services.UpdateListing(c.Request.Context(), currentUserID(c), id, in)
	if err != nil {
		h.respondError(c, "listing_update_failed", err, "listing_id", id)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(*l))
}

// @Summary      Delete a listing
// @Tags         listings
// @Produce      json
// @Param        id   path      int  true  "listing id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/listings/{id} [delete]
func (h *Handler) deleteListing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.DeleteListing(c.Request.Context(), currentUserID(c), id); err != nil {
		h.respondError(c, "listing_delete_failed", err, "listing_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
