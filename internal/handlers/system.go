package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      About the marketplace
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /about [get]
func (h *Handler) about(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Marketplace",
		"description": "Buy and sell items. Post a listing with a photo, browse the newest listings and visit each seller's page.",
	})
}
