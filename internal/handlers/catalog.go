package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Configurator catalog
// @Description  Categories, variables and knob bounds, plus facility and plant options.
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  service.CatalogView
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/catalog [get]
// @Security     BearerAuth
func (h *Handler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Catalog.Catalog())
}
