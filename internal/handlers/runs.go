package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List sandbox runs
// @Tags         runs
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, runs"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/runs [get]
// @Security     BearerAuth
func (h *Handler) listRuns(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	runs, err := h.services.Sandbox.ListRuns(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list runs", "runs_list_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

// @Summary      Get sandbox run
// @Tags         runs
// @Produce      json
// @Param        id   path      string  true  "Run id"
// @Success      200  {object}  models.SandboxRun
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/runs/{id} [get]
// @Security     BearerAuth
func (h *Handler) getRun(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	run, err := h.services.Sandbox.GetRun(c.Request.Context(), userID, id)
	if err != nil {
		h.respondServiceError(c, "failed to load run", "run_get_failed", err, "run_id", id)
		return
	}
	c.JSON(http.StatusOK, run)
}
