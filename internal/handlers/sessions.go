package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errOpenSession     = "failed to open session"
	errListSessions    = "failed to list sessions"
	errGetSession      = "failed to load session"
	errCloseSession    = "failed to close session"
	errDispatchSession = "failed to apply event"
)

// @Summary      Open configurator session
// @Description  Creates a session in the Selection step with default facility and category.
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  service.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions [post]
// @Security     BearerAuth
func (h *Handler) openSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	snap, err := h.services.Configurator.Open(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errOpenSession, "session_open_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// @Summary      List sessions
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sessions"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions [get]
// @Security     BearerAuth
func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.services.Configurator.List(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSessions, "session_list_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(list),
		"sessions": list,
	})
}

// @Summary      Get session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	snap, err := h.services.Configurator.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondServiceError(c, errGetSession, "session_get_failed", err, "session_id", id)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Delete session
// @Tags         sessions
// @Param        id   path  string  true  "Session id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/{id} [delete]
// @Security     BearerAuth
func (h *Handler) closeSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.services.Configurator.Close(c.Request.Context(), userID, id); err != nil {
		h.respondServiceError(c, errCloseSession, "session_close_failed", err, "session_id", id)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Dispatch configurator event
// @Description  Disabled actions are not errors: the response is 200 with accepted=false and the unchanged session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Session id"
// @Param        body  body      EventRequest  true  "Event"
// @Success      200   {object}  service.Outcome
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sessions/{id}/events [post]
// @Security     BearerAuth
func (h *Handler) dispatchEvent(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req EventRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	out, err := h.services.Configurator.Dispatch(c.Request.Context(), userID, id, ev)
	if err != nil {
		h.respondServiceError(c, errDispatchSession, "session_dispatch_failed", err, "session_id", id, "type", ev.Action())
		return
	}
	if !out.Accepted && h.log != nil {
		h.log.Debugw("session_event_ignored", "session_id", id, "type", ev.Action())
	}
	c.JSON(http.StatusOK, out)
}
