package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"supply_sandbox/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLimitNaN    = "invalid 'limit'; must be an integer"
)

// @Summary      List session events
// @Description  History of the caller's sessions. If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         events
// @Produce      json
// @Param        session_id  query   string  false  "Only this session"
// @Param        from        query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to          query   string  false  "End of range; date-only treated as end of day"  example(2025-08-31)
// @Param        type        query   string  false  "Event type"  Enums(OPENED,SAVE_CONFIGURATION,APPLY,APPLY_HANDED_OFF,CANCEL,CLOSED,EXPIRED,SUBFORM_DETACHED)
// @Param        limit       query   int     false  "Maximum number of events (default 500)"
// @Success      200         {object}  map[string]interface{}  "count, events"
// @Failure      400         {object}  map[string]string
// @Failure      401         {object}  map[string]string
// @Failure      500         {object}  map[string]string
// @Router       /api/v1/events [get]
// @Security     BearerAuth
func (h *Handler) getEvents(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var (
		from      time.Time
		to        time.Time
		eventType = strings.ToUpper(strings.TrimSpace(c.Query("type")))
		sessionID = strings.TrimSpace(c.Query("session_id"))
		err       error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	var limit int
	if qs := c.Query("limit"); qs != "" {
		if limit, err = strconv.Atoi(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitNaN})
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), service.LogFilter{
		UserID:    userID,
		SessionID: sessionID,
		From:      from,
		To:        to,
		Type:      eventType,
		Limit:     limit,
	})
	if err != nil {
		if service.IsFilterError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load events", "events_list_failed", err,
			"from", from, "to", to, "type", eventType, "session_id", sessionID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
