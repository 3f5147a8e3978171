package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"heatpump_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Query time layouts accepted besides RFC3339. Bounds are interpreted as UTC.
const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// parseEventQuery builds an event-log filter from the from, to and type query
// parameters. A date-only "to" is widened to the last nanosecond of that day.
func parseEventQuery(c *gin.Context) (service.LogFilter, error) {
	var f service.LogFilter
	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	f.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))
	return f, nil
}

// @Summary      List device events
// @Description  Events written by the monitor loop: alert notifications sent, failed and cleared, buffer overflow, clear and drain, and failed publishes. Bounds accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Earliest event time"  example(2025-08-01)
// @Param        to    query   string  false  "Latest event time"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(ALERT_SENT,ALERT_FAILED,ALERT_CLEARED,BUFFER_OVERFLOW,BUFFER_CLEARED,BUFFER_DRAINED,PUBLISH_FAILED)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	filter, err := parseEventQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	switch {
	case service.IsFilterError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		if h.log != nil {
			h.log.Errorw("logs_list_failed", "err", err, "from", filter.From, "to", filter.To, "type", filter.Type)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// parseQueryTime tries RFC3339, then "YYYY-MM-DD HH:MM:SS", then "YYYY-MM-DD".
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q; use RFC3339, YYYY-MM-DD HH:MM:SS or YYYY-MM-DD", s)
}
