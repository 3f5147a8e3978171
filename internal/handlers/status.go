package handlers

import (
	"context"
	"errors"
	"net/http"

	"heatpump_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetStatus       = "failed to load status"
	errLoopUnavailable = "monitor loop is not running"
	errCommandFailed   = "command failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// runCommand hands a command to the control loop and replies with the status it leaves behind.
func (h *Handler) runCommand(c *gin.Context, name string, fn func(ctx context.Context) error) {
	ctx := c.Request.Context()
	if err := fn(ctx); err != nil {
		code, msg := http.StatusInternalServerError, errCommandFailed
		if errors.Is(err, service.ErrPipelineStopped) {
			code, msg = http.StatusServiceUnavailable, errLoopUnavailable
		}
		h.logAndJSONError(c, code, msg, "command_failed", err, "command", name)
		return
	}

	resp := gin.H{"status": statusOK, "command": name}
	if st, err := h.services.Monitoring.GetStatus(ctx); err == nil {
		resp["device"] = st
	}
	c.JSON(http.StatusOK, resp)
}

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

// @Summary      Current device status
// @Description  Latest snapshot, buffer fill and active alerts as last written by the monitor loop
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  models.DeviceStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.GetStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "status_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Acknowledge buffer overflow
// @Tags         buffer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, command, device"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/buffer/ack-overflow [post]
// @Security     BearerAuth
func (h *Handler) ackOverflow(c *gin.Context) {
	h.runCommand(c, service.CommandAckOverflow.String(), h.services.Controller.AckOverflow)
}

// @Summary      Drop all buffered snapshots
// @Tags         buffer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, command, device"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/buffer/clear [post]
// @Security     BearerAuth
func (h *Handler) clearBuffer(c *gin.Context) {
	h.runCommand(c, service.CommandClearBuffer.String(), h.services.Controller.ClearBuffer)
}

// @Summary      Reset alert cooldowns
// @Description  Forgets every alert's last-sent time so the next critical reading notifies immediately
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, command, device"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/alerts/reset [post]
// @Security     BearerAuth
func (h *Handler) resetAlerts(c *gin.Context) {
	h.runCommand(c, service.CommandResetAlerts.String(), h.services.Controller.ResetAlerts)
}
