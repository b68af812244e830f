package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hioscollector/hioscollector/internal/service"
)

// BackupHandler exposes configuration archiving.
type BackupHandler struct {
	backup *service.BackupService
}

// NewBackupHandler creates the handler.
func NewBackupHandler(backup *service.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// BackupDevice archives the device's running and startup config.
func (h *BackupHandler) BackupDevice(c *gin.Context) {
	record, err := h.backup.BackupDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeGetterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Code: "CREATED", Data: record})
}

// ListBackups returns archived snapshots for a device, newest first.
func (h *BackupHandler) ListBackups(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.backup.ListBackups(c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LIST_FAILED",
			Message: "failed to list backups: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: records})
}
