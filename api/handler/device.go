package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hioscollector/hioscollector/internal/database"
	"github.com/hioscollector/hioscollector/internal/model"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

// DeviceHandler manages the device inventory.
type DeviceHandler struct{}

// NewDeviceHandler creates the handler.
func NewDeviceHandler() *DeviceHandler {
	return &DeviceHandler{}
}

// CreateDevice adds a device to the inventory.
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var device model.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		logger.Errorf("invalid device parameters: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAMS",
			Message: "invalid device payload: " + err.Error(),
		})
		return
	}

	if device.Host == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "MISSING_HOST",
			Message: "device host is required",
		})
		return
	}
	if device.Port == 0 {
		device.Port = 22
	}
	if device.Port < 0 || device.Port > 65535 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PORT",
			Message: "port must be between 1 and 65535",
		})
		return
	}

	db := database.GetDB()
	var existing model.Device
	if err := db.Where("host = ? AND port = ? AND username = ?", device.Host, device.Port, device.Username).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "DEVICE_EXISTS",
			Message: "a device with the same host/port/username already exists",
		})
		return
	}

	if device.Status == "" {
		device.Status = model.DeviceStatusUnknown
	}
	if device.ID == "" {
		device.ID = uuid.NewString()
	}

	if err := db.Create(&device).Error; err != nil {
		logger.Errorf("failed to create device: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "CREATE_FAILED",
			Message: "failed to create device: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Code: "CREATED", Data: device})
}

// ListDevices returns the inventory.
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	var devices []model.Device
	if err := database.GetDB().Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LIST_FAILED",
			Message: "failed to list devices: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: devices})
}

// GetDevice returns one device by ID.
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	var device model.Device
	if err := database.GetDB().First(&device, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "device not found",
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: device})
}

// UpdateDevice patches an inventory record.
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	db := database.GetDB()
	var device model.Device
	if err := db.First(&device, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "device not found",
		})
		return
	}

	var patch model.Device
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAMS",
			Message: "invalid device payload: " + err.Error(),
		})
		return
	}
	patch.ID = device.ID

	if err := db.Model(&device).Updates(patch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "UPDATE_FAILED",
			Message: "failed to update device: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Data: device})
}

// DeleteDevice removes a device from the inventory.
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	result := database.GetDB().Delete(&model.Device{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "DELETE_FAILED",
			Message: "failed to delete device: " + result.Error.Error(),
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "device not found",
		})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "OK", Message: "device deleted"})
}
