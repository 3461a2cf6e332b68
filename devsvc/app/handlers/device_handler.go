package handlers

import (
	"errors"
	"net/http"
	"time"

	"crivo-thalam/devsvc/app/domains"
	"crivo-thalam/devsvc/app/dto"
	"crivo-thalam/devsvc/app/services"
	"crivo-thalam/devsvc/app/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const deviceNotFound = "Device not found"

// respondJSON sends a JSON response
func respondJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// respondError sends an error response in the {"detail": ...} shape the CLI reads
func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, dto.ErrorResponse{Detail: detail})
}

// DeviceHandler handles the device API endpoints
type DeviceHandler struct {
	registry *services.DeviceRegistryService
	log      zerolog.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(registry *services.DeviceRegistryService, log zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{
		registry: registry,
		log:      log,
	}
}

// Register handles device registration
func (h *DeviceHandler) Register(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	device, link, err := h.registry.Register(c.Request.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to register device")
		respondError(c, http.StatusInternalServerError, "failed to register device")
		return
	}

	respondJSON(c, http.StatusCreated, dto.RegisterDeviceResponse{
		DeviceID: device.DeviceID,
		AuthLink: link,
		Message:  "Device registered. Visit the auth link to authorize it.",
	})
}

// Status reports the authorization state of a device
func (h *DeviceHandler) Status(c *gin.Context) {
	device, err := h.registry.GetDevice(c.Request.Context(), c.Param("device_id"))
	if errors.Is(err, services.ErrDeviceNotFound) {
		respondError(c, http.StatusNotFound, deviceNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load device")
		respondError(c, http.StatusInternalServerError, "failed to load device")
		return
	}

	respondJSON(c, http.StatusOK, statusResponse(device))
}

// ListDevices lists every registered device
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.registry.ListDevices(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list devices")
		respondError(c, http.StatusInternalServerError, "failed to list devices")
		return
	}

	summaries := make([]dto.DeviceSummary, len(devices))
	for i, d := range devices {
		summaries[i] = dto.DeviceSummary{
			DeviceID:     d.DeviceID,
			DeviceName:   d.DeviceName,
			Platform:     d.Platform,
			RegisteredAt: d.RegisteredAt.UTC().Format(time.RFC3339),
			IsAuthorized: d.IsAuthorized,
		}
	}
	respondJSON(c, http.StatusOK, dto.ListDevicesResponse{Devices: summaries})
}

func statusResponse(device *domains.Device) dto.DeviceStatusResponse {
	resp := dto.DeviceStatusResponse{
		DeviceID:     device.DeviceID,
		IsAuthorized: device.IsAuthorized,
		AuthorizedBy: device.AuthorizedBy,
	}
	if device.AuthorizedAt != nil {
		at := device.AuthorizedAt.UTC().Format(time.RFC3339)
		resp.AuthorizedAt = &at
	}
	return resp
}
