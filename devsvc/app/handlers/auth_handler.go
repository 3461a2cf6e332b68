package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"crivo-thalam/devsvc/app/dto"
	"crivo-thalam/devsvc/app/services"
	"crivo-thalam/devsvc/app/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const authPage = "auth.html"

// AuthTemplate is the approval page rendered for auth links
var AuthTemplate = template.Must(template.New(authPage).Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize device</title></head>
<body>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Device}}
<h1>{{.Device.DeviceName}}</h1>
<p>{{.Device.Platform}} {{.Device.PlatformVersion}} ({{.Device.Machine}})</p>
<p>Device ID: {{.Device.DeviceID}}</p>
{{if .Device.IsAuthorized}}
<p class="ok">Authorized{{if .Device.AuthorizedBy}} by {{.Device.AuthorizedBy}}{{end}}.</p>
{{else}}
<form method="post">
<label>Your name <input name="authorized_by" required></label>
<button type="submit">Authorize</button>
</form>
{{end}}
{{end}}
</body>
</html>
`))

// AuthHandler serves the auth link approval page
type AuthHandler struct {
	registry *services.DeviceRegistryService
	log      zerolog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(registry *services.DeviceRegistryService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		registry: registry,
		log:      log,
	}
}

// Page shows the device behind an auth link
func (h *AuthHandler) Page(c *gin.Context) {
	device, err := h.registry.DeviceForToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, authPage, gin.H{"Device": device})
}

// Approve marks the device behind an auth link as authorized
func (h *AuthHandler) Approve(c *gin.Context) {
	var req dto.AuthorizeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, authPage, gin.H{"Error": "invalid form"})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		c.HTML(http.StatusUnprocessableEntity, authPage, gin.H{"Error": err.Error()})
		return
	}

	device, err := h.registry.Authorize(c.Request.Context(), c.Param("token"), req.AuthorizedBy)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, authPage, gin.H{"Device": device})
}

func (h *AuthHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		c.HTML(http.StatusUnauthorized, authPage, gin.H{"Error": "This authorization link is invalid or has expired."})
	case errors.Is(err, services.ErrDeviceNotFound):
		c.HTML(http.StatusNotFound, authPage, gin.H{"Error": deviceNotFound})
	default:
		h.log.Error().Err(err).Msg("auth page failed")
		c.HTML(http.StatusInternalServerError, authPage, gin.H{"Error": "Something went wrong."})
	}
}
