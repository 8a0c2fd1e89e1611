package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mediaconv/internal/api/middleware"
	"mediaconv/internal/api/v1/services"
)

// EntitlementHandler handles quota endpoints
type EntitlementHandler struct {
	service services.EntitlementService
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(service services.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{service: service}
}

// Me handles GET /api/v1/me/entitlement
//
// @Summary Current entitlement
// @Description Returns the caller's remaining free uses, credit balance and unlimited flag.
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EntitlementResponse "Current quota"
// @Failure 401 {object} errors.APIError "Missing or invalid token"
// @Failure 404 {object} errors.APIError "Unknown identity"
// @Router /me/entitlement [get]
func (h *EntitlementHandler) Me(c *gin.Context) {
	response, err := h.service.GetEntitlement(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
