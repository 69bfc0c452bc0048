package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/repositories"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// NetworkHandlers handles network registry operations
type NetworkHandlers struct {
	networks  *repositories.NetworkRepository
	validator *validator.Validate
	logger    *logger.Logger
}

// NewNetworkHandlers creates a new NetworkHandlers instance
func NewNetworkHandlers(networks *repositories.NetworkRepository, logger *logger.Logger) *NetworkHandlers {
	return &NetworkHandlers{
		networks:  networks,
		validator: validator.New(),
		logger:    logger,
	}
}

// Get handles GET /api/v1/networks/:id
func (h *NetworkHandlers) Get(c *gin.Context) {
	networkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid network ID")
		return
	}

	network, err := h.networks.FindOneOrFail(c.Request.Context(), networkID)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, network)
}

// UpdateDepositAddress handles PATCH /api/v1/admin/networks/:id/deposit-address.
// Rejected while in-flight transfers still reference the network, because
// those deposits are matched against the current address.
func (h *NetworkHandlers) UpdateDepositAddress(c *gin.Context) {
	networkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid network ID")
		return
	}

	var body struct {
		DepositAddress string `json:"depositAddress" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	if err := h.networks.UpdateDepositAddress(c.Request.Context(), networkID, body.DepositAddress); err != nil {
		h.logger.Error("Failed to update deposit address", "error", err, "network_id", networkID)
		SendDomainError(c, err)
		return
	}

	network, err := h.networks.FindOneOrFail(c.Request.Context(), networkID)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, network)
}
