package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/services/rates"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// RateHandlers handles fixed currency rate operations
type RateHandlers struct {
	rateService *rates.Service
	validator   *validator.Validate
	logger      *logger.Logger
}

// NewRateHandlers creates a new RateHandlers instance
func NewRateHandlers(rateService *rates.Service, logger *logger.Logger) *RateHandlers {
	return &RateHandlers{
		rateService: rateService,
		validator:   validator.New(),
		logger:      logger,
	}
}

// Create handles POST /api/v1/rates. The returned rate pins the conversion
// price a transfer created within its lifespan will use.
func (h *RateHandlers) Create(c *gin.Context) {
	var req entities.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	rate, err := h.rateService.Create(c.Request.Context(), req.NetworkID)
	if err != nil {
		h.logger.Error("Failed to create rate", "error", err, "network_id", req.NetworkID)
		SendDomainError(c, err)
		return
	}

	SendCreated(c, rate)
}

// Get handles GET /api/v1/rates/:id and fails on expired rates
func (h *RateHandlers) Get(c *gin.Context) {
	rateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid rate ID")
		return
	}

	rate, err := h.rateService.Validate(c.Request.Context(), rateID)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, rate)
}
