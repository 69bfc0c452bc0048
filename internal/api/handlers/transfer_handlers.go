package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/api/middleware"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/services/transfers"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// TransferHandlers handles deposit and withdrawal operations
type TransferHandlers struct {
	transferService *transfers.Service
	validator       *validator.Validate
	logger          *logger.Logger
}

// NewTransferHandlers creates a new TransferHandlers instance
func NewTransferHandlers(transferService *transfers.Service, logger *logger.Logger) *TransferHandlers {
	return &TransferHandlers{
		transferService: transferService,
		validator:       validator.New(),
		logger:          logger,
	}
}

// CalculateAmount handles POST /api/v1/transfers/calculate-amount
func (h *TransferHandlers) CalculateAmount(c *gin.Context) {
	var req entities.CalculateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	resp, err := h.transferService.CalculateAmount(c.Request.Context(), &req)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, resp)
}

// CreateDeposit handles POST /api/v1/transfers/deposit
func (h *TransferHandlers) CreateDeposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}

	var req entities.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	transfer, err := h.transferService.CreateDeposit(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to create deposit", "error", err, "user_id", userID)
		SendDomainError(c, err)
		return
	}

	SendCreated(c, transfer)
}

// SendWithdrawalCode handles POST /api/v1/transfers/withdrawal/code
func (h *TransferHandlers) SendWithdrawalCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}
	email := c.GetString("user_email")
	if email == "" {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}

	if err := h.transferService.SendWithdrawalCode(c.Request.Context(), userID, email); err != nil {
		h.logger.Error("Failed to send withdrawal code", "error", err, "user_id", userID)
		SendDomainError(c, err)
		return
	}

	SendNoContent(c)
}

// CreateWithdrawal handles POST /api/v1/transfers/withdrawal
func (h *TransferHandlers) CreateWithdrawal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}

	var req entities.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	transfer, err := h.transferService.CreateWithdrawal(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to create withdrawal", "error", err, "user_id", userID)
		SendDomainError(c, err)
		return
	}

	SendCreated(c, transfer)
}

// UpdateTxID handles PATCH /api/v1/transfers/:id/txid
func (h *TransferHandlers) UpdateTxID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	var body struct {
		TxID string `json:"txId" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	req := entities.UpdateTxIDRequest{TransferID: transferID, TxID: body.TxID}
	transfer, err := h.transferService.UpdateTxID(c.Request.Context(), userID, middleware.IsAdmin(c), &req)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}

// CancelDeposit handles PATCH /api/v1/transfers/:id/deposit/cancel
func (h *TransferHandlers) CancelDeposit(c *gin.Context) {
	h.cancel(c, h.transferService.CancelDeposit)
}

// CancelWithdrawal handles PATCH /api/v1/transfers/:id/withdrawal/cancel
func (h *TransferHandlers) CancelWithdrawal(c *gin.Context) {
	h.cancel(c, h.transferService.CancelWithdrawal)
}

// ConfirmDeposit handles PATCH /api/v1/transfers/:id/deposit/confirm
func (h *TransferHandlers) ConfirmDeposit(c *gin.Context) {
	h.confirm(c, h.transferService.ConfirmDeposit)
}

// ConfirmWithdrawal handles PATCH /api/v1/transfers/:id/withdrawal/confirm
func (h *TransferHandlers) ConfirmWithdrawal(c *gin.Context) {
	h.confirm(c, h.transferService.ConfirmWithdrawal)
}

// Process handles PATCH /api/v1/transfers/:id/process
func (h *TransferHandlers) Process(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	var body struct {
		UserID uuid.UUID `json:"userId" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	req := entities.ProcessTransferRequest{TransferID: transferID, UserID: body.UserID}
	transfer, err := h.transferService.Process(c.Request.Context(), &req)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}

// Annotate handles PATCH /api/v1/transfers/:id/note
func (h *TransferHandlers) Annotate(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	var body struct {
		Note string `json:"note" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(&body); err != nil {
		SendBadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	transfer, err := h.transferService.Annotate(c.Request.Context(), transferID, body.Note)
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}

// Get handles GET /api/v1/transfers/:id
func (h *TransferHandlers) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), transferID, userID, middleware.IsAdmin(c))
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}

// List handles GET /api/v1/transfers
func (h *TransferHandlers) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		SendUnauthorized(c, MsgUnauthorized)
		return
	}

	limit, offset := parsePagination(c, 20, 100)
	page, err := h.transferService.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transfers", "error", err, "user_id", userID)
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, page)
}

// ListAdmin handles GET /api/v1/admin/transfers
func (h *TransferHandlers) ListAdmin(c *gin.Context) {
	limit, offset := parsePagination(c, 20, 100)

	var status *entities.TransferStatus
	if raw := c.Query("status"); raw != "" {
		s := entities.TransferStatus(raw)
		if !s.IsValid() {
			SendBadRequest(c, ErrCodeInvalidRequest, "Unknown transfer status")
			return
		}
		status = &s
	}

	page, err := h.transferService.ListAdmin(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transfers", "error", err)
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, page)
}

func (h *TransferHandlers) cancel(c *gin.Context, fn func(ctx context.Context, req *entities.CancelTransferRequest) (*entities.Transfer, error)) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	var body struct {
		Note *string `json:"note,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			SendBadRequest(c, ErrCodeInvalidRequest, MsgInvalidRequest, map[string]interface{}{"error": err.Error()})
			return
		}
	}

	transfer, err := fn(c.Request.Context(), &entities.CancelTransferRequest{TransferID: transferID, Note: body.Note})
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}

func (h *TransferHandlers) confirm(c *gin.Context, fn func(ctx context.Context, req *entities.ConfirmTransferRequest) (*entities.Transfer, error)) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transfer ID")
		return
	}

	transfer, err := fn(c.Request.Context(), &entities.ConfirmTransferRequest{TransferID: transferID})
	if err != nil {
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, transfer)
}
