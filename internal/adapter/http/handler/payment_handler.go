package handler

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"wallet-link-gateway/internal/adapter/http/dto"
	"wallet-link-gateway/internal/adapter/http/middleware"
	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"
	"wallet-link-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment and transaction query endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Charge handles POST /api/v2/providers/:provider/payments.
func (h *PaymentHandler) Charge(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	linkID, err := uuid.Parse(req.WalletLinkID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet link id"))
		return
	}

	txn, err := h.paymentSvc.ChargeWallet(c.Request.Context(), ports.ChargeRequest{
		MerchantID:      merchantID.(uuid.UUID),
		WalletLinkID:    linkID,
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.Amount,
		EmailAddress:    req.EmailAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// GetTransaction handles GET /api/v2/transactions/:id.
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.paymentSvc.GetByID(c.Request.Context(), txnID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownedBy(c, txn) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// GetByOrder handles GET /api/v2/transactions/order/:merchant_order_id.
func (h *PaymentHandler) GetByOrder(c *gin.Context) {
	txn, err := h.paymentSvc.GetByMerchantOrderID(c.Request.Context(), c.Param("merchant_order_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownedBy(c, txn) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// RecordRetry handles POST /api/v2/transactions/:id/retry. Charging again
// always takes a new merchant_order_id; this endpoint only marks the failed
// attempt so the new charge can be traced back to it.
func (h *PaymentHandler) RecordRetry(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.paymentSvc.GetByID(c.Request.Context(), txnID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownedBy(c, txn) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}
	if txn.Status != domain.TransactionStatusFailed {
		response.Error(c, apperror.Validation(fmt.Sprintf("only failed transactions record retries, status is %s", txn.Status)))
		return
	}

	txn, err = h.paymentSvc.IncrementRetry(c.Request.Context(), txnID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// GetByProviderOrder handles GET /api/v2/transactions/provider/:provider_order_id.
// Support tooling resolves provider-side references with it.
func (h *PaymentHandler) GetByProviderOrder(c *gin.Context) {
	txn, err := h.paymentSvc.GetByProviderOrderID(c.Request.Context(), c.Param("provider_order_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownedBy(c, txn) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// ListTransactions handles GET /api/v2/transactions.
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransactionListParams{
		MerchantID: merchantID.(uuid.UUID),
		Page:       page,
		PageSize:   pageSize,
	}

	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := time.Parse(time.RFC3339, t); err == nil {
			params.To = &v
		}
	}

	txns, total, err := h.paymentSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// GetStats handles GET /api/v2/transactions/stats.
func (h *PaymentHandler) GetStats(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var from, to *time.Time
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			from = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := time.Parse(time.RFC3339, t); err == nil {
			to = &v
		}
	}

	stats, err := h.paymentSvc.GetStats(c.Request.Context(), merchantID.(uuid.UUID), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransactionStatsResponse{
		TotalTransactions:      stats.TotalTransactions,
		SuccessfulTransactions: stats.SuccessfulTransactions,
		FailedTransactions:     stats.FailedTransactions,
		TotalAmount:            stats.TotalAmount.StringFixed(2),
		SuccessfulAmount:       stats.SuccessfulAmount.StringFixed(2),
	})
}

// ownedBy reports whether the transaction belongs to the authenticated merchant.
func (h *PaymentHandler) ownedBy(c *gin.Context, txn *domain.Transaction) bool {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		return false
	}
	return txn != nil && txn.MerchantID == merchantID.(uuid.UUID)
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:                      txn.ID.String(),
		MerchantOrderID:         txn.MerchantOrderID,
		ProviderOrderID:         txn.ProviderOrderID,
		TransactionType:         string(txn.TransactionType),
		MobileNumber:            txn.MobileNumber,
		Status:                  string(txn.Status),
		ProviderResponseCode:    txn.ProviderResponseCode,
		ProviderResponseMessage: txn.ProviderResponseMessage,
		ErrorMessage:            txn.ErrorMessage,
		RetryCount:              txn.RetryCount,
		CreatedAt:               txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.WalletLinkID != nil {
		s := txn.WalletLinkID.String()
		resp.WalletLinkID = &s
	}
	if txn.Amount != nil {
		s := txn.Amount.StringFixed(2)
		resp.Amount = &s
	}
	resp.CompletedAt = formatTimePtr(txn.CompletedAt)
	return resp
}
