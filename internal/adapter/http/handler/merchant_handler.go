package handler

import (
	"math"
	"strconv"
	"time"

	"wallet-link-gateway/internal/adapter/http/dto"
	"wallet-link-gateway/internal/adapter/http/middleware"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"
	"wallet-link-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant provisioning and self-service endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
	auditSvc    ports.AuditService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService, auditSvc ports.AuditService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc, auditSvc: auditSvc}
}

// Create handles POST /api/v2/merchants. The plaintext API key appears in
// this response only; afterwards only its hash is stored.
func (h *MerchantHandler) Create(c *gin.Context) {
	var req dto.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, apiKey, err := h.merchantSvc.Create(c.Request.Context(), req.Name, req.RateLimit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.MerchantResponse{
		ID:        merchant.ID.String(),
		Name:      merchant.Name,
		APIKey:    apiKey,
		IsActive:  merchant.IsActive,
		RateLimit: merchant.RateLimit,
		CreatedAt: merchant.CreatedAt.Format(time.RFC3339),
	})
}

// GetProfile handles GET /api/v2/merchants/me. The profile is re-read
// rather than served from the auth snapshot so rate-limit or status
// changes show up immediately.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	merchant, err := h.merchantSvc.GetByID(c.Request.Context(), merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.MerchantResponse{
		ID:        merchant.ID.String(),
		Name:      merchant.Name,
		IsActive:  merchant.IsActive,
		RateLimit: merchant.RateLimit,
		CreatedAt: merchant.CreatedAt.Format(time.RFC3339),
	})
}

// AuditHistory handles GET /api/v2/merchants/me/audit.
func (h *MerchantHandler) AuditHistory(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	logs, total, err := h.auditSvc.ListByMerchant(c.Request.Context(), merchantID.(uuid.UUID), pageSize, (page-1)*pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, dto.AuditLogResponse{
			ID:           logs[i].ID.String(),
			Action:       string(logs[i].Action),
			ResourceType: logs[i].ResourceType,
			ResourceID:   logs[i].ResourceID,
			Metadata:     logs[i].Metadata,
			IPAddress:    logs[i].IPAddress,
			CreatedAt:    logs[i].CreatedAt.Format(time.RFC3339),
		})
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.AuditLogListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}
