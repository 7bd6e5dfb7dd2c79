package handler

import (
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

// WalletHandler handles wallet link lifecycle endpoints.
type WalletHandler struct {
	linkSvc ports.WalletLinkService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(linkSvc ports.WalletLinkService) *WalletHandler {
	return &WalletHandler{linkSvc: linkSvc}
}

// RequestOTP handles POST /api/v2/providers/:provider/wallet/otp.
func (h *WalletHandler) RequestOTP(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	link, err := h.linkSvc.RequestOTP(c.Request.Context(), ports.OTPRequest{
		Provider:     c.Param("provider"),
		MerchantID:   merchantID.(uuid.UUID),
		MobileNumber: req.MobileNumber,
		OrderID:      req.OrderID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletLinkResponse(link))
}

// ConfirmLink handles POST /api/v2/providers/:provider/wallet/links/:id/confirm.
func (h *WalletHandler) ConfirmLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet link id"))
		return
	}

	var req dto.ConfirmLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	// Ownership is checked before the confirm runs; otherwise another
	// merchant could drive this link through the provider call.
	if existing, err := h.linkSvc.GetByID(c.Request.Context(), linkID); err != nil {
		response.Error(c, err)
		return
	} else if !h.ownedBy(c, existing) {
		response.Error(c, apperror.ErrNotFound("wallet link"))
		return
	}

	link, err := h.linkSvc.ConfirmLink(c.Request.Context(), ports.ConfirmLinkRequest{
		WalletLinkID:    linkID,
		OrderID:         req.OrderID,
		OTP:             req.OTP,
		Amount:          req.Amount,
		MerchantOrderID: req.MerchantOrderID,
		EmailAddress:    req.EmailAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletLinkResponse(link))
}

// Deactivate handles DELETE /api/v2/providers/:provider/wallet/links/:id.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet link id"))
		return
	}

	var req dto.DeactivateLinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.Validation(err.Error()))
			return
		}
		dto.SanitizeStruct(&req)
	}

	if existing, err := h.linkSvc.GetByID(c.Request.Context(), linkID); err != nil {
		response.Error(c, err)
		return
	} else if !h.ownedBy(c, existing) {
		response.Error(c, apperror.ErrNotFound("wallet link"))
		return
	}

	link, err := h.linkSvc.Deactivate(c.Request.Context(), linkID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletLinkResponse(link))
}

// GetLink handles GET /api/v2/providers/:provider/wallet/links/:id.
func (h *WalletHandler) GetLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet link id"))
		return
	}

	link, err := h.linkSvc.GetByID(c.Request.Context(), linkID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.ownedBy(c, link) {
		response.Error(c, apperror.ErrNotFound("wallet link"))
		return
	}

	response.OK(c, toWalletLinkResponse(link))
}

// ListLinks handles GET /api/v2/providers/:provider/wallet/links.
func (h *WalletHandler) ListLinks(c *gin.Context) {
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

	// A mobile_number filter returns that wallet's full link history,
	// unpaged. Merchants use it to find the link behind a customer number.
	if mobile := c.Query("mobile_number"); mobile != "" {
		links, err := h.linkSvc.ListByMerchantAndMobile(c.Request.Context(), merchantID.(uuid.UUID), mobile)
		if err != nil {
			response.Error(c, err)
			return
		}
		items := make([]dto.WalletLinkResponse, 0, len(links))
		for i := range links {
			items = append(items, toWalletLinkResponse(&links[i]))
		}
		response.OK(c, dto.WalletLinkListResponse{
			Items:      items,
			Total:      int64(len(items)),
			Page:       1,
			PageSize:   len(items),
			TotalPages: 1,
		})
		return
	}

	links, total, err := h.linkSvc.ListByMerchant(c.Request.Context(), merchantID.(uuid.UUID), pageSize, (page-1)*pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletLinkResponse, 0, len(links))
	for i := range links {
		items = append(items, toWalletLinkResponse(&links[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.WalletLinkListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// ownedBy reports whether the link belongs to the authenticated merchant.
func (h *WalletHandler) ownedBy(c *gin.Context, link *domain.WalletLink) bool {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		return false
	}
	return link != nil && link.MerchantID == merchantID.(uuid.UUID)
}

// toWalletLinkResponse converts domain.WalletLink to DTO. The raw provider
// token is replaced by the masked display token.
func toWalletLinkResponse(link *domain.WalletLink) dto.WalletLinkResponse {
	resp := dto.WalletLinkResponse{
		ID:                 link.ID.String(),
		Provider:           link.Provider,
		MobileNumber:       link.MobileNumber,
		Status:             string(link.Status),
		DisplayToken:       link.DisplayToken(),
		MerchantOrderID:    link.MerchantOrderID,
		DeactivationReason: link.DeactivationReason,
		CreatedAt:          link.CreatedAt.Format(time.RFC3339),
	}
	resp.OTPExpiresAt = formatTimePtr(link.OTPExpiresAt)
	resp.LinkedAt = formatTimePtr(link.LinkedAt)
	resp.ExpiresAt = formatTimePtr(link.ExpiresAt)
	resp.DeactivatedAt = formatTimePtr(link.DeactivatedAt)
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
