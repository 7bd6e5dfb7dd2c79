package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	otpValidity  = 5 * time.Minute
	linkValidity = 365 * 24 * time.Hour

	defaultDeactivationReason = "merchant requested deactivation"
)

// WalletLinkServiceImpl implements ports.WalletLinkService. It owns every
// wallet-link state transition; the transaction engine only reads links.
type WalletLinkServiceImpl struct {
	linkRepo   ports.WalletLinkRepository
	txRepo     ports.TransactionRepository
	registry   ports.ProviderRegistry
	transactor ports.DBTransactor
	auditSvc   ports.AuditService
	log        zerolog.Logger
}

// NewWalletLinkService creates a new WalletLinkServiceImpl.
func NewWalletLinkService(
	linkRepo ports.WalletLinkRepository,
	txRepo ports.TransactionRepository,
	registry ports.ProviderRegistry,
	transactor ports.DBTransactor,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *WalletLinkServiceImpl {
	return &WalletLinkServiceImpl{
		linkRepo:   linkRepo,
		txRepo:     txRepo,
		registry:   registry,
		transactor: transactor,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// RequestOTP starts a new link: it enforces the single-active-link invariant,
// asks the provider for an OTP and records the link in OTP_GENERATED with a
// five minute confirmation window.
func (s *WalletLinkServiceImpl) RequestOTP(ctx context.Context, req ports.OTPRequest) (*domain.WalletLink, error) {
	if req.MobileNumber == "" {
		return nil, apperror.Validation("mobile number is required")
	}
	if req.OrderID == "" {
		return nil, apperror.Validation("order id is required")
	}

	prov, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	existing, err := s.linkRepo.FindActive(ctx, req.MerchantID, req.MobileNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find active link: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrActiveLinkExists()
	}

	res, err := prov.GenerateOTP(ctx, req.MobileNumber, req.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	otpExpiry := now.Add(otpValidity)
	link := &domain.WalletLink{
		ID:               uuid.New(),
		MerchantID:       req.MerchantID,
		Provider:         prov.ID(),
		MobileNumber:     req.MobileNumber,
		Status:           domain.WalletLinkStatusOTPGenerated,
		OTPReference:     req.OrderID,
		OTPExpiresAt:     &otpExpiry,
		ProviderResponse: res.Raw,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet link: %w", err))
	}

	s.auditSvc.Record(ctx, domain.AuditActionOTPGenerated, &req.MerchantID, "wallet_link", link.ID.String(), map[string]any{
		"mobile_number": req.MobileNumber,
		"order_id":      req.OrderID,
	})

	s.log.Info().
		Str("wallet_link_id", link.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Msg("OTP generated")

	return link, nil
}

// ConfirmLink verifies the OTP with the provider and activates the link.
// When a merchant order id is supplied and an active link already carries
// it, that link is returned unchanged instead of re-executing.
func (s *WalletLinkServiceImpl) ConfirmLink(ctx context.Context, req ports.ConfirmLinkRequest) (*domain.WalletLink, error) {
	if req.OTP == "" {
		return nil, apperror.Validation("otp is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	link, err := s.getLink(ctx, req.WalletLinkID)
	if err != nil {
		return nil, err
	}

	merchantOrderID := req.MerchantOrderID
	if merchantOrderID == "" {
		merchantOrderID = generateLinkOrderID()
	} else {
		existing, err := s.linkRepo.FindActiveByMerchantOrder(ctx, link.MerchantID, merchantOrderID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
		}
		if existing != nil {
			s.log.Info().
				Str("merchant_order_id", merchantOrderID).
				Str("wallet_link_id", existing.ID.String()).
				Msg("returning existing wallet link for merchant order id")
			return existing, nil
		}

		// The order id may already be spent on another transaction, e.g.
		// an earlier charge. Reject before the provider call fires.
		taken, err := s.txRepo.GetByMerchantOrderID(ctx, merchantOrderID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("duplicate order lookup: %w", err))
		}
		if taken != nil {
			return nil, apperror.ErrDuplicateOrder(merchantOrderID)
		}
	}

	if link.Status != domain.WalletLinkStatusOTPGenerated {
		return nil, apperror.Validation(fmt.Sprintf("invalid wallet link status: %s", link.Status))
	}

	now := time.Now().UTC()
	if link.OTPExpired(now) {
		link.Status = domain.WalletLinkStatusExpired
		link.UpdatedAt = now
		if err := s.linkRepo.Update(ctx, link); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("expire wallet link: %w", err))
		}
		return nil, apperror.Validation("OTP has expired")
	}

	prov, err := s.registry.Get(link.Provider)
	if err != nil {
		return nil, err
	}

	res, err := prov.LinkWallet(ctx, ports.LinkWalletRequest{
		MobileNumber: link.MobileNumber,
		OrderID:      req.OrderID,
		OTP:          req.OTP,
		Amount:       req.Amount,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		if apperror.IsProviderRejection(err) {
			link.Status = domain.WalletLinkStatusFailed
			link.UpdatedAt = time.Now().UTC()
			if updateErr := s.linkRepo.Update(ctx, link); updateErr != nil {
				s.log.Error().Err(updateErr).Str("wallet_link_id", link.ID.String()).Msg("failed to mark link FAILED")
			}
		}
		return nil, err
	}

	providerOrderID := res.ProviderOrderID
	if providerOrderID == "" {
		providerOrderID = req.OrderID
	}

	now = time.Now().UTC()
	amount := req.Amount
	reqPayload, _ := json.Marshal(map[string]any{
		"wallet_link_id":    link.ID.String(),
		"otp":               "***",
		"amount":            domain.FormatAmount(amount),
		"merchant_order_id": merchantOrderID,
	})

	txn := &domain.Transaction{
		ID:                      uuid.New(),
		MerchantID:              link.MerchantID,
		WalletLinkID:            &link.ID,
		MerchantOrderID:         merchantOrderID,
		ProviderOrderID:         providerOrderID,
		TransactionType:         domain.TransactionTypeWalletLink,
		Amount:                  &amount,
		MobileNumber:            link.MobileNumber,
		Status:                  domain.TransactionStatusCompleted,
		ProviderResponseCode:    res.ResponseCode,
		ProviderResponseMessage: res.ResponseMessage,
		RequestPayload:          reqPayload,
		ResponsePayload:         res.Raw,
		CompletedAt:             &now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	expiry := now.Add(linkValidity)
	link.Status = domain.WalletLinkStatusActive
	link.Token = res.Token
	link.ProviderOrderID = providerOrderID
	link.MerchantOrderID = merchantOrderID
	link.LinkedAt = &now
	link.ExpiresAt = &expiry
	link.ProviderResponse = res.Raw
	link.UpdatedAt = now

	// Transaction record and activation commit together; a racing duplicate
	// activation loses on the partial unique index and surfaces a conflict.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.InternalError(fmt.Errorf("create link transaction: %w", err))
	}
	if err := s.linkRepo.UpdateInTx(ctx, dbTx, link); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.auditSvc.Record(ctx, domain.AuditActionWalletLinked, &link.MerchantID, "wallet_link", link.ID.String(), map[string]any{
		"merchant_order_id": merchantOrderID,
		"transaction_id":    txn.ID.String(),
	})

	s.log.Info().
		Str("wallet_link_id", link.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Msg("wallet link activated")

	return link, nil
}

// Deactivate revokes an active link's token with the provider. On provider
// failure the link stays ACTIVE and the error is surfaced.
func (s *WalletLinkServiceImpl) Deactivate(ctx context.Context, walletLinkID uuid.UUID, reason string) (*domain.WalletLink, error) {
	link, err := s.getLink(ctx, walletLinkID)
	if err != nil {
		return nil, err
	}

	if link.Status != domain.WalletLinkStatusActive {
		return nil, apperror.Validation(fmt.Sprintf("cannot deactivate wallet link with status: %s", link.Status))
	}
	if link.Token == "" {
		return nil, apperror.Validation("wallet link does not have a token")
	}

	prov, err := s.registry.Get(link.Provider)
	if err != nil {
		return nil, err
	}

	res, err := prov.DeactivateLink(ctx, link.Token, link.MobileNumber)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = defaultDeactivationReason
	}

	now := time.Now().UTC()
	link.Status = domain.WalletLinkStatusDeactivated
	link.DeactivatedAt = &now
	link.DeactivationReason = &reason
	link.ProviderResponse = res.Raw
	link.UpdatedAt = now

	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("deactivate wallet link: %w", err))
	}

	s.auditSvc.Record(ctx, domain.AuditActionWalletDeactivated, &link.MerchantID, "wallet_link", link.ID.String(), map[string]any{
		"reason": reason,
	})

	s.log.Info().Str("wallet_link_id", link.ID.String()).Msg("wallet link deactivated")
	return link, nil
}

// SweepExpired flips every ACTIVE link past its expiry to EXPIRED. Driven by
// the periodic sweeper, not per-request.
func (s *WalletLinkServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	affected, err := s.linkRepo.ExpireActiveBefore(ctx, time.Now().UTC())
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("expire wallet links: %w", err))
	}
	if affected > 0 {
		s.log.Info().Int64("expired", affected).Msg("swept expired wallet links")
	}
	return affected, nil
}

// GetByID fetches a wallet link.
func (s *WalletLinkServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error) {
	return s.getLink(ctx, id)
}

// ListByMerchant lists a merchant's wallet links, newest first.
func (s *WalletLinkServiceImpl) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WalletLink, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	links, total, err := s.linkRepo.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list wallet links: %w", err))
	}
	return links, total, nil
}

// ListByMerchantAndMobile lists every link a merchant holds for one mobile
// number, across all statuses.
func (s *WalletLinkServiceImpl) ListByMerchantAndMobile(ctx context.Context, merchantID uuid.UUID, mobileNumber string) ([]domain.WalletLink, error) {
	links, err := s.linkRepo.ListByMerchantAndMobile(ctx, merchantID, mobileNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallet links by mobile: %w", err))
	}
	return links, nil
}

func (s *WalletLinkServiceImpl) getLink(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("wallet link")
	}
	return link, nil
}

// generateLinkOrderID builds a merchant order id for confirmations that did
// not supply one, so the link transaction still gets a unique key.
func generateLinkOrderID() string {
	return fmt.Sprintf("LINK_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
