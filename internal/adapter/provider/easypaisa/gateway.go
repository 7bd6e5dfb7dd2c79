package easypaisa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// ProviderID identifies this gateway in the provider registry.
const ProviderID = "easypaisa"

const (
	pathGenerateOTP     = "/generate-otp"
	pathInitiateLink    = "/initiate-link-transaction"
	pathInitiatePinless = "/initiate-pinless-transaction"
	pathDeactivateLink  = "/deactivate-link"

	// Wallet-to-merchant-account transactions.
	transactionTypeMA = "MA"
)

// Config holds the Easypaisa endpoint credentials and timeouts. Username and
// password travel only in the Credentials header, never inside signed
// payloads.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	StoreID      string
	DefaultEmail string
	// Timeout applies to linking calls; payment-charging calls get
	// Timeout + PaymentExtra because settlement confirmation is slower.
	Timeout      time.Duration
	PaymentExtra time.Duration
}

// HTTPClient is the outbound HTTP dependency, satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway implements ports.WalletProvider against the Easypaisa pinless
// REST protocol. It never retries; retryability is reported on errors for
// the caller to act on.
type Gateway struct {
	cfg        Config
	signer     *Signer
	httpClient HTTPClient
	log        zerolog.Logger
}

// New creates an Easypaisa gateway. Per-call deadlines come from contexts,
// so the shared client carries no timeout of its own.
func New(cfg Config, signer *Signer, httpClient HTTPClient, log zerolog.Logger) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gateway{
		cfg:        cfg,
		signer:     signer,
		httpClient: httpClient,
		log:        log,
	}
}

// ID returns the registry identifier.
func (g *Gateway) ID() string { return ProviderID }

// GenerateOTP requests a one-time password for wallet linking. Only storeId
// and mobileAccountNo are signed; the order id is local bookkeeping.
func (g *Gateway) GenerateOTP(ctx context.Context, mobileNumber, orderID string) (*ports.OTPResult, error) {
	fields := RequestFields{
		{"storeId", g.cfg.StoreID},
		{"mobileAccountNo", mobileNumber},
	}

	g.log.Info().Str("order_id", orderID).Str("mobile", mobileNumber).Msg("generating OTP")

	resp, raw, err := g.post(ctx, pathGenerateOTP, fields, g.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &ports.OTPResult{
		ProviderResult: resp.toResult(raw),
		OTPReference:   resp.OTPReference,
	}, nil
}

// LinkWallet verifies the OTP and links the wallet, yielding the provider
// token.
func (g *Gateway) LinkWallet(ctx context.Context, req ports.LinkWalletRequest) (*ports.LinkResult, error) {
	fields := RequestFields{
		{"orderId", req.OrderID},
		{"storeId", g.cfg.StoreID},
		{"transactionAmount", domain.FormatAmount(req.Amount)},
		{"transactionType", transactionTypeMA},
		{"mobileAccountNo", req.MobileNumber},
		{"emailAddress", g.emailOrDefault(req.EmailAddress)},
		{"otp", req.OTP},
	}

	g.log.Info().Str("order_id", req.OrderID).Msg("initiating link transaction")

	resp, raw, err := g.post(ctx, pathInitiateLink, fields, g.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &ports.LinkResult{
		ProviderResult: resp.toResult(raw),
		Token:          resp.TokenNumber,
	}, nil
}

// ChargePinless debits a previously linked wallet without a PIN.
func (g *Gateway) ChargePinless(ctx context.Context, req ports.PinlessChargeRequest) (*ports.ChargeResult, error) {
	fields := RequestFields{
		{"orderId", req.OrderID},
		{"storeId", g.cfg.StoreID},
		{"transactionAmount", domain.FormatAmount(req.Amount)},
		{"transactionType", transactionTypeMA},
		{"mobileAccountNo", req.MobileNumber},
		{"emailAddress", g.emailOrDefault(req.EmailAddress)},
		{"tokenNumber", req.Token},
	}

	g.log.Info().Str("order_id", req.OrderID).Str("amount", domain.FormatAmount(req.Amount)).Msg("initiating pinless transaction")

	resp, raw, err := g.post(ctx, pathInitiatePinless, fields, g.cfg.Timeout+g.cfg.PaymentExtra)
	if err != nil {
		return nil, err
	}

	return &ports.ChargeResult{
		ProviderResult: resp.toResult(raw),
		TransactionID:  resp.TransactionID,
	}, nil
}

// DeactivateLink revokes a wallet token.
func (g *Gateway) DeactivateLink(ctx context.Context, token, mobileNumber string) (*ports.DeactivateResult, error) {
	fields := RequestFields{
		{"storeId", g.cfg.StoreID},
		{"mobileAccountNo", mobileNumber},
		{"tokenNumber", token},
	}

	g.log.Info().Str("token", domain.MaskToken(token)).Msg("deactivating link")

	resp, raw, err := g.post(ctx, pathDeactivateLink, fields, g.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &ports.DeactivateResult{ProviderResult: resp.toResult(raw)}, nil
}

func (g *Gateway) emailOrDefault(email string) string {
	// Easypaisa rejects a null or empty emailAddress.
	if email == "" {
		return g.cfg.DefaultEmail
	}
	return email
}

// envelope is the wire format: the signed request object plus its signature.
type envelope struct {
	Request   RequestFields `json:"request"`
	Signature string        `json:"signature"`
}

// wireResponse holds the operation-agnostic response fields. Responses
// arrive either top-level or nested under a "response" wrapper key.
type wireResponse struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	OrderID         string `json:"orderId"`
	TokenNumber     string `json:"tokenNumber"`
	TransactionID   string `json:"transactionId"`
	OTPReference    string `json:"otpReference"`
}

type wireEnvelope struct {
	wireResponse
	Response *wireResponse `json:"response"`
}

func (r *wireResponse) toResult(raw []byte) ports.ProviderResult {
	return ports.ProviderResult{
		ResponseCode:    r.ResponseCode,
		ResponseMessage: r.ResponseMessage,
		ProviderOrderID: r.OrderID,
		Raw:             raw,
	}
}

// post signs the field set, performs the HTTP call with a per-call deadline
// and classifies the outcome. A non-"0000" response code returns a
// ProviderRejection; transport failures classify by retryability.
func (g *Gateway) post(ctx context.Context, path string, fields RequestFields, timeout time.Duration) (*wireResponse, []byte, error) {
	signature, err := g.signer.Sign(fields, EncodingBase64)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("sign request: %w", err))
	}

	body, err := json.Marshal(envelope{Request: fields, Signature: signature})
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("marshal request envelope: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Credentials", base64.StdEncoding.EncodeToString([]byte(g.cfg.Username+":"+g.cfg.Password)))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, g.classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, g.classifyTransport(err)
	}

	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err))
	}

	parsed := &env.wireResponse
	if env.Response != nil {
		parsed = env.Response
	}

	if parsed.ResponseCode != SuccessCode {
		g.log.Warn().
			Str("path", path).
			Str("response_code", parsed.ResponseCode).
			Str("response_message", parsed.ResponseMessage).
			Msg("Easypaisa returned error code")
		return nil, nil, classifyCode(parsed.ResponseCode, parsed.ResponseMessage)
	}

	return parsed, raw, nil
}

// classifyTransport maps network failures per the retry contract: timeouts
// are gateway-timeout retryable, connection/DNS failures are
// service-unavailable retryable, everything else is non-retryable.
func (g *Gateway) classifyTransport(err error) *apperror.AppError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		g.log.Warn().Err(err).Msg("Easypaisa call timed out")
		return apperror.ErrProviderTimeout(err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		g.log.Warn().Err(err).Msg("Easypaisa unreachable")
		return apperror.ErrProviderUnavailable(err)
	}

	return apperror.InternalError(err)
}
