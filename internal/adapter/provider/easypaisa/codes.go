package easypaisa

import (
	"net/http"

	"wallet-link-gateway/pkg/apperror"
)

// SuccessCode is the Easypaisa response code for a successful operation.
const SuccessCode = "0000"

type codeInfo struct {
	Message    string
	HTTPStatus int
	Retryable  bool
}

// responseCodes maps every documented Easypaisa response code to a local
// message, HTTP-equivalent severity and retryable flag. Codes absent from
// this table classify as a generic non-retryable internal error.
var responseCodes = map[string]codeInfo{
	"0000": {"Success", http.StatusOK, false},
	"0001": {"System error", http.StatusInternalServerError, true},
	"0002": {"Required field missing", http.StatusBadRequest, false},
	"0003": {"Invalid order ID", http.StatusBadRequest, false},
	"0004": {"Invalid merchant account number", http.StatusBadRequest, false},
	"0005": {"Merchant account not active", http.StatusForbidden, false},
	"0006": {"Invalid store ID", http.StatusBadRequest, false},
	"0007": {"Store not active", http.StatusForbidden, false},
	"0008": {"Payment method not enabled", http.StatusBadRequest, false},
	"0009": {"CC transaction failed", http.StatusPaymentRequired, false},
	"0010": {"Invalid credentials", http.StatusUnauthorized, false},
	"0011": {"Wrong PIN entered", http.StatusUnauthorized, false},
	"0012": {"PIN not entered", http.StatusBadRequest, false},
	"0013": {"Low balance", http.StatusPaymentRequired, false},
	"0014": {"Account does not exist", http.StatusNotFound, false},
	"0015": {"Invalid token expiry", http.StatusBadRequest, false},
	"0016": {"Token expired before current", http.StatusBadRequest, false},
	"0017": {"Settlement not configured", http.StatusInternalServerError, false},
	"0018": {"Token already exists", http.StatusConflict, false},
	"0019": {"Token does not exist", http.StatusNotFound, false},
	"0020": {"Pinless not enabled", http.StatusForbidden, false},
	"0021": {"Invalid payment method", http.StatusBadRequest, false},
	"0022": {"JSON invalid", http.StatusBadRequest, false},
	"0023": {"Signature error", http.StatusUnauthorized, false},
	"0024": {"Signature invalid", http.StatusUnauthorized, false},
	"0025": {"Key not uploaded", http.StatusInternalServerError, false},
	"0026": {"Invalid mobile number", http.StatusBadRequest, false},
	"0027": {"Invalid email address", http.StatusBadRequest, false},
	"0028": {"Invalid transaction amount", http.StatusBadRequest, false},
	"0029": {"Transaction amount beyond limits", http.StatusBadRequest, false},
	"0030": {"Invalid OTP", http.StatusBadRequest, false},
	"0031": {"OTP creation failed", http.StatusInternalServerError, true},
	"0032": {"Internal ID does not exist", http.StatusNotFound, false},
	"0033": {"Internal ID incorrect", http.StatusBadRequest, false},
	"0034": {"OTP expired", http.StatusBadRequest, false},
	"0035": {"Link already inactive", http.StatusBadRequest, false},
}

// IsRetryable reports whether a response code is safe to retry.
func IsRetryable(code string) bool {
	return responseCodes[code].Retryable
}

// classifyCode maps a non-success response code to a structured error
// carrying the provider's original code and message.
func classifyCode(code, providerMessage string) *apperror.AppError {
	info, ok := responseCodes[code]
	if !ok {
		return apperror.ProviderRejection(
			http.StatusInternalServerError,
			"Unknown error from Easypaisa",
			code, providerMessage, false,
		)
	}
	return apperror.ProviderRejection(info.HTTPStatus, info.Message, code, providerMessage, info.Retryable)
}
