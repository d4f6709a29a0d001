package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	customError "github.com/segyhp/collection-engine/pkg/errors"
	"github.com/segyhp/collection-engine/pkg/response"
)

// statusFor maps a business error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case customError.ErrCodeInvalidRequest,
		customError.ErrCodeInvalidLoanTerms,
		customError.ErrCodeInvalidPercentage,
		customError.ErrCodeInvalidPaymentAmount:
		return http.StatusBadRequest
	case customError.ErrCodeLoanNotFound,
		customError.ErrCodeInstallmentNotFound,
		customError.ErrCodeWalletNotFound,
		customError.ErrCodeRouteNotFound,
		customError.ErrCodeExpenseNotFound:
		return http.StatusNotFound
	case customError.ErrCodeForbidden:
		return http.StatusForbidden
	case customError.ErrCodeStaleState:
		return http.StatusConflict
	case customError.ErrCodeLoanNotActive,
		customError.ErrCodeInstallmentAlreadyPaid,
		customError.ErrCodeOutOfOrderPayment,
		customError.ErrCodeOverpayment,
		customError.ErrCodeNothingToReset,
		customError.ErrCodeResetWindowExpired,
		customError.ErrCodeRouteClosed,
		customError.ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal failures are logged and their detail is
// not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		be = customError.NewBusinessError("", "Internal server error", err)
	}

	status := statusFor(be.Code)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.ErrorWithCode(w, status, be.Code, "Internal server error", nil)
		return
	}
	response.ErrorWithCode(w, status, be.Code, be.Message, nil)
}
