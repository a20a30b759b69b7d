package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/logx"
)

// CustomError is the error shape returned to API and relay clients: a business
// code, a client-safe message and the HTTP status to answer with.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a CustomError for code. details fill printf verbs in the
// message template; unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(errors.New("unknown error code"), "NewError called with an unmapped code", "requested_code", code)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) == 0 {
		return &customErr
	}

	if code == ErrUnknown {
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
		return &customErr
	}

	if strings.Contains(customErr.Message, "%") {
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	} else {
		logx.Warn("Error details ignored: message template has no placeholders", "code", code)
	}

	return &customErr
}

// FromIssuance maps token issuance and verification failures to client errors.
func FromIssuance(err error) *CustomError {
	var (
		cfgErr  *jwt.ConfigurationError
		valErr  *jwt.ValidationError
		signErr *jwt.SigningError
	)

	switch {
	case err == nil:
		return nil
	case errors.As(err, &cfgErr):
		logx.Error(err, "Session token issuer is misconfigured")
		return NewError(ErrIssuerMisconfigured)
	case errors.As(err, &valErr):
		return NewError(ErrTokenRequestInvalid, valErr.Field+" "+valErr.Reason)
	case errors.As(err, &signErr):
		logx.Error(err, "Session token signing failed")
		return NewError(ErrTokenSigningFailed)
	case errors.Is(err, jwt.ErrMalformedToken),
		errors.Is(err, jwt.ErrInvalidSignature),
		errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotYetValid),
		errors.Is(err, jwt.ErrForeignAppKey):
		return NewError(ErrUnauthorized)
	default:
		return NewError(ErrUnknown, err)
	}
}
