package errs

import "net/http"

// errorMap holds the client message and HTTP status of every error code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed request body.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrTokenRequestInvalid:  {Code: ErrTokenRequestInvalid, Message: "Invalid token request: %s.", Status: http.StatusBadRequest},
	ErrSessionMismatch:      {Code: ErrSessionMismatch, Message: "Token was issued for a different session.", Status: http.StatusForbidden},
	ErrSessionFull:          {Code: ErrSessionFull, Message: "This session is full.", Status: http.StatusConflict},
	ErrStatusMessageInvalid: {Code: ErrStatusMessageInvalid, Message: "Status update rejected."},
	ErrRecordingNotFound:    {Code: ErrRecordingNotFound, Message: "Recording not found.", Status: http.StatusNotFound},
	ErrFeatureDisabled:      {Code: ErrFeatureDisabled, Message: "This feature is not enabled on the server.", Status: http.StatusNotImplemented},

	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again.", Status: http.StatusForbidden},
	ErrSessionKicked:        {Code: ErrSessionKicked, Message: "You joined this session from another device."},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "A valid session token is required.", Status: http.StatusUnauthorized},
	ErrForbidden:            {Code: ErrForbidden, Message: "Only the session host can do this.", Status: http.StatusForbidden},
	ErrIssuerKeyRequired:    {Code: ErrIssuerKeyRequired, Message: "Host tokens require a valid issuer key.", Status: http.StatusUnauthorized},

	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrIssuerMisconfigured: {Code: ErrIssuerMisconfigured, Message: "Token issuer is not configured.", Status: http.StatusInternalServerError},
	ErrTokenSigningFailed:  {Code: ErrTokenSigningFailed, Message: "Token could not be signed.", Status: http.StatusInternalServerError},
	ErrStorageFailed:       {Code: ErrStorageFailed, Message: "Recording storage is unavailable.", Status: http.StatusBadGateway},
	ErrLedgerFailed:        {Code: ErrLedgerFailed, Message: "Issuance history is unavailable.", Status: http.StatusInternalServerError},
}
