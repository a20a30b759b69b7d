/*
Package errs defines the application error codes and the CustomError type
returned to API clients.
*/
package errs

// 1xxx: request handling errors.
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the Content-Type header is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a syntactically broken or mistyped JSON body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates data after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the body exceeded the size limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the caller is sending requests too fast.
	ErrRateLimitExceeded = 1007
)

// 2xxx: session and token errors.
const (
	// ErrTokenRequestInvalid indicates that a session token request failed validation.
	ErrTokenRequestInvalid = 2001

	// ErrSessionMismatch indicates that a token was issued for a different session.
	ErrSessionMismatch = 2002

	// ErrSessionFull indicates that the session relay reached its participant limit.
	ErrSessionFull = 2003

	// ErrStatusMessageInvalid indicates that a relay status message could not be accepted.
	ErrStatusMessageInvalid = 2101

	// ErrRecordingNotFound indicates that the requested recording object does not exist.
	ErrRecordingNotFound = 2201

	// ErrFeatureDisabled indicates that an optional backend feature is not configured.
	ErrFeatureDisabled = 2301
)

// 3xxx: security errors.
const (
	// ErrPowChallengeRequired indicates the client must complete a proof-of-work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the supplied proof is wrong or its nonce expired.
	ErrPowChallengeInvalid = 3002

	// ErrSessionKicked indicates that the connection was replaced by a newer one.
	ErrSessionKicked = 3004

	// ErrUnauthorized indicates a missing, invalid or expired session token.
	ErrUnauthorized = 3101

	// ErrForbidden indicates that the token's role does not allow the operation.
	ErrForbidden = 3102

	// ErrIssuerKeyRequired indicates a host token request without a valid issuer key.
	ErrIssuerKeyRequired = 3103
)

// 5xxx: internal errors.
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrIssuerMisconfigured indicates that the application credential pair is missing.
	ErrIssuerMisconfigured = 5001

	// ErrTokenSigningFailed indicates an unexpected failure while signing a token.
	ErrTokenSigningFailed = 5002

	// ErrStorageFailed indicates that the recording archive could not be reached.
	ErrStorageFailed = 5003

	// ErrLedgerFailed indicates that the issuance ledger could not be queried.
	ErrLedgerFailed = 5004
)
