package error

import (
	"github.com/0xsj/overwatch-pkg/errors"
)

// Domain error codes
const (
	// Client errors
	CodeClientNotFound     errors.Code = "CLIENT_NOT_FOUND"
	CodeClientNameRequired errors.Code = "CLIENT_NAME_REQUIRED"
	CodeIdentityRequired   errors.Code = "IDENTITY_REQUIRED"
	CodeIdentityConflict   errors.Code = "IDENTITY_CONFLICT"

	// Principal errors
	CodePrincipalRequired   errors.Code = "PRINCIPAL_REQUIRED"
	CodeAuthorityIDRequired errors.Code = "AUTHORITY_ID_REQUIRED"

	// Session errors
	CodeSessionNotFound   errors.Code = "SESSION_NOT_FOUND"
	CodeSessionIDRequired errors.Code = "SESSION_ID_REQUIRED"
	CodeNotLoggedIn       errors.Code = "NOT_LOGGED_IN"

	// OAuth errors
	CodeOAuthProviderUnknown      errors.Code = "OAUTH_PROVIDER_UNKNOWN"
	CodeOAuthStateInvalid         errors.Code = "OAUTH_STATE_INVALID"
	CodeOAuthCodeRequired         errors.Code = "OAUTH_CODE_REQUIRED"
	CodeOAuthCodeExchangeFailed   errors.Code = "OAUTH_CODE_EXCHANGE_FAILED"
	CodeOAuthProviderRejectedAuth errors.Code = "OAUTH_PROVIDER_REJECTED"
)

// Client errors
var (
	ErrClientNotFound = errors.New(errors.KindNotFound, CodeClientNotFound, "client not found")

	ErrClientNameRequired = errors.New(errors.KindValidation, CodeClientNameRequired, "name is required")

	ErrIdentityRequired = errors.New(errors.KindValidation, CodeIdentityRequired, "identity is required")

	ErrIdentityConflict = errors.New(errors.KindConflict, CodeIdentityConflict, "someone else uses this name")
)

// Principal errors
var (
	ErrPrincipalRequired = errors.New(errors.KindUnauthorized, CodePrincipalRequired, "authenticated principal is required")

	ErrAuthorityIDRequired = errors.New(errors.KindValidation, CodeAuthorityIDRequired, "principal authority is required")
)

// Session errors
var (
	ErrSessionNotFound = errors.New(errors.KindNotFound, CodeSessionNotFound, "session not found")

	ErrSessionIDRequired = errors.New(errors.KindValidation, CodeSessionIDRequired, "session ID is required")

	ErrNotLoggedIn = errors.New(errors.KindNotFound, CodeNotLoggedIn, "session is not logged in")
)

// OAuth errors
var (
	ErrOAuthProviderUnknown = errors.New(errors.KindValidation, CodeOAuthProviderUnknown, "unknown oauth provider")

	ErrOAuthStateInvalid = errors.New(errors.KindUnauthorized, CodeOAuthStateInvalid, "oauth state is invalid")

	ErrOAuthCodeRequired = errors.New(errors.KindValidation, CodeOAuthCodeRequired, "authorization code is required")

	ErrOAuthCodeExchangeFailed = errors.New(errors.KindUnauthorized, CodeOAuthCodeExchangeFailed, "failed to exchange authorization code")

	ErrOAuthProviderRejectedAuth = errors.New(errors.KindUnauthorized, CodeOAuthProviderRejectedAuth, "oauth provider rejected the authorization request")
)
