package social

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingParams      = "social_missing_params"
	TextCodeStateRejected      = "social_state_rejected"
	TextCodeProviderNotFound   = "social_provider_not_found"
	TextCodeConnectorNotFound  = "social_connector_not_found"
	TextCodeMissingAccessToken = "social_missing_access_token"
	TextCodeMissingIdentity    = "social_missing_identity"
	TextCodeTokenExchangeFail  = "social_token_exchange_failed"
	TextCodeUserInfoFail       = "social_user_info_failed"
	TextCodeSessionFail        = "social_session_failed"
)

// ErrMissingParams is returned when the callback lacks code, state, or the
// provider segment.
var ErrMissingParams = errors.New("missing callback parameters", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingParams).
	WithCode(errors.CodeBadRequest)

// ErrStateRejected is returned when the CSRF state is unknown or expired.
var ErrStateRejected = errors.New("oauth state rejected", errors.CategoryBadInput).
	WithTextCode(TextCodeStateRejected).
	WithCode(errors.CodeBadRequest)

// ErrProviderNotFound is returned when no registered provider matches the
// callback's provider code.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrConnectorNotFound is returned when a provider record exists but no
// connector is registered for its code.
var ErrConnectorNotFound = errors.New("provider connector not registered", errors.CategoryNotFound).
	WithTextCode(TextCodeConnectorNotFound).
	WithCode(errors.CodeNotFound)

// ErrMissingAccessToken is returned when the provider answered the exchange
// without an access token.
var ErrMissingAccessToken = errors.New("provider response lacks access token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingAccessToken).
	WithCode(errors.CodeUnauthorized)

// ErrMissingIdentity is returned when the provider's user-info response
// lacks the identity field.
var ErrMissingIdentity = errors.New("provider response lacks identity", errors.CategoryAuth).
	WithTextCode(TextCodeMissingIdentity).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExchangeFailed wraps transport failures during code exchange.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed wraps transport failures while fetching user info.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)

// ErrSessionFailed is returned when the session layer reports no session.
var ErrSessionFailed = errors.New("failed to establish session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionFail).
	WithCode(errors.CodeUnauthorized)

// IsSoftFailure reports whether err is one of the short-circuit outcomes of
// the callback flow: the transaction committed with zero mutations and the
// client should see a 4xx, not a 500.
func IsSoftFailure(err error) bool {
	for _, soft := range []error{
		ErrMissingParams,
		ErrStateRejected,
		ErrProviderNotFound,
		ErrConnectorNotFound,
		ErrMissingAccessToken,
		ErrMissingIdentity,
	} {
		if stderrors.Is(err, soft) {
			return true
		}
	}
	return false
}
