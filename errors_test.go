package social

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSoftFailure(t *testing.T) {
	for _, err := range []error{
		ErrMissingParams,
		ErrStateRejected,
		ErrProviderNotFound,
		ErrConnectorNotFound,
		ErrMissingAccessToken,
		ErrMissingIdentity,
	} {
		assert.True(t, IsSoftFailure(err), "%v should be a soft failure", err)
	}

	assert.False(t, IsSoftFailure(ErrTokenExchangeFailed))
	assert.False(t, IsSoftFailure(ErrUserInfoFailed))
	assert.False(t, IsSoftFailure(ErrSessionFailed))
	assert.False(t, IsSoftFailure(errors.New("boom")))
	assert.False(t, IsSoftFailure(nil))
}

func TestIsSoftFailureSeesWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("callback rejected: %w", ErrStateRejected)
	assert.True(t, IsSoftFailure(err))
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{
		Provider:    "github",
		Operation:   OpExchange,
		Status:      400,
		Code:        "bad_verification_code",
		Description: "The code is incorrect or expired.",
	}

	assert.Equal(t, "github exchange failed: The code is incorrect or expired.", err.Error())

	codeOnly := &ProviderError{Provider: "github", Operation: OpExchange, Code: "bad_verification_code"}
	assert.Equal(t, "github exchange failed: bad_verification_code", codeOnly.Error())

	bare := &ProviderError{Provider: "github"}
	assert.Equal(t, "github failed", bare.Error())
}

func TestProviderErrorMetadata(t *testing.T) {
	err := &ProviderError{
		Provider:  "google",
		Operation: OpUserInfo,
		Status:    401,
	}

	meta := err.Metadata()
	assert.Equal(t, "google", meta["provider"])
	assert.Equal(t, OpUserInfo, meta["operation"])
	assert.Equal(t, 401, meta["status"])
	assert.NotContains(t, meta, "code")
}

func TestWrapProviderErrorKeepsTextCodeAndMetadata(t *testing.T) {
	cause := &ProviderError{
		Provider:  "github",
		Operation: OpExchange,
		Status:    400,
		Code:      "bad_verification_code",
	}

	wrapped := WrapProviderError(ErrTokenExchangeFailed, "github", OpExchange, cause)
	require.Error(t, wrapped)

	var richErr *goerrors.Error
	require.ErrorAs(t, wrapped, &richErr)
	assert.Equal(t, TextCodeTokenExchangeFail, richErr.TextCode)
	assert.Equal(t, "github", richErr.Metadata["provider"])
	assert.Equal(t, "bad_verification_code", richErr.Metadata["code"])
}

func TestWrapProviderErrorDoesNotMutateSentinel(t *testing.T) {
	before := ErrTokenExchangeFailed.Metadata

	_ = WrapProviderError(ErrTokenExchangeFailed, "github", OpExchange, errors.New("boom"))

	assert.Equal(t, before, ErrTokenExchangeFailed.Metadata)
}

func TestHardFailurePicksSentinelByOperation(t *testing.T) {
	for _, tc := range []struct {
		operation string
		textCode  string
	}{
		{OpExchange, TextCodeTokenExchangeFail},
		{OpUserInfo, TextCodeUserInfoFail},
		{OpSession, TextCodeSessionFail},
	} {
		err := HardFailure("github", tc.operation, errors.New("boom"))

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, tc.textCode, richErr.TextCode)
		assert.Equal(t, tc.operation, richErr.Metadata["operation"])
		assert.False(t, IsSoftFailure(err))
	}
}
