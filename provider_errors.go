package social

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Connector operations, used to tag provider failures and to pick the
// sentinel a hard failure is wrapped in.
const (
	OpExchange = "exchange"
	OpUserInfo = "user_info"
	OpSession  = "session"
)

// ProviderError carries the normalized details of a provider response
// that could not be used: which provider and operation, the HTTP status,
// and the error code and description the provider reported.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	var b strings.Builder
	switch {
	case e.Provider != "" && e.Operation != "":
		b.WriteString(e.Provider)
		b.WriteByte(' ')
		b.WriteString(e.Operation)
	case e.Provider != "":
		b.WriteString(e.Provider)
	case e.Operation != "":
		b.WriteString(e.Operation)
	default:
		b.WriteString("provider")
	}

	b.WriteString(" failed")
	if detail := e.detail(); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}

	return b.String()
}

// detail picks the most specific description available.
func (e *ProviderError) detail() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Code != "":
		return e.Code
	case e.Err != nil:
		return e.Err.Error()
	}
	return ""
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata flattens the error into the key/value shape go-errors carries
// alongside its message.
func (e *ProviderError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if len(e.Raw) > 0 {
		meta["raw"] = e.Raw
	}

	return meta
}

// HardFailure wraps a connector failure in the sentinel matching its
// operation. These are the rollback-and-500 outcomes, as opposed to the
// soft short circuits matched by IsSoftFailure.
func HardFailure(provider, operation string, err error) error {
	base := ErrTokenExchangeFailed
	switch operation {
	case OpUserInfo:
		base = ErrUserInfoFailed
	case OpSession:
		base = ErrSessionFailed
	}

	return WrapProviderError(base, provider, operation, err)
}

// WrapProviderError clones the sentinel, records err as its source, and
// attaches provider and response details as metadata. The sentinel itself
// is never mutated: errors.Is against it keeps working and concurrent
// callbacks do not share metadata.
func WrapProviderError(base *goerrors.Error, provider, operation string, err error) error {
	if base == nil {
		return err
	}

	meta := map[string]any{}
	var perr *ProviderError
	switch {
	case errors.As(err, &perr) && perr != nil:
		meta = perr.Metadata()
	case err != nil:
		meta["error"] = err.Error()
	}
	if provider != "" {
		meta["provider"] = provider
	}
	if operation != "" {
		meta["operation"] = operation
	}

	wrapped := base.Clone()
	if wrapped == nil {
		wrapped = base
	}
	if err != nil {
		wrapped.Source = err
	}
	if len(meta) > 0 {
		wrapped.WithMetadata(meta)
	}

	return wrapped
}
