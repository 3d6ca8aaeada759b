package social

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

type fakeConnector struct {
	code string
}

func (f *fakeConnector) Code() string { return f.code }

func (f *fakeConnector) AuthorizationURL(provider *Provider, state string) (string, error) {
	return "https://auth.example/" + f.code + "?state=" + state, nil
}

func (f *fakeConnector) ExchangeCode(ctx context.Context, provider *Provider, code string) (*Exchange, error) {
	return &Exchange{AccessToken: "token"}, nil
}

func (f *fakeConnector) UserData(ctx context.Context, provider *Provider, exchange *Exchange) (*UserData, error) {
	return &UserData{Identity: "someone"}, nil
}

func (f *fakeConnector) CheckIdentity(ctx context.Context, tx bun.IDB, provider *Provider, identity string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry(
		WithConnector(&fakeConnector{code: "github"}),
		WithConnector(&fakeConnector{code: "google"}),
	)

	connector := registry.Get("github")
	assert.NotNil(t, connector)
	assert.Equal(t, "github", connector.Code())

	assert.Nil(t, registry.Get("unknown"))
}

func TestRegistrySetReplaces(t *testing.T) {
	registry := NewRegistry()
	assert.False(t, registry.Has("x"))

	registry.Set(&fakeConnector{code: "x"})
	assert.True(t, registry.Has("x"))

	replacement := &fakeConnector{code: "x"}
	registry.Set(replacement)
	assert.Same(t, replacement, registry.Get("x").(*fakeConnector))
}

func TestRegistryCodesSorted(t *testing.T) {
	registry := NewRegistry(
		WithConnector(&fakeConnector{code: "x"}),
		WithConnector(&fakeConnector{code: "github"}),
		WithConnector(&fakeConnector{code: "google"}),
	)

	assert.Equal(t, []string{"github", "google", "x"}, registry.Codes())
}
