package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/mishloach/pkg/application"
)

type stubModule struct {
	name         string
	registerErr  error
	registered   bool
	bootstrapped bool
}

func (m *stubModule) Name() string { return m.name }

func (m *stubModule) Register(application.Application) error {
	m.registered = true
	return m.registerErr
}

type bootstrappingModule struct{ stubModule }

func (m *bootstrappingModule) Bootstrap(context.Context, application.Application) error {
	m.bootstrapped = true
	return nil
}

func TestLoad_StopsAtFirstError(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	failing := &stubModule{name: "failing", registerErr: errors.New("boom")}
	after := &stubModule{name: "after"}

	err := Load(app, failing, after)
	require.ErrorContains(t, err, "register module failing")
	require.False(t, after.registered)
}

func TestBootstrap_OnlyBootstrappers(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	plain := &stubModule{name: "plain"}
	seeded := &bootstrappingModule{stubModule{name: "seeded"}}

	require.NoError(t, Bootstrap(context.Background(), app, plain, seeded))
	require.True(t, seeded.bootstrapped)
	require.False(t, plain.bootstrapped)
}
