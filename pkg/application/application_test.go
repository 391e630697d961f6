package application

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

type stubController struct {
	key  string
	hits int
}

func (c *stubController) Key() string { return c.key }

func (c *stubController) Register(r *mux.Router) {
	r.HandleFunc(c.key, func(http.ResponseWriter, *http.Request) { c.hits++ })
}

func TestApplication_ServiceRegistry(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterServices(&greeter{name: "registry"})

	got := app.Service(greeter{}).(*greeter)
	require.Equal(t, "registry", got.name)
	require.Len(t, app.Services(), 1)

	require.Panics(t, func() { app.Service(stubController{}) })
}

func TestApplication_ControllersKeepRegistrationOrder(t *testing.T) {
	app := New(&ApplicationOptions{})
	first := &stubController{key: "/b"}
	second := &stubController{key: "/a"}
	replacement := &stubController{key: "/b"}

	app.RegisterControllers(first, second)
	app.RegisterControllers(replacement)

	controllers := app.Controllers()
	require.Len(t, controllers, 2)
	require.Same(t, replacement, controllers[0])
	require.Same(t, second, controllers[1])
}
