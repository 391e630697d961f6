package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

type ResetController struct {
	reset *services.ResetService
}

func NewResetController(app application.Application) application.Controller {
	return &ResetController{
		reset: app.Service(services.ResetService{}).(*services.ResetService),
	}
}

func (c *ResetController) Key() string {
	return "/registry/reset"
}

func (c *ResetController) Register(r *mux.Router) {
	r.HandleFunc("/registry/reset", c.Reset).Methods(http.MethodPost)
}

func (c *ResetController) Reset(w http.ResponseWriter, r *http.Request) {
	if err := c.reset.Reset(r.Context()); err != nil {
		writeInternal(w, r, err, "registry reset failed")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"reset": true})
}
