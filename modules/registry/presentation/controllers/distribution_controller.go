package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

type DistributionController struct {
	distribution *services.DistributionService
}

func NewDistributionController(app application.Application) application.Controller {
	return &DistributionController{
		distribution: app.Service(services.DistributionService{}).(*services.DistributionService),
	}
}

func (c *DistributionController) Key() string {
	return "/registry/distribution"
}

func (c *DistributionController) Register(r *mux.Router) {
	r.HandleFunc("/registry/orders/distribute", c.Distribute).Methods(http.MethodPost)
	r.HandleFunc("/registry/families/{id:[0-9]+}/autoreturn", c.AutoReturn).Methods(http.MethodPost)
}

func (c *DistributionController) Distribute(w http.ResponseWriter, r *http.Request) {
	if err := c.distribution.DistributeOuterOrders(r.Context()); err != nil {
		writeInternal(w, r, err, "distribution failed")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"distributed": true})
}

func (c *DistributionController) AutoReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err == nil {
		err = c.distribution.ApplyAutoReturn(r.Context(), id)
	}
	switch {
	case err == nil:
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"family_id": id})
	case errors.Is(err, services.ErrInvalidFamily), errors.Is(err, strconv.ErrRange):
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "FAMILY_INVALID_ID", "family id must be a positive integer")
	default:
		writeInternal(w, r, err, "autoreturn failed")
	}
}
