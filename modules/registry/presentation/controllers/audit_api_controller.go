package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/presentation/mappers"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

// AuditAPIController serves the ingestion logs and the dashboard counters.
type AuditAPIController struct {
	audit    *services.AuditService
	reports  *services.ReportService
	basePath string
}

func NewAuditAPIController(app application.Application) application.Controller {
	return &AuditAPIController{
		audit:    app.Service(services.AuditService{}).(*services.AuditService),
		reports:  app.Service(services.ReportService{}).(*services.ReportService),
		basePath: "/registry/api",
	}
}

func (c *AuditAPIController) Key() string {
	return c.basePath
}

func (c *AuditAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/missing-streets", c.MissingStreets).Methods(http.MethodGet)
	router.HandleFunc("/outcomes/{batch}", c.Outcomes).Methods(http.MethodGet)
	router.HandleFunc("/streets", c.Streets).Methods(http.MethodGet)
	router.HandleFunc("/stats", c.Stats).Methods(http.MethodGet)
	router.HandleFunc("/outer-order-errors", c.OuterOrderErrors).Methods(http.MethodGet)
	router.HandleFunc("/person-archive", c.PersonArchive).Methods(http.MethodGet)
}

func (c *AuditAPIController) MissingStreets(w http.ResponseWriter, r *http.Request) {
	items, err := c.audit.MissingStreets(r.Context(), queryInt(r, "limit", 0, 0))
	if err != nil {
		writeInternal(w, r, err, "failed to list missing streets")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": mappers.MapAll(items, mappers.MissingStreetToViewModel),
	})
}

func (c *AuditAPIController) Outcomes(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(mux.Vars(r)["batch"])
	if err != nil {
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "BATCH_INVALID_ID", "batch id must be a uuid")
		return
	}
	items, err := c.audit.Outcomes(r.Context(), batchID)
	if err != nil {
		writeInternal(w, r, err, "failed to list outcomes")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"items":    mappers.MapAll(items, mappers.OutcomeToViewModel),
	})
}

func (c *AuditAPIController) Streets(w http.ResponseWriter, r *http.Request) {
	items, err := c.audit.Streets(r.Context())
	if err != nil {
		writeInternal(w, r, err, "failed to list streets")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": mappers.MapAll(items, mappers.StreetToViewModel),
	})
}

func (c *AuditAPIController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.reports.Stats(r.Context())
	if err != nil {
		writeInternal(w, r, err, "failed to compute stats")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, stats)
}

func (c *AuditAPIController) OuterOrderErrors(w http.ResponseWriter, r *http.Request) {
	table, err := c.reports.OuterOrderErrors(r.Context(), queryInt(r, "limit", 0, 0))
	if err != nil {
		writeInternal(w, r, err, "failed to list outer order errors")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, table)
}

func (c *AuditAPIController) PersonArchive(w http.ResponseWriter, r *http.Request) {
	table, err := c.reports.PersonArchive(r.Context(), queryInt(r, "limit", 0, 0))
	if err != nil {
		writeInternal(w, r, err, "failed to list person archive")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, table)
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	composables.UseLogger(r.Context()).WithError(err).Error(msg)
	httpapi.WriteAPIError(w, r, http.StatusInternalServerError, "REGISTRY_INTERNAL", "internal error")
}
