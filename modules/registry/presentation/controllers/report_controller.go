package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(app application.Application) application.Controller {
	return &ReportController{
		reports: app.Service(services.ReportService{}).(*services.ReportService),
	}
}

func (c *ReportController) Key() string {
	return "/registry/reports"
}

func (c *ReportController) Register(r *mux.Router) {
	r.HandleFunc("/registry/reports/{view}", c.Query).Methods(http.MethodGet)
	r.HandleFunc("/registry/exports/{view}.{format:csv|xlsx}", c.Export).Methods(http.MethodGet)
}

func (c *ReportController) Query(w http.ResponseWriter, r *http.Request) {
	table, err := c.reports.Query(r.Context(), mux.Vars(r)["view"], strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		writeReportError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, table)
}

func (c *ReportController) Export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, format := vars["view"], vars["format"]
	table, err := c.reports.Export(r.Context(), view)
	if err != nil {
		writeReportError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view+"."+format))
	if format == "xlsx" {
		w.Header().Set("Content-Type", xlsxContentType)
		err = services.WriteXLSX(w, table)
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = services.WriteCSV(w, table)
	}
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).WithField("view", view).Error("export write failed")
	}
}

func writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrUnknownView) {
		httpapi.WriteAPIError(w, r, http.StatusNotFound, "REPORT_UNKNOWN_VIEW", err.Error())
		return
	}
	writeInternal(w, r, err, "report query failed")
}
