package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

const uploadField = "file"

type UploadControllerOptions struct {
	MaxUploadSize int64
	// RateLimit guards both upload routes when set.
	RateLimit mux.MiddlewareFunc
}

type UploadController struct {
	ingestion     *services.IngestionService
	maxUploadSize int64
	rateLimit     mux.MiddlewareFunc
}

func NewUploadController(app application.Application, opts UploadControllerOptions) application.Controller {
	return &UploadController{
		ingestion:     app.Service(services.IngestionService{}).(*services.IngestionService),
		maxUploadSize: opts.MaxUploadSize,
		rateLimit:     opts.RateLimit,
	}
}

func (c *UploadController) Key() string {
	return "/registry/uploads"
}

func (c *UploadController) Register(r *mux.Router) {
	wrap := func(h http.HandlerFunc) http.Handler {
		if c.rateLimit == nil {
			return h
		}
		return c.rateLimit(h)
	}
	r.Handle("/registry/residents/upload", wrap(c.UploadResidents)).Methods(http.MethodPost)
	r.Handle("/registry/orders/upload", wrap(c.UploadOrders)).Methods(http.MethodPost)
}

func (c *UploadController) UploadResidents(w http.ResponseWriter, r *http.Request) {
	name, data, ok := c.readUpload(w, r)
	if !ok {
		return
	}
	report, err := c.ingestion.IngestResidents(r.Context(), name, data)
	if err != nil {
		writeIngestionError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, report)
}

func (c *UploadController) UploadOrders(w http.ResponseWriter, r *http.Request) {
	name, data, ok := c.readUpload(w, r)
	if !ok {
		return
	}
	report, err := c.ingestion.IngestOrders(r.Context(), name, data)
	if err != nil {
		writeIngestionError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, report)
}

func (c *UploadController) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if c.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	}
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		if isTooLarge(err) {
			httpapi.WriteAPIError(w, r, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "upload exceeds the size limit")
			return "", nil, false
		}
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "UPLOAD_INVALID_FORM", "expected a multipart form")
		return "", nil, false
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "UPLOAD_MISSING_FILE", "multipart field \"file\" is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to read upload")
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "UPLOAD_READ_FAILED", "failed to read upload")
		return "", nil, false
	}
	return header.Filename, data, true
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func writeIngestionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyUpload):
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "UPLOAD_EMPTY", err.Error())
	case errors.Is(err, services.ErrFileUnreadable):
		httpapi.WriteAPIError(w, r, http.StatusUnprocessableEntity, "UPLOAD_UNREADABLE", err.Error())
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("ingestion failed")
		httpapi.WriteAPIError(w, r, http.StatusInternalServerError, "INGESTION_INTERNAL", "internal error")
	}
}
