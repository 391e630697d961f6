package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/presentation/mappers"
	"github.com/iota-uz/mishloach/modules/registry/presentation/viewmodels"
	"github.com/iota-uz/mishloach/modules/registry/services"
	"github.com/iota-uz/mishloach/pkg/application"
	"github.com/iota-uz/mishloach/pkg/composables"
	"github.com/iota-uz/mishloach/pkg/httpapi"
)

const (
	defaultPersonsLimit = 20
	maxPersonsLimit     = 100
)

type PersonAPIController struct {
	persons  *services.PersonService
	basePath string
}

func NewPersonAPIController(app application.Application) application.Controller {
	return &PersonAPIController{
		persons:  app.Service(services.PersonService{}).(*services.PersonService),
		basePath: "/registry/api/persons",
	}
}

func (c *PersonAPIController) Key() string {
	return c.basePath
}

func (c *PersonAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
}

func queryInt(r *http.Request, key string, def, upper int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 || (upper > 0 && parsed > upper) {
		return def
	}
	return parsed
}

func (c *PersonAPIController) List(w http.ResponseWriter, r *http.Request) {
	params := &person.FindParams{
		Q:      strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  queryInt(r, "limit", defaultPersonsLimit, maxPersonsLimit),
		Offset: queryInt(r, "offset", 0, 0),
	}
	if params.Limit == 0 {
		params.Limit = defaultPersonsLimit
	}
	items, total, err := c.persons.GetPaginated(r.Context(), params)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list persons")
		httpapi.WriteAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &viewmodels.PersonsPage{
		Items:  mappers.MapAll(items, mappers.PersonToListItem),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (c *PersonAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}
	p, err := c.persons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			httpapi.WriteAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to load person")
		httpapi.WriteAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.PersonToListItem(p))
}

func (c *PersonAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto person.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		httpapi.WriteAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(); !ok {
		message := "validation failed"
		for _, field := range []string{"PersonID", "Lastname", "StreetCode", "Email", "StandingOrder"} {
			if v := strings.TrimSpace(errs[field]); v != "" {
				message = v
				break
			}
		}
		httpapi.WriteAPIError(w, r, http.StatusUnprocessableEntity, "PERSON_VALIDATION_FAILED", message)
		return
	}

	created, err := c.persons.Create(r.Context(), &dto)
	if err != nil {
		switch {
		case errors.Is(err, person.ErrIDTaken):
			httpapi.WriteAPIError(w, r, http.StatusConflict, "PERSON_ID_CONFLICT", "personid already exists")
		case errors.Is(err, person.ErrUnknownStreet):
			httpapi.WriteAPIError(w, r, http.StatusUnprocessableEntity, "PERSON_UNKNOWN_STREET", "streetcode does not exist")
		default:
			composables.UseLogger(r.Context()).WithError(err).Error("failed to create person")
			httpapi.WriteAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		}
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, mappers.PersonToListItem(created))
}
