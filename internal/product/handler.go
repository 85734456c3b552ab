package product

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
	"github.com/eco2-team/backend/domains/platform-authz/internal/logging"
	"github.com/eco2-team/backend/domains/platform-authz/internal/server"
	"github.com/eco2-team/backend/domains/platform-authz/internal/tracing"
	"github.com/eco2-team/backend/domains/platform-authz/internal/trust"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler serves the product endpoints.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

func NewHandler(catalog *Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// Router mounts the product endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware)
	r.Use(trust.Middleware)

	r.Get(constants.PathProductHealth, h.Health)
	r.Get(constants.PathProducts+"/{id}", h.Get)
	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, server.NewHealthResponse(constants.ProductService))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller := trust.FromContext(r.Context())
	log := h.logger.WithContext(r.Context()).
		WithRequestID(r.Header.Get(constants.HeaderRequestID)).
		WithUser(caller.Email)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		server.WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: constants.MsgInvalidIdentifier})
		return
	}

	p, ok := h.catalog.Get(id)
	if !ok {
		log.Warn("Product not found", "product.id", id)
		server.WriteJSON(w, http.StatusNotFound, errorResponse{Detail: constants.MsgProductNotFound})
		return
	}

	log.Info("Product retrieved", "product.id", id, "product.name", p.Name)
	server.WriteJSON(w, http.StatusOK, p)
}
