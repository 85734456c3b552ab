package customer

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

// Handler serves the customer endpoints.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Handler{store: store, logger: logger}
}

// Router mounts the customer endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware)
	r.Use(trust.Middleware)

	r.Get(constants.PathCustomerHealth, h.Health)
	r.Get(constants.PathCustomers+"/{id}", h.Get)
	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, server.NewHealthResponse(constants.CustomerService))
}

// Get returns one customer to its owner or to a customer manager.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller := trust.FromContext(r.Context())
	log := h.logger.WithContext(r.Context()).
		WithRequestID(r.Header.Get(constants.HeaderRequestID)).
		WithUser(caller.Email)

	if !caller.Authenticated() {
		log.Info("Customer lookup without identity", constants.ECSFieldHTTPStatus, http.StatusUnauthorized)
		server.WriteJSON(w, http.StatusUnauthorized, errorResponse{Detail: constants.MsgAuthRequired})
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		server.WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: constants.MsgInvalidIdentifier})
		return
	}

	c, ok := h.store.Get(id)
	if !ok {
		log.Warn("Customer not found", "customer.id", id)
		server.WriteJSON(w, http.StatusNotFound, errorResponse{Detail: constants.MsgCustomerNotFound})
		return
	}

	if !caller.CanAccessOwned(c.Email, constants.RoleCustomerManager) {
		log.Warn("Customer access denied",
			"customer.id", id,
			constants.ECSFieldEventAction, constants.EventActionRecordAccess,
			constants.ECSFieldEventOutcome, constants.EventOutcomeFailure)
		server.WriteJSON(w, http.StatusForbidden, errorResponse{Detail: constants.MsgCustomerForbidden})
		return
	}

	log.Info("Customer access granted",
		"customer.id", id,
		constants.ECSFieldEventAction, constants.EventActionRecordAccess,
		constants.ECSFieldEventOutcome, constants.EventOutcomeSuccess)
	server.WriteJSON(w, http.StatusOK, c)
}
