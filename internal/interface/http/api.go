package http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	domproduct "example.com/product-catalog/internal/domain/product"
	"example.com/product-catalog/internal/infra/telemetry"
	productuc "example.com/product-catalog/internal/usecase/product"
)

//go:embed static/index.html
var indexHTML []byte

type API struct {
	productSvc *productuc.Service
	log        logrus.FieldLogger
	metrics    *telemetry.Metrics
	faultProbe bool
}

type Dependencies struct {
	ProductService *productuc.Service
	Logger         logrus.FieldLogger
	Metrics        *telemetry.Metrics
	// FaultProbe mounts POST /products/raise/exception, which always panics.
	FaultProbe bool
}

func NewAPI(deps Dependencies) *API {
	return &API{
		productSvc: deps.ProductService,
		log:        deps.Logger,
		metrics:    deps.Metrics,
		faultProbe: deps.FaultProbe,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestLogger(&logFormatter{log: a.log}))
	r.Use(a.countRequests)
	r.Use(a.recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, errors.New("the requested URL was not found on the server"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, errors.New("the method is not allowed for the requested URL"))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(indexHTML)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/products", func(r chi.Router) {
		r.Get("/", a.handleListProducts)
		r.With(requireJSON).Post("/", a.handleCreateProduct)
		r.Get("/{id}", a.handleGetProduct)
		r.With(requireJSON).Put("/{id}", a.handleUpdateProduct)
		r.Delete("/{id}", a.handleDeleteProduct)

		if a.faultProbe {
			r.Post("/raise/exception", a.handleRaiseException)
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: err.Error(),
	})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func (a *API) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domproduct.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, domproduct.ErrProductNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, errBodyTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, domproduct.ErrMalformedJSON):
		respondError(w, http.StatusUnsupportedMediaType, err)
	default:
		a.log.WithError(err).
			WithField("request_id", chimw.GetReqID(r.Context())).
			Error("internal server error")
		respondError(w, http.StatusInternalServerError, errInternal)
	}
}

var errInternal = errors.New("the server encountered an internal error and was unable to complete your request")
