package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"riskboard/internal/domain"
	"riskboard/internal/ports"
)

// Server exposes the risk aggregator over REST.
type Server struct {
	risks  ports.RiskService
	health ports.HealthChecker
	log    *zap.Logger
}

// New wires the handlers. A nil health checker makes /healthz liveness-only.
func New(risks ports.RiskService, health ports.HealthChecker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{risks: risks, health: health, log: log}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/apps/{appId}", func(r chi.Router) {
		r.Post("/risks", s.postManualRisk)
		r.Post("/evidence-risks", s.postEvidenceRisk)
		r.Get("/risk-items", s.getAppRiskItems)
	})
	r.Route("/risk-items/{id}", func(r chi.Router) {
		r.Get("/", s.getRiskItem)
		r.Put("/status", s.putRiskItemStatus)
	})
	r.Route("/domain-risks/{id}", func(r chi.Router) {
		r.Get("/", s.getDomainRisk)
		r.Get("/items", s.getDomainRiskItems)
		r.Post("/reassign", s.postReassign)
		r.Put("/status", s.putDomainRiskStatus)
		r.Post("/recalculate", s.postRecalculate)
	})
	r.Get("/arbs/{arb}/domain-risks", s.getARBQueue)
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathParam binds a required simple-style path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	return v, err
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// writeError maps domain sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
