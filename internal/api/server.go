// Package api exposes the risk pipeline over HTTP: scoring, score lookup
// and profile compatibility, authenticated by the X-User-ID header the
// gateway injects.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
	"github.com/carteiralab/risk-engine/internal/service"
)

// Server holds the handler dependencies.
type Server struct {
	svc     *service.Service
	limiter *rate.Limiter
}

// NewServer creates a Server with a process-wide request rate limiter.
func NewServer(svc *service.Service, cfg config.ServerConfig) *Server {
	return &Server{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/risk/indicators", s.handleIndicators)
		r.Post("/risk/score", s.handleScore)
		r.Get("/risk/score/{investmentID}", s.handleLatestScore)
		r.Get("/risk/compatibility/{investmentID}", s.handleCompatibility)
	})

	return r
}

// userIDKey is the context key the auth middleware stores the caller under.
type userIDKey struct{}

// requireUser rejects requests without the X-User-ID header. Upstream
// authentication is the gateway's job; the header is trusted here.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "cabeçalho X-User-ID ausente")
			return
		}
		ctx := contextWithUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "limite de requisições excedido")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scoreRequest is the body of POST /risk/score.
type scoreRequest struct {
	InvestmentID string  `json:"investment_id"`
	Category     string  `json:"category"`
	AssetCode    string  `json:"asset_code"`
	Amount       float64 `json:"amount"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScoreRequest(w, r)
	if !ok {
		return
	}

	ind, err := s.svc.ComputeIndicators(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// decodeScoreRequest validates the shared request body of the indicator and
// scoring endpoints.
func decodeScoreRequest(w http.ResponseWriter, r *http.Request) (service.ScoreRequest, bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return service.ScoreRequest{}, false
	}
	if req.InvestmentID == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "investment_id e category são obrigatórios")
		return service.ScoreRequest{}, false
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount deve ser positivo")
		return service.ScoreRequest{}, false
	}
	return service.ScoreRequest{
		InvestmentID: req.InvestmentID,
		Category:     model.AssetCategory(req.Category),
		AssetCode:    req.AssetCode,
		Amount:       req.Amount,
	}, true
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScoreRequest(w, r)
	if !ok {
		return
	}

	res, err := s.svc.ScoreInvestment(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLatestScore(w http.ResponseWriter, r *http.Request) {
	investmentID := chi.URLParam(r, "investmentID")

	rec, err := s.svc.LatestScore(r.Context(), investmentID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCompatibility(w http.ResponseWriter, r *http.Request) {
	investmentID := chi.URLParam(r, "investmentID")
	userID, _ := userFromContext(r.Context())

	res, err := s.svc.EvaluateCompatibility(r.Context(), userID, investmentID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeServiceError maps pipeline sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case eris.Is(err, risk.ErrInsufficientData),
		eris.Is(err, risk.ErrProfileNotFound),
		eris.Is(err, risk.ErrProfileRangeNotFound),
		eris.Is(err, risk.ErrIndicatorsNotFound):
		writeError(w, http.StatusNotFound, eris.Cause(err).Error())
	case eris.Is(err, risk.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, eris.Cause(err).Error())
	case eris.Is(err, risk.ErrReasoningRateLimited):
		writeError(w, http.StatusTooManyRequests, eris.Cause(err).Error())
	case eris.Is(err, risk.ErrReasoningPaymentRequired):
		writeError(w, http.StatusPaymentRequired, eris.Cause(err).Error())
	default:
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "erro interno")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
