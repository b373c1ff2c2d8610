// Package api provides the HTTP server for the SafeRent core.
// It is the in-memory boundary to the excluded presentation layer:
// submissions and validator commands come in, certificates and
// verification verdicts go out.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saferent-network/saferent/internal/app/certify"
	"github.com/saferent-network/saferent/internal/app/ledger"
	"github.com/saferent-network/saferent/internal/app/requests"
	"github.com/saferent-network/saferent/internal/app/validation"
)

// Server is the SafeRent HTTP API server.
type Server struct {
	requests       *requests.Store
	engine         *validation.Engine
	notices        *validation.Notices
	chain          *ledger.Chain
	issuer         *certify.Issuer
	verifier       *certify.Service
	metricsEnabled bool
}

// NewServer creates a new API server over the wired core components.
func NewServer(store *requests.Store, engine *validation.Engine, notices *validation.Notices, chain *ledger.Chain) *Server {
	return &Server{
		requests: store,
		engine:   engine,
		notices:  notices,
		chain:    chain,
		issuer:   certify.NewIssuer(chain),
		verifier: certify.NewService(chain),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Student-facing lifecycle
		r.Post("/submissions", s.handleSubmit)
		r.Get("/notifications/{studentID}", s.handleNotification)
		r.Delete("/notifications/{studentID}", s.handleDismissNotification)
		r.Get("/certificates/{studentID}", s.handleCertificate)

		// Validator decisions (credential required)
		r.Get("/requests", s.handleListRequests)
		r.Post("/requests/{studentID}/accept", s.handleAccept)
		r.Post("/requests/{studentID}/reject", s.handleReject)

		// Relying-party verification
		r.Post("/verify", s.handleVerify)

		// Ledger transparency
		r.Get("/chain", s.handleChain)
		r.Get("/chain/verify", s.handleChainAudit)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// credential extracts the validator credential from the request.
func credential(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return auth
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the separately hosted UI.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
