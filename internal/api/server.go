// Package api provides REST API endpoints for parsed pairing documents.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/DaveBC/pairings/internal/filter"
	"github.com/DaveBC/pairings/internal/pairing"
	"github.com/DaveBC/pairings/internal/parse"
	"github.com/DaveBC/pairings/internal/storage"
)

// DocumentStore is the relational side of the server: accepted documents
// and the ingest audit trail.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *pairing.Document) error
	RecordIngest(ctx context.Context, run storage.IngestRun) (int64, error)
	ListPairings(ctx context.Context, q storage.PairingQuery) ([]pairing.Pairing, error)
	CountPairings(ctx context.Context, monthCode, year, codeshare string) (int, error)
}

// LegAnalytics is the columnar side: per-leg rows for route and fleet
// reporting. Optional; nil disables the analytics endpoints.
type LegAnalytics interface {
	InsertLegs(ctx context.Context, doc *pairing.Document) error
	TopRoutes(ctx context.Context, codeshare string, limit int) ([]storage.RouteCount, error)
	EquipmentUtilization(ctx context.Context) ([]storage.EquipmentCount, error)
}

// FeedPublisher pushes accepted documents to downstream consumers.
// Optional; nil disables publishing.
type FeedPublisher interface {
	PublishDocument(doc *pairing.Document) error
}

// Server provides REST API access to pairing documents.
type Server struct {
	store       DocumentStore
	analytics   LegAnalytics
	feed        FeedPublisher
	logger      zerolog.Logger
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the pairings API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewServer creates a new pairings API server. analytics and feed may be
// nil when those backends are not configured.
func NewServer(store DocumentStore, analytics LegAnalytics, feed FeedPublisher, logger zerolog.Logger, cfg Config) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		store:       store,
		analytics:   analytics,
		feed:        feed,
		logger:      logger,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Mount("/api/v1", s.Router())

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Pairings API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the API routes for embedding in other servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Post("/documents", s.handlePostDocument)
	r.Get("/pairings", s.handleListPairings)
	r.Get("/pairings/{pairing_id}", s.handleGetPairing)
	r.Get("/analytics/routes", s.handleTopRoutes)
	r.Get("/analytics/equipment", s.handleEquipment)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// DocumentResponse summarizes an accepted document.
type DocumentResponse struct {
	MonthCode    string `json:"month_code"`
	Year         string `json:"year"`
	Codeshare    string `json:"codeshare"`
	PairingCount int    `json:"pairing_count"`
}

// RejectionResponse describes why a submitted document was rejected.
// A single malformed field rejects the whole document.
type RejectionResponse struct {
	Error     string `json:"error"`
	PairingID string `json:"pairing_id"`
	Field     string `json:"field"`
	Expected  string `json:"expected"`
	Found     string `json:"found"`
}

func (s *Server) handlePostDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, http.StatusBadRequest, "empty document")
		return
	}

	filename := r.URL.Query().Get("filename")
	ctx := r.Context()

	doc, err := parse.Document(strings.Split(string(body), "\n"))
	if err != nil {
		run := storage.IngestRun{Filename: filename, Status: "rejected"}
		var perr *pairing.ParseError
		resp := RejectionResponse{Error: err.Error()}
		if errors.As(err, &perr) {
			resp.PairingID = perr.PairingID
			resp.Field = perr.Field
			resp.Expected = perr.Expected
			resp.Found = perr.Found
			run.ErrorPairing = perr.PairingID
			run.ErrorDetail = perr.Error()
		} else {
			run.ErrorDetail = err.Error()
		}
		if _, rerr := s.store.RecordIngest(ctx, run); rerr != nil {
			s.logger.Error().Err(rerr).Msg("record rejected ingest")
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.analytics != nil {
		if err := s.analytics.InsertLegs(ctx, doc); err != nil {
			s.logger.Error().Err(err).
				Str("month", doc.MonthCode).Str("year", doc.Year).
				Msg("insert analytics legs")
		}
	}

	if s.feed != nil {
		if err := s.feed.PublishDocument(doc); err != nil {
			s.logger.Error().Err(err).
				Str("codeshare", doc.Codeshare).
				Msg("publish document")
		}
	}

	run := storage.IngestRun{
		Filename:     filename,
		MonthCode:    doc.MonthCode,
		Year:         doc.Year,
		Codeshare:    doc.Codeshare,
		Status:       "accepted",
		PairingCount: len(doc.Pairings),
	}
	if _, err := s.store.RecordIngest(ctx, run); err != nil {
		s.logger.Error().Err(err).Msg("record accepted ingest")
	}

	writeJSON(w, http.StatusCreated, DocumentResponse{
		MonthCode:    doc.MonthCode,
		Year:         doc.Year,
		Codeshare:    doc.Codeshare,
		PairingCount: len(doc.Pairings),
	})
}

// ListResponse is the paginated pairing listing.
type ListResponse struct {
	Count    int               `json:"count"`
	Pairings []pairing.Pairing `json:"pairings"`
}

func (s *Server) handleListPairings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := storage.PairingQuery{
		MonthCode: strings.ToUpper(q.Get("month")),
		Year:      q.Get("year"),
		Codeshare: strings.ToUpper(q.Get("codeshare")),
		Base:      strings.ToUpper(q.Get("base")),
		PairingID: strings.ToUpper(q.Get("id")),
		Limit:     intParam(q.Get("limit"), 100),
		Offset:    intParam(q.Get("offset"), 0),
	}

	pairings, err := s.store.ListPairings(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	crit, err := criteriaFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pairings = filter.Apply(crit, pairings)

	writeJSON(w, http.StatusOK, ListResponse{
		Count:    len(pairings),
		Pairings: pairings,
	})
}

// criteriaFromQuery maps filter query parameters onto filter criteria.
// Parameters the storage query already applied exactly are not repeated.
func criteriaFromQuery(q map[string][]string) (filter.Criteria, error) {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	crit := filter.New()
	crit.ReportAfter = get("report_after")
	crit.ReportBefore = get("report_before")
	crit.OperatingDay = intParam(get("day"), 0)
	crit.MinLegs = intParam(get("min_legs"), 0)
	crit.MaxLegs = intParam(get("max_legs"), 0)
	crit.MinLayover = intParam(get("min_layover"), 0)
	crit.LengthInDays = intParam(get("length"), 0)

	if v := get("max_deadheads"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return crit, errors.New("max_deadheads must be a non-negative integer")
		}
		crit.MaxDeadheads = n
	}
	if v := get("include"); v != "" {
		crit.Include = splitAirports(v)
	}
	if v := get("avoid"); v != "" {
		crit.Avoid = splitAirports(v)
	}

	return crit, nil
}

func splitAirports(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) handleGetPairing(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(chi.URLParam(r, "pairing_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "pairing_id is required")
		return
	}

	q := r.URL.Query()
	query := storage.PairingQuery{
		PairingID: id,
		MonthCode: strings.ToUpper(q.Get("month")),
		Year:      q.Get("year"),
		Codeshare: strings.ToUpper(q.Get("codeshare")),
		Limit:     1,
	}

	pairings, err := s.store.ListPairings(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(pairings) == 0 {
		writeError(w, http.StatusNotFound, "No pairing found")
		return
	}

	writeJSON(w, http.StatusOK, pairings[0])
}

func (s *Server) handleTopRoutes(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "Analytics backend not configured")
		return
	}

	codeshare := strings.ToUpper(r.URL.Query().Get("codeshare"))
	limit := intParam(r.URL.Query().Get("limit"), 20)

	routes, err := s.analytics.TopRoutes(r.Context(), codeshare, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, routes)
}

func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "Analytics backend not configured")
		return
	}

	counts, err := s.analytics.EquipmentUtilization(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
