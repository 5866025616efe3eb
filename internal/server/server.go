package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/observability"
)

// maxBodyBytes caps an ingest request body.
const maxBodyBytes = 4 << 20

// Server wires the intake, the archive directory and the operational
// endpoints into one chi router.
type Server struct {
	intake     *Intake
	archiveDir string
	apiKey     string
	limiter    *ipLimiter
	logger     *log.Logger
}

// New creates a Server. apiKey empty disables auth; limit/burst bound the
// per-client request rate.
func New(intake *Intake, archiveDir, apiKey string, limit rate.Limit, burst int, logger *log.Logger) *Server {
	return &Server{
		intake:     intake,
		archiveDir: archiveDir,
		apiKey:     apiKey,
		limiter:    newIPLimiter(limit, burst),
		logger:     logger,
	}
}

// Router builds the HTTP surface. Health and metrics stay open; everything
// else goes through rate limiting and auth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(s.rateLimit, s.auth)
		pr.Post("/", s.handleIngest)
		pr.Get("/ws", s.handleWS)
		pr.Get("/archives", s.handleListArchives)
		pr.Get("/archives/{name}", s.handleDownloadArchive)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIngest accepts one RawPayload object or a JSON array of them.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	payloads, err := decodePayloads(body)
	if err != nil {
		observability.RecordPayloadRejected("malformed_json")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	observability.RecordPayloadReceived("http")

	stats, err := s.intake.Ingest(r.Context(), payloads)
	if err != nil {
		var reject *RejectError
		if errors.As(err, &reject) {
			observability.RecordPayloadRejected("validation")
			writeError(w, http.StatusBadRequest, reject.Error())
			return
		}
		s.logger.Printf("[server] ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// decodePayloads parses a single payload object or an array of them.
func decodePayloads(body []byte) ([]domain.RawPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	if trimmed[0] == '[' {
		var payloads []domain.RawPayload
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			return nil, errors.New("malformed payload array: " + err.Error())
		}
		return payloads, nil
	}
	var p domain.RawPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, errors.New("malformed payload: " + err.Error())
	}
	return []domain.RawPayload{p}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
