package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crashsense-ai/crashsense/internal/classify"
	"github.com/crashsense-ai/crashsense/internal/config"
	"github.com/crashsense-ai/crashsense/internal/notify"
	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/telemetry"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// maxBodyBytes bounds the request body; a reading is a few hundred bytes.
const maxBodyBytes = 64 * 1024

// Server wraps the HTTP components for CrashSense.
type Server struct {
	mux        *http.ServeMux
	cfg        *config.Config
	engine     *classify.Engine
	dispatcher *notify.Dispatcher
	telemetry  *telemetry.Provider
	logger     *zap.Logger
	startedAt  time.Time

	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg *config.Config, engine *classify.Engine, dispatcher *notify.Dispatcher, tel *telemetry.Provider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:        mux,
		cfg:        cfg,
		engine:     engine,
		dispatcher: dispatcher,
		telemetry:  tel,
		logger:     logger,
		startedAt:  time.Now(),
	}

	classifyHandler := s.withAPIKey(s.withRateLimit(http.HandlerFunc(s.handleClassify)))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/v1/classify", classifyHandler)

	return s
}

// Start runs the HTTP server on the given address until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("crashsense listening", zap.String("addr", addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// --- request/response types for the HTTP layer ---

type classifyData struct {
	Verdict      verdict.Verdict `json:"verdict"`
	Notification notify.Outcome  `json:"notification"`
}

type classifyResponse struct {
	Success bool          `json:"success"`
	Data    *classifyData `json:"data,omitempty"`
	Error   *errorDetail  `json:"error,omitempty"`
}

type errorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// --- handlers ---

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}

	requestID := uuid.NewString()
	log := s.logger.With(zap.String("request_id", requestID))
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "body", "failed to read request body")
		return
	}

	rd, err := reading.Parse(body)
	if err != nil {
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			log.Info("rejected reading", zap.String("field", verr.Field), zap.String("reason", verr.Reason))
			writeError(w, http.StatusBadRequest, verr.Field, verr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "body", "invalid payload")
		return
	}

	// Classification is total: from here on the request cannot fail, only
	// the response encoding can.
	v := s.engine.Classify(r.Context(), rd)

	outcome := s.dispatcher.MaybeNotify(r.Context(), v, rd.Location)

	durMs := float64(time.Since(start)) / float64(time.Millisecond)
	s.telemetry.RecordRequest(string(v.Severity), v.IsAccident, durMs)
	s.telemetry.RecordNotification(string(outcome.Status))

	log.Info("classified reading",
		zap.Float64("impact", rd.Impact),
		zap.Float64("speed", rd.Speed),
		zap.Float64("tilt", rd.Tilt),
		zap.Bool("accident", v.IsAccident),
		zap.String("severity", string(v.Severity)),
		zap.String("action", string(v.Action)),
		zap.String("notification", string(outcome.Status)),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(classifyResponse{
		Success: true,
		Data:    &classifyData{Verdict: v, Notification: outcome},
	}); err != nil {
		log.Error("failed to write classify response", zap.Error(err))
	}
}

type healthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Notifications notify.Metrics `json:"notifications"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Notifications: s.dispatcher.Snapshot(),
	})
}

func writeError(w http.ResponseWriter, status int, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(classifyResponse{
		Success: false,
		Error:   &errorDetail{Field: field, Message: message},
	})
}
