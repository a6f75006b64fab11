package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/goker-dev/ledger/internal/clients"
	"github.com/goker-dev/ledger/internal/services"
)

// Server exposes the ledger API over HTTP. Every request recomputes from
// freshly fetched data; no state is shared between requests.
type Server struct {
	addr       string
	ingestion  *services.IngestionService
	timeline   *services.TimelineService
	calculator *services.PnlCalculator
	logger     *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, ingestion *services.IngestionService, timeline *services.TimelineService,
	calculator *services.PnlCalculator, logger *zap.Logger) *Server {
	return &Server{
		addr:       addr,
		ingestion:  ingestion,
		timeline:   timeline,
		calculator: calculator,
		logger:     logger,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/timeline", s.handleTimeline)
	mux.HandleFunc("/pnl", s.handlePnlSummary)
	mux.HandleFunc("/pnl/daily", s.handleDailyPnl)
	mux.HandleFunc("/fills", s.handleFills)
	mux.HandleFunc("/funding", s.handleFunding)

	return s.withAccessLog(s.withCORS(mux))
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	wallet, since, ok := s.walletParams(w, r)
	if !ok {
		return
	}

	fills, funding, err := s.ingestion.FetchActivity(r.Context(), wallet, since)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.timeline.BuildTimeline(wallet, fills, funding))
}

func (s *Server) handlePnlSummary(w http.ResponseWriter, r *http.Request) {
	wallet, since, ok := s.walletParams(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	fills, funding, err := s.ingestion.FetchActivity(ctx, wallet, since)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.ingestion.FetchUserState(ctx, wallet)
	if err != nil {
		s.writeError(w, err)
		return
	}

	timeline := s.timeline.BuildTimeline(wallet, fills, funding)
	unrealized := s.calculator.UnrealizedFromState(state)
	summary := s.calculator.CalculateSummary(wallet, timeline, unrealized)

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDailyPnl(w http.ResponseWriter, r *http.Request) {
	wallet, since, ok := s.walletParams(w, r)
	if !ok {
		return
	}

	fills, funding, err := s.ingestion.FetchActivity(r.Context(), wallet, since)
	if err != nil {
		s.writeError(w, err)
		return
	}

	timeline := s.timeline.BuildTimeline(wallet, fills, funding)
	s.writeJSON(w, http.StatusOK, s.calculator.CalculateDaily(timeline))
}

func (s *Server) handleFills(w http.ResponseWriter, r *http.Request) {
	wallet, since, ok := s.walletParams(w, r)
	if !ok {
		return
	}

	fills, err := s.ingestion.FetchAllFills(r.Context(), wallet, since)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fills)
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	wallet, since, ok := s.walletParams(w, r)
	if !ok {
		return
	}

	funding, err := s.ingestion.FetchAllFunding(r.Context(), wallet, since)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, funding)
}

// walletParams validates the wallet query parameter (an EVM address) and
// reads the optional since bound. A malformed since is ignored, not an error.
func (s *Server) walletParams(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		s.writeErrorStatus(w, http.StatusBadRequest, "wallet query parameter is required")
		return "", 0, false
	}
	if !common.IsHexAddress(wallet) {
		s.writeErrorStatus(w, http.StatusBadRequest, "wallet is not a valid address")
		return "", 0, false
	}

	since, err := cast.ToInt64E(r.URL.Query().Get("since"))
	if err != nil || since < 0 {
		since = 0
	}
	return wallet, since, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, clients.ErrUpstream) {
		status = http.StatusBadGateway
	}
	s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	s.writeErrorStatus(w, status, err.Error())
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info("request",
			zap.String("request_id", uuid.NewString()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
