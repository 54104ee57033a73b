package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"raritystake/core"
	"raritystake/core/events"
	"raritystake/observability"
	"raritystake/observability/logging"
	rskotel "raritystake/observability/otel"
	"raritystake/storage/journal"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	limiterIdleTTL  = 10 * time.Minute
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// EventJournal lists committed ledger events.
type EventJournal interface {
	List(ctx context.Context, eventType string, limit int) ([]journal.Entry, error)
}

// ServerConfig controls authentication and request limits.
type ServerConfig struct {
	AuthToken          string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxBodyBytes       int64
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	// JWTSecret enables HS256 bearer tokens alongside AuthToken.
	JWTSecret string
	JWTIssuer string
	// IdempotencyTTL bounds how long replayable responses are kept.
	IdempotencyTTL time.Duration
}

type sourceLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Server struct {
	node    *core.Node
	journal EventJournal
	feed    *events.Feed
	idem    IdempotencyStore
	logger  *slog.Logger
	cfg     ServerConfig

	methods  map[string]route
	mu       sync.Mutex
	limiters map[string]*sourceLimiter
	now      func() time.Time
}

func NewServer(node *core.Node, store EventJournal, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = maxRequestBytes
	}
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	s := &Server{
		node:     node,
		journal:  store,
		logger:   logger,
		cfg:      cfg,
		limiters: make(map[string]*sourceLimiter),
		now:      time.Now,
	}
	s.methods = s.routes()
	return s
}

// AttachFeed enables the live event stream on /ws/events.
func (s *Server) AttachFeed(feed *events.Feed) {
	s.feed = feed
}

// Handler returns the HTTP surface: JSON-RPC on POST /, the live event
// stream, Prometheus metrics and a liveness probe.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.rateLimit).Post("/", s.handle)
	r.With(s.rateLimit).Get("/ws/events", s.handleEventsWS)
	return otelhttp.NewHandler(r, "raritystake.rpc")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown rpc server: %w", err)
		}
		return nil
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

type route struct {
	handler handlerFunc
	auth    bool
}

func (s *Server) routes() map[string]route {
	return map[string]route{
		"rarity_initialize": {s.handleRarityInitialize, true},
		"rarity_setRoot":    {s.handleRaritySetRoot, true},
		"rarity_get":        {s.handleRarityGet, false},

		"staking_stake":             {s.handleStakingStake, true},
		"staking_unstake":           {s.handleStakingUnstake, true},
		"staking_claim":             {s.handleStakingClaim, true},
		"staking_raffleRoll":        {s.handleStakingRaffleRoll, true},
		"staking_transferOwnership": {s.handleStakingTransferOwnership, true},
		"staking_info":              {s.handleStakingInfo, false},
		"staking_userStaked":        {s.handleStakingUserStaked, false},
		"staking_getRewards":        {s.handleStakingGetRewards, false},
		"staking_raffleResult":      {s.handleStakingRaffleResult, false},
		"staking_owner":             {s.handleStakingOwner, false},
		"staking_status":            {s.handleStakingStatus, false},
		"staking_events":            {s.handleStakingEvents, false},

		"nft_mint":              {s.handleNFTMint, true},
		"nft_setApprovalForAll": {s.handleNFTSetApprovalForAll, true},
		"nft_transferFrom":      {s.handleNFTTransferFrom, true},
		"nft_ownerOf":           {s.handleNFTOwnerOf, false},
		"nft_balanceOf":         {s.handleNFTBalanceOf, false},

		"token_mint":     {s.handleTokenMint, true},
		"token_transfer": {s.handleTokenTransfer, true},
		"token_balance":  {s.handleTokenBalance, false},
		"token_list":     {s.handleTokenList, false},

		"dev_increaseTime": {s.handleDevIncreaseTime, true},
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxBodyBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	rt, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	ctx, span := rskotel.Tracer().Start(r.Context(), "rpc."+req.Method)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	started := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		observability.RPC().Observe(req.Method, recorder.status, time.Since(started))
		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
		}
	}()

	if rt.auth {
		if authErr := s.requireAuth(r); authErr != nil {
			s.logger.Warn("rpc auth rejected",
				slog.String("method", req.Method),
				slog.String("reason", authErr.Message),
				logging.MaskField("authorization", r.Header.Get("Authorization")))
			writeError(recorder, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		if clientKey := strings.TrimSpace(r.Header.Get(headerIdempotency)); clientKey != "" && s.idem != nil {
			s.serveIdempotent(recorder, r.WithContext(ctx), req, rt, clientKey)
			return
		}
	}
	rt.handler(recorder, r.WithContext(ctx), req)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimitPerSecond <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !s.allowSource(clientSource(r)) {
			observability.RPC().Throttled("rate_limit")
			w.Header().Set("Content-Type", "application/json")
			writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowSource(source string) bool {
	if source == "" {
		source = "unknown"
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
	entry, ok := s.limiters[source]
	if !ok {
		burst := s.cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		entry = &sourceLimiter{limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSecond), burst)}
		s.limiters[source] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
