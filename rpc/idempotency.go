package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"raritystake/observability"
	"raritystake/storage/idempotency"
)

const (
	headerIdempotency     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyStore caches responses of mutating calls.
type IdempotencyStore interface {
	Get(key, requestHash string, now time.Time) (idempotency.Record, bool, error)
	Put(key string, record idempotency.Record) error
}

// AttachIdempotency enables Idempotency-Key replay for authenticated methods.
func (s *Server) AttachIdempotency(store IdempotencyStore) {
	s.idem = store
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// serveIdempotent replays a cached response for a retried call or runs the
// handler and caches its successful response. Rejected calls are not cached
// so the client may retry them.
func (s *Server) serveIdempotent(w http.ResponseWriter, r *http.Request, req *RPCRequest, rt route, clientKey string) {
	fingerprint, err := json.Marshal(struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}{req.Method, req.Params})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid params", err.Error())
		return
	}
	key := idempotency.Key(req.Method, clientKey)
	hash := idempotency.RequestHash(fingerprint)
	now := s.now()

	record, found, err := s.idem.Get(key, hash, now)
	switch {
	case errors.Is(err, idempotency.ErrKeyReused):
		writeError(w, http.StatusConflict, req.ID, codeInvalidRequest, "idempotency key reused with a different request", nil)
		return
	case err != nil:
		s.logger.Warn("idempotency lookup failed", slog.String("method", req.Method), slog.Any("error", err))
	case found:
		observability.RPC().Replayed(req.Method)
		w.Header().Set("X-Idempotency-Cache", "hit")
		if record.StatusCode != http.StatusOK {
			w.WriteHeader(record.StatusCode)
		}
		_, _ = w.Write(record.Body)
		return
	}

	capture := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
	rt.handler(capture, r, req)
	if capture.status >= http.StatusBadRequest {
		return
	}
	ttl := s.cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if err := s.idem.Put(key, idempotency.Record{
		Method:      req.Method,
		RequestHash: hash,
		StatusCode:  capture.status,
		Body:        capture.body.Bytes(),
		StoredAt:    now,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		s.logger.Warn("idempotency store failed", slog.String("method", req.Method), slog.Any("error", err))
	}
}
