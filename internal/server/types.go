package server

import (
	"net/http"

	"github.com/MeKo-Tech/scanbridge/internal/bridge"
	"github.com/MeKo-Tech/scanbridge/internal/history"
)

// Server exposes the bridge over HTTP and websocket transports.
type Server struct {
	adapter      *bridge.Adapter
	history      *history.Store
	corsOrigin   string
	maxPayloadMB int64
	rateLimiter  *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigin   string
	MaxPayloadMB int64

	// Zero limits disable rate limiting.
	RequestsPerMinute int
	MaxDataPerDay     int64
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// DecodeResponse is the /decode payload.
type DecodeResponse struct {
	Success bool                `json:"success"`
	Result  *bridge.ScanPayload `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// HistoryResponse is the /history payload.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// NewServer builds a server over a bridge adapter. history may be nil when
// the history endpoint is not wanted.
func NewServer(cfg Config, adapter *bridge.Adapter, hist *history.Store) *Server {
	var limiter *RateLimiter
	if cfg.RequestsPerMinute > 0 || cfg.MaxDataPerDay > 0 {
		limiter = NewRateLimiter(cfg.RequestsPerMinute, cfg.MaxDataPerDay)
	}
	return &Server{
		adapter:      adapter,
		history:      hist,
		corsOrigin:   cfg.CORSOrigin,
		maxPayloadMB: cfg.MaxPayloadMB,
		rateLimiter:  limiter,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.rateLimitMiddleware(s.decodeHandler)))
	mux.HandleFunc("/history", s.corsMiddleware(s.historyHandler))
	mux.HandleFunc("/bridge", s.bridgeWebSocketHandler)
}
