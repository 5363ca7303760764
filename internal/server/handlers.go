package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/bridge"
	"github.com/MeKo-Tech/scanbridge/internal/session"
	"github.com/MeKo-Tech/scanbridge/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// decodeHandler runs the single-image decode path over HTTP. The body is the
// base64 payload, either raw or wrapped in {"image": "..."}.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxPayloadMB*1024*1024)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, DecodeResponse{Error: "unreadable request body"})
		return
	}
	decodePayloadBytes.Observe(float64(len(body)))

	payload := string(body)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Image string `json:"image"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Image == "" {
			s.writeJSON(w, http.StatusBadRequest, DecodeResponse{Error: "missing image field"})
			return
		}
		payload = req.Image
	}

	res, derr := bridge.DecodeImagePayload(payload)
	switch {
	case derr == nil:
		bridgeActionsTotal.WithLabelValues("decode", "completed").Inc()
		s.writeJSON(w, http.StatusOK, DecodeResponse{
			Success: true,
			Result:  &bridge.ScanPayload{Text: res.Text, Format: res.Format.String()},
		})
	case derr.Kind == session.KindDecodeNotFound:
		bridgeActionsTotal.WithLabelValues("decode", "completed").Inc()
		s.writeJSON(w, http.StatusOK, DecodeResponse{Error: derr.Error()})
	case derr.Kind == session.KindInvalidBase64:
		bridgeActionsTotal.WithLabelValues("decode", "error").Inc()
		s.writeJSON(w, http.StatusBadRequest, DecodeResponse{Error: derr.Error()})
	default:
		bridgeActionsTotal.WithLabelValues("decode", "error").Inc()
		s.writeJSON(w, http.StatusInternalServerError, DecodeResponse{Error: derr.Error()})
	}
}

// historyHandler lists recorded scans.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "History not enabled", http.StatusNotFound)
		return
	}

	entries, err := s.history.Entries()
	if err != nil {
		http.Error(w, "Reading history failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Encoding response failed", "error", err)
	}
}
