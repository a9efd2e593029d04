// Package devicelink receives completed measurement sessions from the
// device pairing gateway. The wireless framing ends at the gateway; this
// endpoint is the delivery callback that fills the session buffer.
package devicelink

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"implant-cloud/internal/observability/metrics"
	session "implant-cloud/internal/session/application"
)

// IngestHandler handles session delivery from the device link gateway.
type IngestHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *session.Service, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("devicelink ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests a completed measurement session.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("devicelink ingest: read body error: %v", err)
		metrics.IncIngestError("read_body")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Printf("devicelink ingest: decode error: %v", err)
		metrics.IncIngestError("decode")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	readings, err := req.toReadings()
	if err != nil {
		h.logger.Printf("devicelink ingest: invalid payload: %v", err)
		metrics.IncIngestError("payload")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.service.IngestSession(readings); err != nil {
		h.logger.Printf("devicelink ingest: %v", err)
		metrics.IncIngestError("session")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "invalid session", http.StatusBadRequest)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	resp := map[string]any{"device_id": req.DeviceID, "channels": len(readings)}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type ingestRequest struct {
	DeviceID string             `json:"deviceId"`
	Readings map[string]float64 `json:"readings"`
}

func (r ingestRequest) toReadings() (map[int]float64, error) {
	if r.DeviceID == "" {
		return nil, errors.New("missing deviceId")
	}
	if len(r.Readings) == 0 {
		return nil, errors.New("empty readings")
	}
	readings := make(map[int]float64, len(r.Readings))
	for key, value := range r.Readings {
		channel, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.New("channel keys must be integers")
		}
		readings[channel] = value
	}
	return readings, nil
}
