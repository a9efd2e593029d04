// Package sessionhttp exposes the technician-facing session API: calibration
// point selection, diagnosis runs and record saving.
package sessionhttp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	calibration "implant-cloud/internal/calibration/domain"
	"implant-cloud/internal/channelmap"
	recordsapp "implant-cloud/internal/records/application"
	records "implant-cloud/internal/records/domain"
	session "implant-cloud/internal/session/application"
)

// CalibrationSelectHandler advances one bank's two-point selection cycle.
type CalibrationSelectHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewCalibrationSelectHandler constructs a CalibrationSelectHandler.
func NewCalibrationSelectHandler(service *session.Service, logger *log.Logger) *CalibrationSelectHandler {
	return &CalibrationSelectHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /api/v1/calibration/select.
func (h *CalibrationSelectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Bank      string  `json:"bank"`
		Raw       float64 `json:"raw"`
		Reference float64 `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	state, err := h.service.SelectCalibrationPoint(channelmap.Bank(req.Bank), req.Raw, req.Reference)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"bank": req.Bank, "state": state.String()})
}

// CalibrationResetHandler clears one bank's selected points.
type CalibrationResetHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewCalibrationResetHandler constructs a CalibrationResetHandler.
func NewCalibrationResetHandler(service *session.Service, logger *log.Logger) *CalibrationResetHandler {
	return &CalibrationResetHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /api/v1/calibration/reset.
func (h *CalibrationResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Bank string `json:"bank"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.ResetCalibration(channelmap.Bank(req.Bank)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"bank": req.Bank, "state": calibration.StateIdle.String()})
}

// CalibrationSnapshotHandler reports both banks' points and selection state.
type CalibrationSnapshotHandler struct {
	service *session.Service
}

// NewCalibrationSnapshotHandler constructs a CalibrationSnapshotHandler.
func NewCalibrationSnapshotHandler(service *session.Service) *CalibrationSnapshotHandler {
	return &CalibrationSnapshotHandler{service: service}
}

type bankSnapshot struct {
	State string           `json:"state"`
	Min   *calibrationSpot `json:"min,omitempty"`
	Max   *calibrationSpot `json:"max,omitempty"`
}

type calibrationSpot struct {
	Raw       float64 `json:"raw"`
	Reference float64 `json:"reference"`
}

// ServeHTTP handles GET /api/v1/calibration/snapshot.
func (h *CalibrationSnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out := make(map[string]bankSnapshot, 2)
	for bank, cal := range h.service.CalibrationSnapshot() {
		snap := bankSnapshot{State: h.service.SelectionState(bank).String()}
		if cal.Min != nil {
			snap.Min = &calibrationSpot{Raw: cal.Min.Raw, Reference: cal.Min.Reference}
		}
		if cal.Max != nil {
			snap.Max = &calibrationSpot{Raw: cal.Max.Raw, Reference: cal.Max.Reference}
		}
		out[string(bank)] = snap
	}
	writeJSON(w, out)
}

// DiagnosisHandler runs a diagnosis over the active session.
type DiagnosisHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewDiagnosisHandler constructs a DiagnosisHandler.
func NewDiagnosisHandler(service *session.Service, logger *log.Logger) *DiagnosisHandler {
	return &DiagnosisHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /api/v1/diagnosis/run.
func (h *DiagnosisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Origin   string `json:"origin"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	results, err := h.service.Diagnose(r.Context(), session.CalibrationOrigin(req.Origin), req.DeviceID)
	if err != nil {
		h.logger.Printf("diagnosis run: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"deviceId": req.DeviceID, "results": results})
}

// SaveCalibrationHandler persists the session's calibration as a record.
type SaveCalibrationHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewSaveCalibrationHandler constructs a SaveCalibrationHandler.
func NewSaveCalibrationHandler(service *session.Service, logger *log.Logger) *SaveCalibrationHandler {
	return &SaveCalibrationHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /api/v1/session/save-calibration.
func (h *SaveCalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	saved, err := h.service.SaveCalibrationRecord(r.Context(), req.DeviceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !saved {
		h.logger.Printf("save calibration: device %s not persisted", req.DeviceID)
	}
	writeJSON(w, map[string]bool{"saved": saved})
}

// SaveMeasurementHandler diagnoses the session and persists the results.
type SaveMeasurementHandler struct {
	service *session.Service
	logger  *log.Logger
}

// NewSaveMeasurementHandler constructs a SaveMeasurementHandler.
func NewSaveMeasurementHandler(service *session.Service, logger *log.Logger) *SaveMeasurementHandler {
	return &SaveMeasurementHandler{service: service, logger: logger}
}

// ServeHTTP handles POST /api/v1/session/save-measurement.
func (h *SaveMeasurementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DeviceID string `json:"deviceId"`
		Origin   string `json:"origin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	saved, err := h.service.SaveMeasurementRecord(r.Context(), session.CalibrationOrigin(req.Origin), req.DeviceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !saved {
		h.logger.Printf("save measurement: device %s not persisted", req.DeviceID)
	}
	writeJSON(w, map[string]bool{"saved": saved})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, records.ErrRecordNotFound):
		http.Error(w, "calibration record not found", http.StatusNotFound)
	case errors.Is(err, recordsapp.ErrRemoteUnavailable):
		http.Error(w, "remote store unavailable", http.StatusBadGateway)
	case errors.Is(err, session.ErrEmptyDeviceID),
		errors.Is(err, session.ErrNoMeasurements),
		errors.Is(err, session.ErrUnknownOrigin):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
