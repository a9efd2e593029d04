package interfaces

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"implant-cloud/internal/observability/metrics"
	"implant-cloud/internal/records/application"
)

// ExportHandler serves a device's measurement record as a downloadable
// report.
type ExportHandler struct {
	cache  *application.SyncCache
	logger *log.Logger
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(cache *application.SyncCache, logger *log.Logger) (*ExportHandler, error) {
	if cache == nil {
		return nil, errors.New("records export: nil cache")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportHandler{cache: cache, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/exports/measurements/{deviceId}.{xlsx|pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deviceID, format, ok := parseExportPath(r.URL.Path)
	if !ok {
		http.Error(w, "expected /api/v1/exports/measurements/{deviceId}.{xlsx|pdf}", http.StatusBadRequest)
		return
	}
	start := time.Now()

	list, err := h.cache.Measurements(r.Context(), false)
	if err != nil {
		h.logger.Printf("records export: %v", err)
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		if errors.Is(err, application.ErrRemoteUnavailable) {
			http.Error(w, "remote store unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	idx := -1
	for i := range list {
		if list[i].DeviceID == deviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "measurement record not found", http.StatusNotFound)
		return
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case "xlsx":
		payload, err = BuildMeasurementXLSX(list[idx])
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = BuildMeasurementPDF(list[idx])
		contentType = "application/pdf"
	}
	if err != nil {
		h.logger.Printf("records export %s: %v", format, err)
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", deviceID+"."+format))
	_, _ = w.Write(payload)
}

func parseExportPath(path string) (deviceID, format string, ok bool) {
	rest := strings.TrimPrefix(path, "/api/v1/exports/measurements/")
	if rest == path || rest == "" || strings.Contains(rest, "/") {
		return "", "", false
	}
	dot := strings.LastIndex(rest, ".")
	if dot <= 0 {
		return "", "", false
	}
	deviceID, format = rest[:dot], rest[dot+1:]
	if format != "xlsx" && format != "pdf" {
		return "", "", false
	}
	return deviceID, format, true
}
