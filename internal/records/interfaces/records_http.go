// Package interfaces exposes the record browser over HTTP: paged listing,
// deletion and report export.
package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"implant-cloud/internal/audit"
	"implant-cloud/internal/auth"
	"implant-cloud/internal/records/application"
	records "implant-cloud/internal/records/domain"
	"implant-cloud/internal/records/query"
)

// ListHandler serves one record kind's paged, filtered listing.
type ListHandler struct {
	cache  *application.SyncCache
	kind   records.Kind
	logger *log.Logger
}

// NewListHandler constructs a ListHandler for the given record kind.
func NewListHandler(cache *application.SyncCache, kind records.Kind, logger *log.Logger) (*ListHandler, error) {
	if cache == nil {
		return nil, errors.New("records list: nil cache")
	}
	if !kind.Valid() {
		return nil, errors.New("records list: invalid kind")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ListHandler{cache: cache, kind: kind, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/records/{calibrations|measurements}.
//
// Query parameters: query (substring filter), sort (date|device_id),
// order (asc|desc), page (zero-based index), refresh (bypass the cache).
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	params := r.URL.Query()
	q := params.Get("query")
	field := query.ParseSortField(params.Get("sort"))
	order := query.ParseSortOrder(params.Get("order"))
	page, _ := strconv.Atoi(params.Get("page"))
	refresh := params.Get("refresh") == "true"

	switch h.kind {
	case records.KindCalibration:
		list, err := h.cache.Calibrations(r.Context(), refresh)
		if err != nil {
			h.writeListError(w, err)
			return
		}
		writeJSON(w, query.Apply(list, q, field, order, page))
	case records.KindMeasurement:
		list, err := h.cache.Measurements(r.Context(), refresh)
		if err != nil {
			h.writeListError(w, err)
			return
		}
		writeJSON(w, query.Apply(list, q, field, order, page))
	}
}

func (h *ListHandler) writeListError(w http.ResponseWriter, err error) {
	h.logger.Printf("records list %s: %v", h.kind, err)
	if errors.Is(err, application.ErrRemoteUnavailable) {
		http.Error(w, "remote store unavailable", http.StatusBadGateway)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// DeleteHandler removes one device's record of a kind.
type DeleteHandler struct {
	cache    *application.SyncCache
	auditLog audit.Logger
	logger   *log.Logger
}

// NewDeleteHandler constructs a DeleteHandler. auditLog may be nil when no
// audit store is configured.
func NewDeleteHandler(cache *application.SyncCache, auditLog audit.Logger, logger *log.Logger) (*DeleteHandler, error) {
	if cache == nil {
		return nil, errors.New("records delete: nil cache")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DeleteHandler{cache: cache, auditLog: auditLog, logger: logger}, nil
}

// ServeHTTP handles DELETE /api/v1/records/{kind}/{deviceId}.
func (h *DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kind, deviceID, ok := parseDeletePath(r.URL.Path)
	if !ok {
		http.Error(w, "expected /api/v1/records/{kind}/{deviceId}", http.StatusBadRequest)
		return
	}
	deleted := h.cache.Delete(r.Context(), kind, deviceID)
	if !deleted {
		h.logger.Printf("records delete: %s %s not removed", kind, deviceID)
	}
	if deleted && h.auditLog != nil {
		entry := audit.Entry{
			ClinicID:     auth.ClinicIDFromContext(r.Context()),
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "record.delete",
			ResourceType: string(kind),
			ResourceID:   deviceID,
			DeviceID:     deviceID,
			IP:           r.RemoteAddr,
			UserAgent:    r.UserAgent(),
		}
		if err := h.auditLog.Log(r.Context(), entry); err != nil {
			h.logger.Printf("records delete audit: %v", err)
		}
	}
	writeJSON(w, map[string]bool{"deleted": deleted})
}

func parseDeletePath(path string) (records.Kind, string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/records/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	var kind records.Kind
	switch parts[0] {
	case "calibrations":
		kind = records.KindCalibration
	case "measurements":
		kind = records.KindMeasurement
	default:
		return "", "", false
	}
	return kind, parts[1], true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
