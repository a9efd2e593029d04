// Package application holds the cache-aside synchronization layer over the
// remote record store.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"implant-cloud/internal/observability/metrics"
	records "implant-cloud/internal/records/domain"
)

// ErrRemoteUnavailable is returned when a remote list fetch fails. The
// previous slot content, if any, is left untouched; the caller decides
// whether to show stale data.
var ErrRemoteUnavailable = errors.New("records: remote unavailable")

// slot is one cache-aside slot: either absent or fully populated, never
// partial. The generation counter orders fetch completions against
// invalidations: a fetch that started before the latest invalidate must not
// repopulate the slot.
type slot[T any] struct {
	mu         sync.Mutex
	records    []T
	present    bool
	generation uint64
}

func getSlot[T any](ctx context.Context, s *slot[T], kind records.Kind, forceRefresh bool, fetch func(context.Context) ([]T, error)) ([]T, error) {
	s.mu.Lock()
	if !forceRefresh && s.present {
		cached := s.records
		s.mu.Unlock()
		metrics.IncCacheHit(string(kind))
		return cached, nil
	}
	generation := s.generation
	s.mu.Unlock()

	metrics.IncCacheMiss(string(kind))
	start := time.Now()
	fetched, err := fetch(ctx)
	if err != nil {
		metrics.ObserveRemoteFetch(string(kind), metrics.ResultError, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	metrics.ObserveRemoteFetch(string(kind), metrics.ResultSuccess, time.Since(start))

	s.mu.Lock()
	if s.generation == generation {
		s.records = fetched
		s.present = true
	}
	s.mu.Unlock()
	return fetched, nil
}

func invalidateSlot[T any](s *slot[T]) {
	s.mu.Lock()
	s.generation++
	s.present = false
	s.records = nil
	s.mu.Unlock()
}

// SyncCache is the single process-wide owner of the two record caches. Every
// record read and mutation routes through it; no component may hold a
// cache-bypassing copy of the record lists, or the invalidation contract
// breaks.
type SyncCache struct {
	store  records.Store
	logger *log.Logger

	calibrations slot[records.CalibrationRecord]
	measurements slot[records.MeasurementRecord]
}

// NewSyncCache constructs the cache over a remote store.
func NewSyncCache(store records.Store, logger *log.Logger) (*SyncCache, error) {
	if store == nil {
		return nil, errors.New("synccache: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SyncCache{store: store, logger: logger}, nil
}

// Calibrations returns the calibration record list, fetching from the remote
// store only on a miss or when forceRefresh is set.
func (c *SyncCache) Calibrations(ctx context.Context, forceRefresh bool) ([]records.CalibrationRecord, error) {
	return getSlot(ctx, &c.calibrations, records.KindCalibration, forceRefresh, c.store.ListCalibrations)
}

// Measurements returns the measurement record list, fetching from the remote
// store only on a miss or when forceRefresh is set.
func (c *SyncCache) Measurements(ctx context.Context, forceRefresh bool) ([]records.MeasurementRecord, error) {
	return getSlot(ctx, &c.measurements, records.KindMeasurement, forceRefresh, c.store.ListMeasurements)
}

// Invalidate marks the kind's slot absent. Any get issued after this returns
// performs a fresh remote fetch, even when an earlier fetch is still in
// flight.
func (c *SyncCache) Invalidate(kind records.Kind) {
	switch kind {
	case records.KindCalibration:
		invalidateSlot(&c.calibrations)
	case records.KindMeasurement:
		invalidateSlot(&c.measurements)
	}
}

// SaveCalibration writes the record through to the remote store and
// invalidates the calibration slot. Failures are local-recoverable: the cache
// is left untouched and false is returned.
func (c *SyncCache) SaveCalibration(ctx context.Context, record records.CalibrationRecord) bool {
	if record.DeviceID == "" || record.Date == "" {
		c.logger.Printf("synccache: rejected calibration save with empty identity")
		metrics.IncSyncOp("save", string(records.KindCalibration), metrics.ResultError)
		return false
	}
	if err := c.store.SaveCalibration(ctx, record); err != nil {
		c.logger.Printf("synccache: save calibration %s: %v", record.DeviceID, err)
		metrics.IncSyncOp("save", string(records.KindCalibration), metrics.ResultError)
		return false
	}
	c.Invalidate(records.KindCalibration)
	metrics.IncSyncOp("save", string(records.KindCalibration), metrics.ResultSuccess)
	return true
}

// SaveMeasurement writes the record through to the remote store and
// invalidates the measurement slot.
func (c *SyncCache) SaveMeasurement(ctx context.Context, record records.MeasurementRecord) bool {
	if record.DeviceID == "" || record.Date == "" {
		c.logger.Printf("synccache: rejected measurement save with empty identity")
		metrics.IncSyncOp("save", string(records.KindMeasurement), metrics.ResultError)
		return false
	}
	if err := c.store.SaveMeasurement(ctx, record); err != nil {
		c.logger.Printf("synccache: save measurement %s: %v", record.DeviceID, err)
		metrics.IncSyncOp("save", string(records.KindMeasurement), metrics.ResultError)
		return false
	}
	c.Invalidate(records.KindMeasurement)
	metrics.IncSyncOp("save", string(records.KindMeasurement), metrics.ResultSuccess)
	return true
}

// Delete removes the device's record of the given kind from the remote store
// and invalidates the slot on success.
func (c *SyncCache) Delete(ctx context.Context, kind records.Kind, deviceID string) bool {
	if !kind.Valid() || deviceID == "" {
		c.logger.Printf("synccache: rejected delete kind=%s device=%q", kind, deviceID)
		metrics.IncSyncOp("delete", string(kind), metrics.ResultError)
		return false
	}
	if err := c.store.Delete(ctx, kind, deviceID); err != nil {
		c.logger.Printf("synccache: delete %s %s: %v", kind, deviceID, err)
		metrics.IncSyncOp("delete", string(kind), metrics.ResultError)
		return false
	}
	c.Invalidate(kind)
	metrics.IncSyncOp("delete", string(kind), metrics.ResultSuccess)
	return true
}

// FindCalibration looks a device's calibration record up through the cache.
func (c *SyncCache) FindCalibration(ctx context.Context, deviceID string) (records.CalibrationRecord, error) {
	list, err := c.Calibrations(ctx, false)
	if err != nil {
		return records.CalibrationRecord{}, err
	}
	for _, record := range list {
		if record.DeviceID == deviceID {
			return record, nil
		}
	}
	return records.CalibrationRecord{}, records.ErrRecordNotFound
}
