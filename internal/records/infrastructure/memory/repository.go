// Package memory provides an in-memory record store for demo and testing.
package memory

import (
	"context"
	"sync"

	records "implant-cloud/internal/records/domain"
)

// RecordStore is an in-memory implementation of the remote record store.
type RecordStore struct {
	mu           sync.RWMutex
	calibrations map[string]records.CalibrationRecord
	measurements map[string]records.MeasurementRecord
}

// NewRecordStore constructs an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		calibrations: make(map[string]records.CalibrationRecord),
		measurements: make(map[string]records.MeasurementRecord),
	}
}

// ListCalibrations returns all calibration records.
func (s *RecordStore) ListCalibrations(ctx context.Context) ([]records.CalibrationRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]records.CalibrationRecord, 0, len(s.calibrations))
	for _, record := range s.calibrations {
		result = append(result, record)
	}
	return result, nil
}

// ListMeasurements returns all measurement records.
func (s *RecordStore) ListMeasurements(ctx context.Context) ([]records.MeasurementRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]records.MeasurementRecord, 0, len(s.measurements))
	for _, record := range s.measurements {
		result = append(result, record)
	}
	return result, nil
}

// SaveCalibration upserts a calibration record by device ID.
func (s *RecordStore) SaveCalibration(ctx context.Context, record records.CalibrationRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibrations[record.DeviceID] = record
	return nil
}

// SaveMeasurement upserts a measurement record by device ID.
func (s *RecordStore) SaveMeasurement(ctx context.Context, record records.MeasurementRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[record.DeviceID] = record
	return nil
}

// Delete removes the device's record of the given kind.
func (s *RecordStore) Delete(ctx context.Context, kind records.Kind, deviceID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case records.KindCalibration:
		if _, ok := s.calibrations[deviceID]; !ok {
			return records.ErrRecordNotFound
		}
		delete(s.calibrations, deviceID)
	case records.KindMeasurement:
		if _, ok := s.measurements[deviceID]; !ok {
			return records.ErrRecordNotFound
		}
		delete(s.measurements, deviceID)
	}
	return nil
}
