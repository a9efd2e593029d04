// Package application orchestrates the technician's measurement session:
// ingest, calibration point selection, diagnosis and record saving.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	calibration "implant-cloud/internal/calibration/domain"
	"implant-cloud/internal/channelmap"
	diagnosis "implant-cloud/internal/diagnosis/domain"
	measurement "implant-cloud/internal/measurement/domain"
	"implant-cloud/internal/observability/metrics"
	recordsapp "implant-cloud/internal/records/application"
	records "implant-cloud/internal/records/domain"
)

// CalibrationOrigin selects where the diagnosis calibration comes from. The
// precedence between the in-session engine and a stored record is always the
// caller's explicit choice.
type CalibrationOrigin string

const (
	// OriginSession uses the calibration engine's current snapshot.
	OriginSession CalibrationOrigin = "session"
	// OriginRecord uses the device's stored calibration record.
	OriginRecord CalibrationOrigin = "record"
)

var (
	// ErrUnknownOrigin is returned for an unsupported calibration origin.
	ErrUnknownOrigin = errors.New("session: unknown calibration origin")
	// ErrEmptyDeviceID is returned when an operation needs a device ID.
	ErrEmptyDeviceID = errors.New("session: empty device id")
	// ErrNoMeasurements is returned when saving results without a session.
	ErrNoMeasurements = errors.New("session: no measurements")
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service is the session-scoped application service. It owns the measurement
// buffer and calibration engine; record persistence routes through the one
// SyncCache instance.
type Service struct {
	measurements *measurement.Store
	engine       *calibration.Engine
	cache        *recordsapp.SyncCache
	config       Config
	clock        Clock
	logger       *log.Logger
}

// NewService constructs a session service.
func NewService(cache *recordsapp.SyncCache, config Config, logger *log.Logger) (*Service, error) {
	if cache == nil {
		return nil, errors.New("session: nil cache")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		measurements: measurement.NewStore(),
		engine:       calibration.NewEngine(),
		cache:        cache,
		config:       config,
		clock:        systemClock{},
		logger:       logger,
	}, nil
}

// WithClock replaces the clock; used by tests.
func (s *Service) WithClock(clock Clock) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// IngestSession replaces the session buffer with a completed measurement
// session delivered by the device link. Any out-of-range channel rejects the
// whole payload; the previous session is still cleared, matching the
// "cleared at next session start" lifecycle.
func (s *Service) IngestSession(readings map[int]float64) error {
	s.measurements.Clear()
	if len(readings) == 0 {
		return ErrNoMeasurements
	}
	for channel, raw := range readings {
		if err := s.measurements.Ingest(channel, raw); err != nil {
			s.measurements.Clear()
			return fmt.Errorf("channel %d: %w", channel, err)
		}
	}
	return nil
}

// Measurements returns a copy of the active session's readings.
func (s *Service) Measurements() map[int]float64 {
	return s.measurements.Snapshot()
}

// SelectCalibrationPoint advances the bank's selection cycle.
func (s *Service) SelectCalibrationPoint(bank channelmap.Bank, raw, reference float64) (calibration.SelectionState, error) {
	return s.engine.SelectPoint(bank, raw, reference)
}

// ResetCalibration clears the bank's points.
func (s *Service) ResetCalibration(bank channelmap.Bank) error {
	return s.engine.Reset(bank)
}

// CalibrationSnapshot returns both banks' calibrations.
func (s *Service) CalibrationSnapshot() map[channelmap.Bank]calibration.BankCalibration {
	return map[channelmap.Bank]calibration.BankCalibration{
		channelmap.BankA: s.engine.Snapshot(channelmap.BankA),
		channelmap.BankB: s.engine.Snapshot(channelmap.BankB),
	}
}

// SelectionState returns the bank's point-selection state.
func (s *Service) SelectionState(bank channelmap.Bank) calibration.SelectionState {
	return s.engine.State(bank)
}

// Diagnose classifies the session's readings using the chosen calibration
// origin. OriginRecord resolves the device's stored calibration through the
// cache and fails when the record is missing or the remote store is down.
func (s *Service) Diagnose(ctx context.Context, origin CalibrationOrigin, deviceID string) ([]diagnosis.Result, error) {
	start := s.clock.Now()
	source, err := s.calibrationSource(ctx, origin, deviceID)
	if err != nil {
		metrics.ObserveDiagnosis(metrics.ResultError, time.Since(start))
		return nil, err
	}
	results := diagnosis.Diagnose(s.measurements.Snapshot(), source, s.config.ThresholdsForDevice(deviceID))
	metrics.ObserveDiagnosis(metrics.ResultSuccess, time.Since(start))
	return results, nil
}

func (s *Service) calibrationSource(ctx context.Context, origin CalibrationOrigin, deviceID string) (diagnosis.CalibrationSource, error) {
	switch origin {
	case OriginSession:
		return diagnosis.SourceFunc(s.engine.Snapshot), nil
	case OriginRecord:
		if deviceID == "" {
			return nil, ErrEmptyDeviceID
		}
		record, err := s.cache.FindCalibration(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		banks := map[channelmap.Bank]calibration.BankCalibration{
			channelmap.BankA: record.BankA.ToBankCalibration(),
			channelmap.BankB: record.BankB.ToBankCalibration(),
		}
		return diagnosis.SourceFunc(func(bank channelmap.Bank) calibration.BankCalibration {
			return banks[bank]
		}), nil
	default:
		return nil, ErrUnknownOrigin
	}
}

// SaveCalibrationRecord persists the engine's current calibration for the
// device, together with the session's raw samples in channel order.
func (s *Service) SaveCalibrationRecord(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, ErrEmptyDeviceID
	}
	record := records.CalibrationRecord{
		DeviceID:   deviceID,
		Date:       records.FormatDate(s.clock.Now()),
		BankA:      records.StoredBankFrom(s.engine.Snapshot(channelmap.BankA)),
		BankB:      records.StoredBankFrom(s.engine.Snapshot(channelmap.BankB)),
		RawSamples: s.rawSamples(),
	}
	return s.cache.SaveCalibration(ctx, record), nil
}

// SaveMeasurementRecord diagnoses the session with the chosen origin and
// persists the per-channel display results.
func (s *Service) SaveMeasurementRecord(ctx context.Context, origin CalibrationOrigin, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, ErrEmptyDeviceID
	}
	if s.measurements.Len() == 0 {
		return false, ErrNoMeasurements
	}
	results, err := s.Diagnose(ctx, origin, deviceID)
	if err != nil {
		return false, err
	}
	channelResults := make(map[string]string, len(results))
	for _, result := range results {
		channelResults[fmt.Sprintf("%d", result.Channel)] = result.DisplayText
	}
	record := records.MeasurementRecord{
		DeviceID:       deviceID,
		Date:           records.FormatDate(s.clock.Now()),
		ChannelResults: channelResults,
	}
	return s.cache.SaveMeasurement(ctx, record), nil
}

// rawSamples lists the session's raw readings in ascending channel order.
func (s *Service) rawSamples() []float64 {
	snapshot := s.measurements.Snapshot()
	channels := make([]int, 0, len(snapshot))
	for channel := range snapshot {
		channels = append(channels, channel)
	}
	sort.Ints(channels)
	samples := make([]float64, 0, len(channels))
	for _, channel := range channels {
		samples = append(samples, snapshot[channel])
	}
	return samples
}
