// Package records defines the persisted calibration and measurement records
// and the remote store port they are synchronized with.
package records

import (
	"errors"
	"time"

	calibration "implant-cloud/internal/calibration/domain"
)

// Kind selects one of the two persisted record kinds.
type Kind string

const (
	KindCalibration Kind = "calibration"
	KindMeasurement Kind = "measurement"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindCalibration || k == KindMeasurement
}

// DateLayout is the persisted record date format. It sorts lexically in
// chronological order, which the record browser's sort relies on.
const DateLayout = "2006-01-02 15:04:05"

// FormatDate renders a timestamp in the record date layout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StoredBank is a bank calibration as persisted. Every field is nullable: an
// absent value stays nil at the serialization boundary and is never silently
// read back as zero.
type StoredBank struct {
	MinRaw    *float64 `json:"min_raw"`
	MaxRaw    *float64 `json:"max_raw"`
	RefMin    *float64 `json:"ref_min"`
	RefMax    *float64 `json:"ref_max"`
	Slope     *float64 `json:"slope"`
	Intercept *float64 `json:"intercept"`
}

// ToBankCalibration rebuilds the domain value object. Partially stored banks
// (one point without the other) come back incomplete, not zero-filled.
func (s StoredBank) ToBankCalibration() calibration.BankCalibration {
	cal := calibration.BankCalibration{}
	if s.MinRaw != nil && s.RefMin != nil {
		cal.Min = &calibration.Point{Raw: *s.MinRaw, Reference: *s.RefMin}
	}
	if s.MaxRaw != nil && s.RefMax != nil {
		cal.Max = &calibration.Point{Raw: *s.MaxRaw, Reference: *s.RefMax}
	}
	return cal
}

// StoredBankFrom captures a bank calibration for persistence. Slope and
// intercept are stored only when a line can be derived.
func StoredBankFrom(cal calibration.BankCalibration) StoredBank {
	stored := StoredBank{}
	if cal.Min != nil {
		minRaw, refMin := cal.Min.Raw, cal.Min.Reference
		stored.MinRaw, stored.RefMin = &minRaw, &refMin
	}
	if cal.Max != nil {
		maxRaw, refMax := cal.Max.Raw, cal.Max.Reference
		stored.MaxRaw, stored.RefMax = &maxRaw, &refMax
	}
	if line, err := cal.Compute(); err == nil {
		slope, intercept := line.Slope, line.Intercept
		stored.Slope, stored.Intercept = &slope, &intercept
	}
	return stored
}

// CalibrationRecord is a persisted device calibration. Records are created on
// save, deleted on explicit delete and otherwise immutable; identity is
// (DeviceID, Date).
type CalibrationRecord struct {
	DeviceID   string     `json:"device_id"`
	Date       string     `json:"date"`
	BankA      StoredBank `json:"bank_a"`
	BankB      StoredBank `json:"bank_b"`
	RawSamples []float64  `json:"raw_samples"`
}

// DeviceKey implements the query row contract.
func (r CalibrationRecord) DeviceKey() string { return r.DeviceID }

// DateKey implements the query row contract.
func (r CalibrationRecord) DateKey() string { return r.Date }

// MeasurementRecord is a persisted diagnosis result set: the display text per
// channel index, keyed "1".."32".
type MeasurementRecord struct {
	DeviceID       string            `json:"device_id"`
	Date           string            `json:"date"`
	ChannelResults map[string]string `json:"channel_results"`
}

// DeviceKey implements the query row contract.
func (r MeasurementRecord) DeviceKey() string { return r.DeviceID }

// DateKey implements the query row contract.
func (r MeasurementRecord) DateKey() string { return r.Date }

// ErrRecordNotFound is returned when a record does not exist in the store.
var ErrRecordNotFound = errors.New("records: not found")
