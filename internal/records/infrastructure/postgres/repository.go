// Package postgres implements the remote record store on Postgres.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	records "implant-cloud/internal/records/domain"
)

// RecordStore persists calibration and measurement records.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore constructs a store.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// ListCalibrations returns all calibration records.
func (s *RecordStore) ListCalibrations(ctx context.Context) ([]records.CalibrationRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("record store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT device_id, recorded_at,
	bank_a_min_raw, bank_a_max_raw, bank_a_ref_min, bank_a_ref_max, bank_a_slope, bank_a_intercept,
	bank_b_min_raw, bank_b_max_raw, bank_b_ref_min, bank_b_ref_max, bank_b_slope, bank_b_intercept,
	raw_samples
FROM calibration_records
ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.CalibrationRecord
	for rows.Next() {
		record, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListMeasurements returns all measurement records.
func (s *RecordStore) ListMeasurements(ctx context.Context) ([]records.MeasurementRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("record store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT device_id, recorded_at, channel_results
FROM measurement_records
ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.MeasurementRecord
	for rows.Next() {
		var record records.MeasurementRecord
		var results []byte
		if err := rows.Scan(&record.DeviceID, &record.Date, &results); err != nil {
			return nil, err
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &record.ChannelResults); err != nil {
				return nil, err
			}
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveCalibration upserts a calibration record by device ID.
func (s *RecordStore) SaveCalibration(ctx context.Context, record records.CalibrationRecord) error {
	if s == nil || s.db == nil {
		return errors.New("record store: nil db")
	}
	samples, err := json.Marshal(record.RawSamples)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO calibration_records (
	device_id, recorded_at,
	bank_a_min_raw, bank_a_max_raw, bank_a_ref_min, bank_a_ref_max, bank_a_slope, bank_a_intercept,
	bank_b_min_raw, bank_b_max_raw, bank_b_ref_min, bank_b_ref_max, bank_b_slope, bank_b_intercept,
	raw_samples
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (device_id) DO UPDATE SET
	recorded_at = EXCLUDED.recorded_at,
	bank_a_min_raw = EXCLUDED.bank_a_min_raw,
	bank_a_max_raw = EXCLUDED.bank_a_max_raw,
	bank_a_ref_min = EXCLUDED.bank_a_ref_min,
	bank_a_ref_max = EXCLUDED.bank_a_ref_max,
	bank_a_slope = EXCLUDED.bank_a_slope,
	bank_a_intercept = EXCLUDED.bank_a_intercept,
	bank_b_min_raw = EXCLUDED.bank_b_min_raw,
	bank_b_max_raw = EXCLUDED.bank_b_max_raw,
	bank_b_ref_min = EXCLUDED.bank_b_ref_min,
	bank_b_ref_max = EXCLUDED.bank_b_ref_max,
	bank_b_slope = EXCLUDED.bank_b_slope,
	bank_b_intercept = EXCLUDED.bank_b_intercept,
	raw_samples = EXCLUDED.raw_samples`,
		record.DeviceID, record.Date,
		nullable(record.BankA.MinRaw), nullable(record.BankA.MaxRaw),
		nullable(record.BankA.RefMin), nullable(record.BankA.RefMax),
		nullable(record.BankA.Slope), nullable(record.BankA.Intercept),
		nullable(record.BankB.MinRaw), nullable(record.BankB.MaxRaw),
		nullable(record.BankB.RefMin), nullable(record.BankB.RefMax),
		nullable(record.BankB.Slope), nullable(record.BankB.Intercept),
		samples,
	)
	return err
}

// SaveMeasurement upserts a measurement record by device ID.
func (s *RecordStore) SaveMeasurement(ctx context.Context, record records.MeasurementRecord) error {
	if s == nil || s.db == nil {
		return errors.New("record store: nil db")
	}
	results, err := json.Marshal(record.ChannelResults)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO measurement_records (device_id, recorded_at, channel_results)
VALUES ($1,$2,$3)
ON CONFLICT (device_id) DO UPDATE SET
	recorded_at = EXCLUDED.recorded_at,
	channel_results = EXCLUDED.channel_results`,
		record.DeviceID, record.Date, results,
	)
	return err
}

// Delete removes the device's record of the given kind.
func (s *RecordStore) Delete(ctx context.Context, kind records.Kind, deviceID string) error {
	if s == nil || s.db == nil {
		return errors.New("record store: nil db")
	}
	table := ""
	switch kind {
	case records.KindCalibration:
		table = "calibration_records"
	case records.KindMeasurement:
		table = "measurement_records"
	default:
		return errors.New("record store: unknown kind")
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE device_id = $1", deviceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return records.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row rowScanner) (records.CalibrationRecord, error) {
	var record records.CalibrationRecord
	var (
		aMinRaw, aMaxRaw, aRefMin, aRefMax, aSlope, aIntercept sql.NullFloat64
		bMinRaw, bMaxRaw, bRefMin, bRefMax, bSlope, bIntercept sql.NullFloat64
		samples                                                []byte
	)
	err := row.Scan(
		&record.DeviceID, &record.Date,
		&aMinRaw, &aMaxRaw, &aRefMin, &aRefMax, &aSlope, &aIntercept,
		&bMinRaw, &bMaxRaw, &bRefMin, &bRefMax, &bSlope, &bIntercept,
		&samples,
	)
	if err != nil {
		return records.CalibrationRecord{}, err
	}
	record.BankA = records.StoredBank{
		MinRaw: fromNullable(aMinRaw), MaxRaw: fromNullable(aMaxRaw),
		RefMin: fromNullable(aRefMin), RefMax: fromNullable(aRefMax),
		Slope: fromNullable(aSlope), Intercept: fromNullable(aIntercept),
	}
	record.BankB = records.StoredBank{
		MinRaw: fromNullable(bMinRaw), MaxRaw: fromNullable(bMaxRaw),
		RefMin: fromNullable(bRefMin), RefMax: fromNullable(bRefMax),
		Slope: fromNullable(bSlope), Intercept: fromNullable(bIntercept),
	}
	if len(samples) > 0 {
		if err := json.Unmarshal(samples, &record.RawSamples); err != nil {
			return records.CalibrationRecord{}, err
		}
	}
	return record, nil
}

func nullable(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func fromNullable(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
