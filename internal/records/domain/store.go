package records

import "context"

// Store is the remote record store collaborator: full list per kind, save,
// delete by device ID. Transport and auth of the remote side are its
// implementation's concern.
type Store interface {
	ListCalibrations(ctx context.Context) ([]CalibrationRecord, error)
	ListMeasurements(ctx context.Context) ([]MeasurementRecord, error)
	SaveCalibration(ctx context.Context, record CalibrationRecord) error
	SaveMeasurement(ctx context.Context, record MeasurementRecord) error
	Delete(ctx context.Context, kind Kind, deviceID string) error
}
