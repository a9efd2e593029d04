package calibration

import "errors"

var (
	// ErrIncompleteCalibration is returned when one or both sample points are unset.
	ErrIncompleteCalibration = errors.New("calibration: incomplete")
	// ErrDegenerateCalibration is returned when both points share the same
	// reference resistance and no line can be derived.
	ErrDegenerateCalibration = errors.New("calibration: degenerate")
	// ErrUnknownBank is returned for a bank outside {A, B}.
	ErrUnknownBank = errors.New("calibration: unknown bank")
)
