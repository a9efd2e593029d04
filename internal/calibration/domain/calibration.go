// Package calibration derives per-bank two-point linear calibrations from
// user-picked chart samples.
package calibration

// Point is a user-picked calibration sample: a raw impedance reading paired
// with the reference resistance at which it was taken.
type Point struct {
	Raw       float64
	Reference float64
}

// BankCalibration holds the two selected sample points of one bank.
// A nil point means "not selected yet"; both points unset and one point set
// are incomplete states, never defaulted to zero.
type BankCalibration struct {
	Min *Point
	Max *Point
}

// Line is the derived calibration line.
type Line struct {
	Slope     float64
	Intercept float64
}

// Complete reports whether both sample points are set.
func (b BankCalibration) Complete() bool {
	return b.Min != nil && b.Max != nil
}

// Degenerate reports whether both points share the same reference resistance,
// which leaves the line underdetermined.
func (b BankCalibration) Degenerate() bool {
	return b.Complete() && b.Max.Reference == b.Min.Reference
}

// Valid reports whether a line can be derived.
func (b BankCalibration) Valid() bool {
	return b.Complete() && !b.Degenerate()
}

// Compute derives the calibration line. A zero reference-axis denominator is
// reported as ErrDegenerateCalibration; slope and intercept are never produced
// as NaN or Inf.
func (b BankCalibration) Compute() (Line, error) {
	if !b.Complete() {
		return Line{}, ErrIncompleteCalibration
	}
	if b.Degenerate() {
		return Line{}, ErrDegenerateCalibration
	}
	slope := (b.Max.Raw - b.Min.Raw) / (b.Max.Reference - b.Min.Reference)
	return Line{
		Slope:     slope,
		Intercept: b.Min.Raw - slope*b.Min.Reference,
	}, nil
}
