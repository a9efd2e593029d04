package diagnosis

import (
	"math"
	"strconv"
	"testing"

	calibration "implant-cloud/internal/calibration/domain"
	"implant-cloud/internal/channelmap"
)

func calibratedSource(min, max calibration.Point) CalibrationSource {
	return SourceFunc(func(channelmap.Bank) calibration.BankCalibration {
		return calibration.BankCalibration{Min: &min, Max: &max}
	})
}

func emptySource() CalibrationSource {
	return SourceFunc(func(channelmap.Bank) calibration.BankCalibration {
		return calibration.BankCalibration{}
	})
}

func TestDiagnoseBoundariesInclusive(t *testing.T) {
	source := calibratedSource(
		calibration.Point{Raw: 2.0, Reference: 300},
		calibration.Point{Raw: 8.0, Reference: 15000},
	)

	cases := []struct {
		name   string
		raw    float64
		status Status
	}{
		{"exactly at min", 2.0, StatusNormal},
		{"exactly at max", 8.0, StatusNormal},
		{"below min", 1.0, StatusShort},
		{"above max", 9.0, StatusOpen},
		{"between", 5.0, StatusNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := Diagnose(map[int]float64{1: tc.raw}, source, Defaults{})
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0].Status != tc.status {
				t.Fatalf("raw %f: expected %s, got %s", tc.raw, tc.status, results[0].Status)
			}
		})
	}
}

func TestDiagnoseDisplayAsymmetry(t *testing.T) {
	source := calibratedSource(
		calibration.Point{Raw: 2.0, Reference: 300},
		calibration.Point{Raw: 8.0, Reference: 15000},
	)

	results := Diagnose(map[int]float64{1: 5.9}, source, Defaults{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Normal channels show the truncated integer, not a rounded value.
	line, err := (calibration.BankCalibration{
		Min: &calibration.Point{Raw: 2.0, Reference: 300},
		Max: &calibration.Point{Raw: 8.0, Reference: 15000},
	}).Compute()
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := strconv.Itoa(int(math.Trunc(line.Slope*5.9 + line.Intercept)))
	if results[0].DisplayText != want {
		t.Fatalf("expected truncated integer %s, got %q", want, results[0].DisplayText)
	}
}

func TestDiagnoseEndToEndShort(t *testing.T) {
	// Device AB12CD34, bank A calibration min=(1.8, 300) max=(9.4, 15000).
	source := calibratedSource(
		calibration.Point{Raw: 1.8, Reference: 300},
		calibration.Point{Raw: 9.4, Reference: 15000},
	)

	results := Diagnose(map[int]float64{3: 1.2}, source, Defaults{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.Status != StatusShort {
		t.Fatalf("expected short, got %s", result.Status)
	}
	wantSlope := (9.4 - 1.8) / (15000.0 - 300.0)
	wantCalibrated := wantSlope*1.2 + (1.8 - wantSlope*300)
	if math.Abs(result.CalibratedValue-wantCalibrated) > 1e-9 {
		t.Fatalf("expected calibrated %v, got %v", wantCalibrated, result.CalibratedValue)
	}
	if result.DisplayText != "SHORT (1.6)" {
		t.Fatalf("expected display SHORT (1.6), got %q", result.DisplayText)
	}
}

func TestDiagnoseUncalibratedFallsBackToDefaults(t *testing.T) {
	defaults := Defaults{ThresholdMin: 2.0, ThresholdMax: 8.0}

	results := Diagnose(map[int]float64{1: 1.0, 2: 5.0, 3: 9.0}, emptySource(), defaults)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, result := range results {
		if result.Calibrated {
			t.Fatalf("channel %d: expected uncalibrated flag", result.Channel)
		}
	}
	if results[0].Status != StatusShort || results[0].DisplayText != "SHORT (--)" {
		t.Fatalf("channel 1: got %s %q", results[0].Status, results[0].DisplayText)
	}
	if results[1].Status != StatusNormal || results[1].DisplayText != "--" {
		t.Fatalf("channel 2: got %s %q", results[1].Status, results[1].DisplayText)
	}
	if results[2].Status != StatusOpen || results[2].DisplayText != "OPEN (--)" {
		t.Fatalf("channel 3: got %s %q", results[2].Status, results[2].DisplayText)
	}
}

func TestDiagnoseDegenerateCalibrationIsUncalibrated(t *testing.T) {
	source := calibratedSource(
		calibration.Point{Raw: 2.0, Reference: 1000},
		calibration.Point{Raw: 8.0, Reference: 1000},
	)
	results := Diagnose(map[int]float64{1: 5.0}, source, Defaults{ThresholdMin: 1, ThresholdMax: 9})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Calibrated {
		t.Fatal("degenerate calibration must not produce a calibrated value")
	}
	if math.IsNaN(results[0].CalibratedValue) || math.IsInf(results[0].CalibratedValue, 0) {
		t.Fatal("calibrated value must never be NaN or Inf")
	}
}

func TestDiagnoseOmitsMissingChannels(t *testing.T) {
	source := calibratedSource(
		calibration.Point{Raw: 2.0, Reference: 300},
		calibration.Point{Raw: 8.0, Reference: 15000},
	)
	results := Diagnose(map[int]float64{4: 5.0, 20: 5.0}, source, Defaults{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Channel != 4 || results[1].Channel != 20 {
		t.Fatalf("expected channels in ascending order, got %d, %d", results[0].Channel, results[1].Channel)
	}
	if results[0].Bank != "A" || results[1].Bank != "B" {
		t.Fatalf("unexpected banks %s, %s", results[0].Bank, results[1].Bank)
	}
}

func TestDiagnoseEmptyInput(t *testing.T) {
	if results := Diagnose(nil, emptySource(), Defaults{}); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}
