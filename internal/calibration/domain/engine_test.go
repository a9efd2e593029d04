package calibration

import (
	"errors"
	"math"
	"testing"

	"implant-cloud/internal/channelmap"
)

func TestSelectPointCycle(t *testing.T) {
	engine := NewEngine()

	state, err := engine.SelectPoint(channelmap.BankA, 2.0, 300)
	if err != nil {
		t.Fatalf("select min: %v", err)
	}
	if state != StateMinSet {
		t.Fatalf("expected min_set after first selection, got %s", state)
	}

	state, err = engine.SelectPoint(channelmap.BankA, 8.0, 15000)
	if err != nil {
		t.Fatalf("select max: %v", err)
	}
	if state != StateMaxSet {
		t.Fatalf("expected max_set after second selection, got %s", state)
	}

	snapshot := engine.Snapshot(channelmap.BankA)
	if !snapshot.Valid() {
		t.Fatal("expected a valid calibration after two selections")
	}
	if snapshot.Min.Raw != 2.0 || snapshot.Min.Reference != 300 {
		t.Fatalf("unexpected min point %+v", snapshot.Min)
	}
	if snapshot.Max.Raw != 8.0 || snapshot.Max.Reference != 15000 {
		t.Fatalf("unexpected max point %+v", snapshot.Max)
	}

	// Third selection clears both points and returns to idle.
	state, err = engine.SelectPoint(channelmap.BankA, 5.0, 1000)
	if err != nil {
		t.Fatalf("select clear: %v", err)
	}
	if state != StateIdle {
		t.Fatalf("expected idle after third selection, got %s", state)
	}
	snapshot = engine.Snapshot(channelmap.BankA)
	if snapshot.Min != nil || snapshot.Max != nil {
		t.Fatalf("expected cleared calibration, got %+v", snapshot)
	}

	// Fourth selection starts a new cycle with the min point.
	state, err = engine.SelectPoint(channelmap.BankA, 3.0, 500)
	if err != nil {
		t.Fatalf("select after clear: %v", err)
	}
	if state != StateMinSet {
		t.Fatalf("expected min_set after restart, got %s", state)
	}
}

func TestSelectPointRoleByClickOrder(t *testing.T) {
	// The role is determined by click order, not magnitude: a numerically
	// larger raw value picked first stays the min point.
	engine := NewEngine()
	_, _ = engine.SelectPoint(channelmap.BankB, 9.0, 15000)
	_, _ = engine.SelectPoint(channelmap.BankB, 1.0, 300)

	snapshot := engine.Snapshot(channelmap.BankB)
	if snapshot.Min.Raw != 9.0 {
		t.Fatalf("expected min raw 9.0, got %f", snapshot.Min.Raw)
	}
	if snapshot.Max.Raw != 1.0 {
		t.Fatalf("expected max raw 1.0, got %f", snapshot.Max.Raw)
	}
}

func TestBanksAreIndependent(t *testing.T) {
	engine := NewEngine()
	_, _ = engine.SelectPoint(channelmap.BankA, 2.0, 300)
	if engine.State(channelmap.BankB) != StateIdle {
		t.Fatal("selecting on bank A must not touch bank B")
	}
	if engine.Snapshot(channelmap.BankB).Min != nil {
		t.Fatal("bank B should have no points")
	}
}

func TestReset(t *testing.T) {
	engine := NewEngine()
	_, _ = engine.SelectPoint(channelmap.BankA, 2.0, 300)
	_, _ = engine.SelectPoint(channelmap.BankA, 8.0, 15000)

	if err := engine.Reset(channelmap.BankA); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if engine.State(channelmap.BankA) != StateIdle {
		t.Fatal("expected idle after reset")
	}
	if snapshot := engine.Snapshot(channelmap.BankA); snapshot.Min != nil || snapshot.Max != nil {
		t.Fatal("expected cleared points after reset")
	}
}

func TestUnknownBank(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.SelectPoint(channelmap.Bank("C"), 1, 1); !errors.Is(err, ErrUnknownBank) {
		t.Fatalf("expected ErrUnknownBank, got %v", err)
	}
	if err := engine.Reset(channelmap.Bank("C")); !errors.Is(err, ErrUnknownBank) {
		t.Fatalf("expected ErrUnknownBank, got %v", err)
	}
}

func TestComputeLine(t *testing.T) {
	cal := BankCalibration{
		Min: &Point{Raw: 2.0, Reference: 300},
		Max: &Point{Raw: 8.0, Reference: 15000},
	}
	line, err := cal.Compute()
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	wantSlope := 6.0 / 14700
	if math.Abs(line.Slope-wantSlope) > 1e-12 {
		t.Fatalf("expected slope %v, got %v", wantSlope, line.Slope)
	}
	wantIntercept := 2.0 - wantSlope*300
	if math.Abs(line.Intercept-wantIntercept) > 1e-12 {
		t.Fatalf("expected intercept %v, got %v", wantIntercept, line.Intercept)
	}
}

func TestComputeIncomplete(t *testing.T) {
	cal := BankCalibration{Min: &Point{Raw: 2.0, Reference: 300}}
	if _, err := cal.Compute(); !errors.Is(err, ErrIncompleteCalibration) {
		t.Fatalf("expected ErrIncompleteCalibration, got %v", err)
	}
	if cal.Valid() {
		t.Fatal("incomplete calibration must not be valid")
	}
}

func TestComputeDegenerate(t *testing.T) {
	cal := BankCalibration{
		Min: &Point{Raw: 2.0, Reference: 1000},
		Max: &Point{Raw: 8.0, Reference: 1000},
	}
	line, err := cal.Compute()
	if !errors.Is(err, ErrDegenerateCalibration) {
		t.Fatalf("expected ErrDegenerateCalibration, got %v", err)
	}
	if math.IsNaN(line.Slope) || math.IsInf(line.Slope, 0) {
		t.Fatal("slope must never be NaN or Inf")
	}
	if cal.Valid() {
		t.Fatal("degenerate calibration must not be valid")
	}
}
