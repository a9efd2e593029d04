package calibration

import (
	"sync"

	"implant-cloud/internal/channelmap"
)

// SelectionState is the per-bank point-selection state.
type SelectionState int

const (
	// StateIdle means no point is selected; the next selection sets the min point.
	StateIdle SelectionState = iota
	// StateMinSet means the min point is selected; the next selection sets the max point.
	StateMinSet
	// StateMaxSet means both points are selected; the next selection clears them.
	StateMaxSet
)

// String renders the state for logs and API responses.
func (s SelectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMinSet:
		return "min_set"
	case StateMaxSet:
		return "max_set"
	default:
		return "unknown"
	}
}

type bankState struct {
	state SelectionState
	cal   BankCalibration
}

// Engine tracks point selection and calibration per bank. The min/max role of
// a point is determined purely by click order, not by relative magnitude: a
// user may pick a numerically larger value as "min" and that choice is kept.
type Engine struct {
	mu    sync.Mutex
	banks map[channelmap.Bank]*bankState
}

// NewEngine constructs an engine with both banks idle.
func NewEngine() *Engine {
	return &Engine{
		banks: map[channelmap.Bank]*bankState{
			channelmap.BankA: {},
			channelmap.BankB: {},
		},
	}
}

// SelectPoint advances the bank's selection cycle with the picked sample.
// Idle sets the min point, MinSet sets the max point, MaxSet clears both
// points and returns to Idle without recording the sample.
func (e *Engine) SelectPoint(bank channelmap.Bank, raw, reference float64) (SelectionState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.banks[bank]
	if !ok {
		return StateIdle, ErrUnknownBank
	}
	switch state.state {
	case StateIdle:
		state.cal.Min = &Point{Raw: raw, Reference: reference}
		state.state = StateMinSet
	case StateMinSet:
		state.cal.Max = &Point{Raw: raw, Reference: reference}
		state.state = StateMaxSet
	case StateMaxSet:
		state.cal = BankCalibration{}
		state.state = StateIdle
	}
	return state.state, nil
}

// Reset clears both points of the bank unconditionally.
func (e *Engine) Reset(bank channelmap.Bank) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.banks[bank]
	if !ok {
		return ErrUnknownBank
	}
	state.cal = BankCalibration{}
	state.state = StateIdle
	return nil
}

// ResetAll clears both banks; used at session start.
func (e *Engine) ResetAll() {
	_ = e.Reset(channelmap.BankA)
	_ = e.Reset(channelmap.BankB)
}

// Snapshot returns a copy of the bank's calibration.
func (e *Engine) Snapshot(bank channelmap.Bank) BankCalibration {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.banks[bank]
	if !ok {
		return BankCalibration{}
	}
	snapshot := BankCalibration{}
	if state.cal.Min != nil {
		point := *state.cal.Min
		snapshot.Min = &point
	}
	if state.cal.Max != nil {
		point := *state.cal.Max
		snapshot.Max = &point
	}
	return snapshot
}

// State returns the bank's current selection state.
func (e *Engine) State(bank channelmap.Bank) SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.banks[bank]
	if !ok {
		return StateIdle
	}
	return state.state
}
