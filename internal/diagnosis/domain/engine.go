// Package diagnosis classifies raw electrode readings against a bank
// calibration and renders their display form.
package diagnosis

import (
	"math"
	"strconv"

	calibration "implant-cloud/internal/calibration/domain"
	"implant-cloud/internal/channelmap"
)

// Status classifies a diagnosed electrode channel.
type Status string

const (
	StatusNormal Status = "normal"
	StatusShort  Status = "short"
	StatusOpen   Status = "open"
)

// Result is a derived, displayable per-channel diagnosis. It is recomputed on
// demand and never mutated in place.
type Result struct {
	Channel         int     `json:"channel"`
	Bank            string  `json:"bank"`
	RawValue        float64 `json:"raw_value"`
	CalibratedValue float64 `json:"calibrated_value"`
	Calibrated      bool    `json:"calibrated"`
	Status          Status  `json:"status"`
	DisplayText     string  `json:"display_text"`
}

// Defaults are the caller-supplied fallback thresholds used when a bank has
// no valid calibration.
type Defaults struct {
	ThresholdMin float64
	ThresholdMax float64
}

// CalibrationSource yields the calibration of a bank, either from the
// in-session engine or from a stored record. Which one wins is the caller's
// explicit choice, never an implicit default.
type CalibrationSource interface {
	Bank(bank channelmap.Bank) calibration.BankCalibration
}

// SourceFunc adapts a function to a CalibrationSource.
type SourceFunc func(bank channelmap.Bank) calibration.BankCalibration

// Bank implements CalibrationSource.
func (f SourceFunc) Bank(bank channelmap.Bank) calibration.BankCalibration { return f(bank) }

// uncalibratedPlaceholder replaces the calibrated value in display text when
// no line could be derived. A missing calibration is shown, never disguised
// as a zero-slope one.
const uncalibratedPlaceholder = "--"

// Diagnose classifies every channel with a present raw reading. Thresholds
// are the calibration's raw min/max when the bank calibration is valid,
// otherwise the caller defaults. Bounds are inclusive: a reading exactly at a
// threshold is normal. Channels without a reading are omitted; a dense 32-row
// table is the presentation layer's concern.
func Diagnose(measurements map[int]float64, source CalibrationSource, defaults Defaults) []Result {
	if len(measurements) == 0 || source == nil {
		return nil
	}
	results := make([]Result, 0, len(measurements))
	for channel := channelmap.MinChannel; channel <= channelmap.MaxChannel; channel++ {
		raw, ok := measurements[channel]
		if !ok {
			continue
		}
		resolved, err := channelmap.Resolve(channel)
		if err != nil {
			continue
		}
		results = append(results, diagnoseChannel(resolved, raw, source.Bank(resolved.Bank), defaults))
	}
	return results
}

func diagnoseChannel(resolved channelmap.Channel, raw float64, cal calibration.BankCalibration, defaults Defaults) Result {
	result := Result{
		Channel:  resolved.Index,
		Bank:     string(resolved.Bank),
		RawValue: raw,
	}

	thresholdMin := defaults.ThresholdMin
	thresholdMax := defaults.ThresholdMax
	if cal.Valid() {
		thresholdMin = cal.Min.Raw
		thresholdMax = cal.Max.Raw
		line, err := cal.Compute()
		if err == nil {
			result.CalibratedValue = line.Slope*raw + line.Intercept
			result.Calibrated = true
		}
	}

	switch {
	case raw < thresholdMin:
		result.Status = StatusShort
		result.DisplayText = "SHORT (" + calibratedText(result, 1) + ")"
	case raw > thresholdMax:
		result.Status = StatusOpen
		result.DisplayText = "OPEN (" + calibratedText(result, 1) + ")"
	default:
		result.Status = StatusNormal
		// Display asymmetry kept from the device's convention: shorts and
		// opens show one decimal, normal channels the truncated integer.
		if result.Calibrated {
			result.DisplayText = strconv.Itoa(int(math.Trunc(result.CalibratedValue)))
		} else {
			result.DisplayText = uncalibratedPlaceholder
		}
	}
	return result
}

func calibratedText(result Result, decimals int) string {
	if !result.Calibrated {
		return uncalibratedPlaceholder
	}
	factor := math.Pow(10, float64(decimals))
	rounded := math.Round(result.CalibratedValue*factor) / factor
	return strconv.FormatFloat(rounded, 'f', decimals, 64)
}
