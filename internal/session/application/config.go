package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	diagnosis "implant-cloud/internal/diagnosis/domain"
)

// Thresholds are fallback classification bounds for banks without a valid
// calibration.
type Thresholds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ThresholdOverride is a per-device partial override. A nil field means the
// default applies; an explicit zero is a real bound, not a missing value.
type ThresholdOverride struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Config carries diagnosis defaults, with optional per-device overrides.
type Config struct {
	Defaults Thresholds                   `yaml:"defaults"`
	Devices  map[string]ThresholdOverride `yaml:"devices"`
}

// LoadConfig loads diagnosis defaults from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Defaults: Thresholds{
			Min: getenvFloatDefault("DIAG_DEFAULT_MIN", 0.5),
			Max: getenvFloatDefault("DIAG_DEFAULT_MAX", 20.0),
		},
	}

	if path := os.Getenv("DIAG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// ThresholdsForDevice returns the thresholds for a device, applying its
// override when one exists.
func (c Config) ThresholdsForDevice(deviceID string) diagnosis.Defaults {
	thresholds := c.Defaults
	if c.Devices != nil {
		if override, ok := c.Devices[deviceID]; ok {
			thresholds = mergeThresholds(thresholds, override)
		}
	}
	return diagnosis.Defaults{ThresholdMin: thresholds.Min, ThresholdMax: thresholds.Max}
}

func mergeThresholds(base Thresholds, override ThresholdOverride) Thresholds {
	if override.Min != nil {
		base.Min = *override.Min
	}
	if override.Max != nil {
		base.Max = *override.Max
	}
	return base
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
