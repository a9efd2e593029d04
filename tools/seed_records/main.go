// seed_records fills the record tables with synthetic calibration and
// measurement history for load and UI testing.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn          string
	devicePrefix string
	deviceCount  int
	startDate    string
	ensureSchema bool
	seed         int64
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required (-dsn)")
	}
	if cfg.deviceCount <= 0 {
		log.Fatal("device-count must be > 0")
	}
	start, err := time.Parse("2006-01-02", cfg.startDate)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.ensureSchema {
		if err := ensureSchema(ctx, db); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	for i := 0; i < cfg.deviceCount; i++ {
		deviceID := fmt.Sprintf("%s%03d", cfg.devicePrefix, i+1)
		recordedAt := start.Add(time.Duration(i) * 37 * time.Minute).Format("2006-01-02 15:04:05")
		if err := seedCalibration(ctx, db, deviceID, recordedAt, rng); err != nil {
			log.Fatalf("seed calibration %s: %v", deviceID, err)
		}
		if err := seedMeasurement(ctx, db, deviceID, recordedAt, rng); err != nil {
			log.Fatalf("seed measurement %s: %v", deviceID, err)
		}
	}
	log.Printf("seeded %d devices starting %s", cfg.deviceCount, cfg.startDate)
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.dsn, "dsn", "", "postgres DSN")
	flag.StringVar(&cfg.devicePrefix, "device-prefix", "DEV-", "device ID prefix")
	flag.IntVar(&cfg.deviceCount, "device-count", 65, "number of devices to seed")
	flag.StringVar(&cfg.startDate, "start-date", "2026-08-01", "first record date (YYYY-MM-DD)")
	flag.BoolVar(&cfg.ensureSchema, "ensure-schema", true, "create record tables when missing")
	flag.Int64Var(&cfg.seed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS calibration_records (
			device_id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			bank_a_min_raw DOUBLE PRECISION,
			bank_a_max_raw DOUBLE PRECISION,
			bank_a_ref_min DOUBLE PRECISION,
			bank_a_ref_max DOUBLE PRECISION,
			bank_a_slope DOUBLE PRECISION,
			bank_a_intercept DOUBLE PRECISION,
			bank_b_min_raw DOUBLE PRECISION,
			bank_b_max_raw DOUBLE PRECISION,
			bank_b_ref_min DOUBLE PRECISION,
			bank_b_ref_max DOUBLE PRECISION,
			bank_b_slope DOUBLE PRECISION,
			bank_b_intercept DOUBLE PRECISION,
			raw_samples JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS measurement_records (
			device_id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			channel_results JSONB NOT NULL DEFAULT '{}'
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedCalibration(ctx context.Context, db *sql.DB, deviceID, recordedAt string, rng *rand.Rand) error {
	minRaw := 1.5 + rng.Float64()*0.5
	maxRaw := 9.0 + rng.Float64()*1.0
	refMin, refMax := 300.0, 15000.0
	slope := (maxRaw - minRaw) / (refMax - refMin)
	intercept := minRaw - slope*refMin

	samples := make([]float64, 32)
	for i := range samples {
		samples[i] = 1.0 + rng.Float64()*15.0
	}
	rawSamples, err := json.Marshal(samples)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO calibration_records (
	device_id, recorded_at,
	bank_a_min_raw, bank_a_max_raw, bank_a_ref_min, bank_a_ref_max, bank_a_slope, bank_a_intercept,
	bank_b_min_raw, bank_b_max_raw, bank_b_ref_min, bank_b_ref_max, bank_b_slope, bank_b_intercept,
	raw_samples
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (device_id) DO UPDATE SET recorded_at = EXCLUDED.recorded_at`,
		deviceID, recordedAt,
		minRaw, maxRaw, refMin, refMax, slope, intercept,
		minRaw, maxRaw, refMin, refMax, slope, intercept,
		rawSamples,
	)
	return err
}

func seedMeasurement(ctx context.Context, db *sql.DB, deviceID, recordedAt string, rng *rand.Rand) error {
	results := make(map[string]string, 32)
	for channel := 1; channel <= 32; channel++ {
		switch roll := rng.Float64(); {
		case roll < 0.05:
			results[strconv.Itoa(channel)] = fmt.Sprintf("SHORT (%.1f)", rng.Float64()*0.5)
		case roll < 0.1:
			results[strconv.Itoa(channel)] = fmt.Sprintf("OPEN (%.1f)", 20.0+rng.Float64()*5.0)
		default:
			results[strconv.Itoa(channel)] = strconv.Itoa(300 + rng.Intn(14000))
		}
	}
	channelResults, err := json.Marshal(results)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO measurement_records (device_id, recorded_at, channel_results)
VALUES ($1,$2,$3)
ON CONFLICT (device_id) DO UPDATE SET
	recorded_at = EXCLUDED.recorded_at,
	channel_results = EXCLUDED.channel_results`,
		deviceID, recordedAt, channelResults,
	)
	return err
}
