// fake_device posts synthetic measurement sessions to the ingest endpoint,
// standing in for the device pairing gateway during local development.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"implant-cloud/internal/auth"
)

type config struct {
	baseURL      string
	deviceID     string
	sessions     int
	interval     time.Duration
	shortPct     float64
	openPct      float64
	seed         int64
	ingestSecret string
}

func main() {
	cfg := parseConfig()
	rng := rand.New(rand.NewSource(cfg.seed))
	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < cfg.sessions; i++ {
		payload := buildSession(cfg.deviceID, rng, cfg.shortPct, cfg.openPct)
		if err := postSession(client, cfg, payload); err != nil {
			log.Fatalf("session %d: %v", i+1, err)
		}
		log.Printf("session %d/%d delivered for %s", i+1, cfg.sessions, cfg.deviceID)
		if i+1 < cfg.sessions {
			time.Sleep(cfg.interval)
		}
	}
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "service base URL")
	flag.StringVar(&cfg.deviceID, "device-id", "DEV-DEMO-001", "device identifier")
	flag.IntVar(&cfg.sessions, "sessions", 1, "number of sessions to deliver")
	flag.DurationVar(&cfg.interval, "interval", 2*time.Second, "delay between sessions")
	flag.Float64Var(&cfg.shortPct, "short-pct", 0.1, "fraction of channels reading below normal")
	flag.Float64Var(&cfg.openPct, "open-pct", 0.1, "fraction of channels reading above normal")
	flag.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.StringVar(&cfg.ingestSecret, "ingest-secret", "", "shared HMAC secret for ingest signing")
	flag.Parse()
	return cfg
}

// buildSession generates a full 32-channel reading set. Normal channels sit
// inside the default 0.5..20.0 window; shorts fall below it and opens above.
func buildSession(deviceID string, rng *rand.Rand, shortPct, openPct float64) map[string]any {
	readings := make(map[string]float64, 32)
	for channel := 1; channel <= 32; channel++ {
		var value float64
		switch roll := rng.Float64(); {
		case roll < shortPct:
			value = rng.Float64() * 0.4
		case roll < shortPct+openPct:
			value = 21.0 + rng.Float64()*10.0
		default:
			value = 1.0 + rng.Float64()*15.0
		}
		readings[strconv.Itoa(channel)] = value
	}
	return map[string]any{"deviceId": deviceID, "readings": readings}
}

func postSession(client *http.Client, cfg config, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, cfg.baseURL+"/ingest/device/session", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.ingestSecret != "" {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("X-Ingest-Timestamp", timestamp)
		req.Header.Set("X-Ingest-Signature", auth.ComputeIngestSignature([]byte(cfg.ingestSecret), timestamp, body))
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned %d", resp.StatusCode)
	}
	return nil
}
