package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"implant-cloud/internal/audit"
	"implant-cloud/internal/auth"
	"implant-cloud/internal/observability/metrics"
	recordsapp "implant-cloud/internal/records/application"
	records "implant-cloud/internal/records/domain"
	recordsmemory "implant-cloud/internal/records/infrastructure/memory"
	recordspostgres "implant-cloud/internal/records/infrastructure/postgres"
	recordsinterfaces "implant-cloud/internal/records/interfaces"
	session "implant-cloud/internal/session/application"
	"implant-cloud/internal/session/interfaces/devicelink"
	sessionhttp "implant-cloud/internal/session/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var (
		store records.Store
		db    *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		store = recordspostgres.NewRecordStore(db)
	} else {
		logger.Printf("DATABASE_URL not set, using in-memory record store")
		store = recordsmemory.NewRecordStore()
	}

	metrics.Init(db, logger)

	cache, err := recordsapp.NewSyncCache(store, logger)
	if err != nil {
		logger.Fatalf("sync cache error: %v", err)
	}

	sessionConfig, err := session.LoadConfig()
	if err != nil {
		logger.Fatalf("session config error: %v", err)
	}
	sessionService, err := session.NewService(cache, sessionConfig, logger)
	if err != nil {
		logger.Fatalf("session service error: %v", err)
	}

	ingestHandler, err := devicelink.NewIngestHandler(sessionService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	calibrationListHandler, err := recordsinterfaces.NewListHandler(cache, records.KindCalibration, logger)
	if err != nil {
		logger.Fatalf("calibration list handler error: %v", err)
	}
	measurementListHandler, err := recordsinterfaces.NewListHandler(cache, records.KindMeasurement, logger)
	if err != nil {
		logger.Fatalf("measurement list handler error: %v", err)
	}
	deleteHandler, err := recordsinterfaces.NewDeleteHandler(cache, auditLogger(db), logger)
	if err != nil {
		logger.Fatalf("delete handler error: %v", err)
	}
	exportHandler, err := recordsinterfaces.NewExportHandler(cache, logger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/device/session", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/calibration/select", sessionhttp.NewCalibrationSelectHandler(sessionService, logger))
	mux.Handle("/api/v1/calibration/reset", sessionhttp.NewCalibrationResetHandler(sessionService, logger))
	mux.Handle("/api/v1/calibration/snapshot", sessionhttp.NewCalibrationSnapshotHandler(sessionService))
	mux.Handle("/api/v1/diagnosis/run", sessionhttp.NewDiagnosisHandler(sessionService, logger))
	mux.Handle("/api/v1/session/save-calibration", sessionhttp.NewSaveCalibrationHandler(sessionService, logger))
	mux.Handle("/api/v1/session/save-measurement", sessionhttp.NewSaveMeasurementHandler(sessionService, logger))
	mux.Handle("/api/v1/records/calibrations", calibrationListHandler)
	mux.Handle("/api/v1/records/measurements", measurementListHandler)
	mux.Handle("/api/v1/records/calibrations/", deleteHandler)
	mux.Handle("/api/v1/records/measurements/", deleteHandler)
	mux.Handle("/api/v1/exports/measurements/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

// auditLogger returns a nil Logger when no database is configured; the
// delete handler treats nil as audit disabled.
func auditLogger(db *sql.DB) audit.Logger {
	repo := audit.NewRepository(db)
	if repo == nil {
		return nil
	}
	return repo
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
