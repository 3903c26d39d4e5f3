// cmd/tools/import-students/main.go
//
// Bulk-loads student records from a CSV file through the same
// duplicate-guarded create path as the API. Rows matching an existing
// record with high confidence are skipped and reported.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"student-records/internal/common/config"
	"student-records/internal/common/database"
	"student-records/internal/common/logger"
	"student-records/internal/importer"
	"student-records/internal/matching"
	"student-records/internal/store"
	"student-records/internal/students"
	"student-records/pkg/registry"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to the CSV file to import")
		preset   = flag.String("preset", "", "matching preset to guard creates with (default from config)")
		timeout  = flag.Duration("timeout", 10*time.Minute, "overall import timeout")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: import-students -file students.csv [-preset strict]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redis.Close()

	defaultPreset := cfg.Matching.DefaultPreset
	if *preset != "" {
		defaultPreset = *preset
	}

	candidateStore := store.NewPostgresCandidateStore(pg.DB)
	detector := matching.NewDetector(candidateStore, log)
	profiles := store.NewProfileStore(redis.Client, time.Duration(cfg.Matching.CriteriaCacheTTL)*time.Second)

	repo := students.NewRepository(pg.DB)
	service := students.NewService(repo, detector, profiles, students.ServiceConfig{
		DefaultPreset:     defaultPreset,
		RejectOnHighMatch: true,
	}, log)

	schemaRegistry, err := registry.Load(cfg.Registry.SchemaPath)
	if err != nil {
		zapLog.Fatal("schema registry load failed", zap.Error(err))
	}

	file, err := os.Open(*filePath)
	if err != nil {
		zapLog.Fatal("open import file failed", zap.Error(err))
	}
	defer file.Close()

	report, err := importer.New(service, schemaRegistry, log).Run(ctx, file)
	if err != nil {
		zapLog.Fatal("import failed", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		zapLog.Fatal("report encoding failed", zap.Error(err))
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
