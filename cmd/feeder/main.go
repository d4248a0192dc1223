package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/retailpulse/stocksense/internal/config"
	"github.com/retailpulse/stocksense/internal/drive"
	"github.com/retailpulse/stocksense/internal/repository"
	"github.com/retailpulse/stocksense/internal/repository/postgres"
	"github.com/retailpulse/stocksense/internal/service"
	"github.com/retailpulse/stocksense/pkg/logger"
)

// The feeder is the ingest-side server: it exposes the Google Drive
// feed folder and pushes synced datasets into Postgres for the main
// API server to analyze.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	driveService, err := drive.NewService(cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	repo := repository.NewInsightRepository(db)
	insightService := service.NewInsightService(repo, nil, service.EngineConfigFromApp(cfg.Engine))

	r := mux.NewRouter()

	driveHandler := drive.NewHandler(driveService, insightService, drive.DownloadOptions{
		FolderID:    cfg.Drive.FolderID,
		DownloadDir: cfg.Drive.DownloadDir,
	})
	driveHandler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("Feeder starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Feeder stopped")
	}
}
