package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/retailpulse/stocksense/internal/config"
	"github.com/retailpulse/stocksense/internal/engine"
	"github.com/retailpulse/stocksense/internal/ingest"
	"github.com/retailpulse/stocksense/internal/repository"
	"github.com/retailpulse/stocksense/internal/repository/postgres"
	"github.com/retailpulse/stocksense/internal/service"
	"github.com/retailpulse/stocksense/internal/storage"

	_ "github.com/retailpulse/stocksense/pkg/logger"
)

var db *postgres.DB

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "orders",
			Usage:    "Order history CSV/XLSX file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "inventory",
			Usage:    "Inventory snapshot CSV/XLSX file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "pending",
			Usage: "Pending orders CSV/XLSX file (optional)",
		},
	}
}

func initDB(c *cli.Context) error {
	var err error
	db, err = postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func closeDB(c *cli.Context) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

func newService() *service.InsightService {
	cfg := config.Load()
	repo := repository.NewInsightRepository(db)
	return service.NewInsightService(repo, nil, service.EngineConfigFromApp(cfg.Engine))
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "analyze",
		Usage: "Run inventory analysis batches from CSV files or Postgres",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Analyze CSV dataset files and write result CSVs",
				Flags: append(datasetFlags(),
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Output directory for result files",
						EnvVars: []string{"APP_OUTPUT_DIR"},
					},
				),
				Action: runCSV,
			},
			{
				Name:   "import",
				Usage:  "Load CSV dataset files into Postgres",
				Flags:  append(datasetFlags(), newDBURLFlag()),
				Before: initDB,
				After:  closeDB,
				Action: runImport,
			},
			{
				Name:   "db",
				Usage:  "Analyze the dataset stored in Postgres and persist the run",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runDB,
			},
			{
				Name:  "export",
				Usage: "Write the latest persisted run as CSVs and upload to object storage",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Output directory for result files",
						EnvVars: []string{"APP_OUTPUT_DIR"},
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix for uploads",
						Value: "exports",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}

func loadDataset(c *cli.Context) (*ingest.Dataset, error) {
	return ingest.LoadDataset(c.String("orders"), c.String("inventory"), c.String("pending"))
}

func outputDir(c *cli.Context) string {
	if out := c.String("out"); out != "" {
		return out
	}
	return config.Load().App.OutputDir
}

func runCSV(c *cli.Context) error {
	cfg := config.Load()

	ds, err := loadDataset(c)
	if err != nil {
		return err
	}

	analyzer := engine.NewAnalyzer(service.EngineConfigFromApp(cfg.Engine))
	result, err := analyzer.Run(c.Context, engine.AnalyzeInput{
		Orders:    ds.Orders,
		Inventory: ds.Inventory,
		Pending:   ds.Pending,
		Ref:       time.Now(),
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	paths, err := writeResultFiles(outputDir(c), &result)
	if err != nil {
		return err
	}

	// Store-level order-sheet granularity rides along with the run.
	variants := engine.BuildVariantDemand(ds.Orders, ds.Inventory, result.RunAt, cfg.Engine.RecentWindowDays)
	variantPath, err := writeVariantDemandFile(outputDir(c), variants)
	if err != nil {
		return err
	}
	paths = append(paths, variantPath)

	log.Info().
		Int("products", len(result.Insights)).
		Int("transfers", len(result.Transfers)).
		Strs("files", paths).
		Msg("analysis complete")
	return nil
}

func runImport(c *cli.Context) error {
	ds, err := loadDataset(c)
	if err != nil {
		return err
	}
	return newService().ImportDataset(c.Context, ds)
}

func runDB(c *cli.Context) error {
	start := time.Now()
	result, err := newService().RunAnalysis(c.Context)
	if err != nil {
		return err
	}

	log.Info().
		Int("products", len(result.Insights)).
		Int("transfers", len(result.Transfers)).
		Dur("took", time.Since(start)).
		Msg("analysis run persisted")
	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()

	repo := repository.NewInsightRepository(db)
	result, err := repo.GetLatestRun(c.Context)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no analysis run to export; run `analyze db` first")
	}

	paths, err := writeResultFiles(outputDir(c), result)
	if err != nil {
		return err
	}
	log.Info().Strs("files", paths).Msg("result files written")

	if cfg.Storage.Endpoint == "" {
		log.Info().Msg("no object storage configured; skipping upload")
		return nil
	}

	client, err := storage.NewS3Client(cfg.Storage)
	if err != nil {
		return err
	}

	keyPrefix := fmt.Sprintf("%s/%s", c.String("prefix"), result.RunAt.Format("20060102"))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		key := fmt.Sprintf("%s/%s", keyPrefix, filepath.Base(path))
		if err := client.UploadObject(c.Context, key, data); err != nil {
			return err
		}
		log.Info().Str("key", key).Msg("uploaded")
	}
	return nil
}
