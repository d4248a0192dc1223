package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Drive    DriveConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir   string
	OutputDir string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	InsightTTLSeconds int
}

// EngineConfig carries the analysis constants. Every option has a
// documented default; brand lead times come from BRAND_LEAD_TIMES as
// "Brand=days" pairs separated by commas, and transfer route costs from
// TRANSFER_ROUTE_COSTS as "FROM->TO=cost" pairs.
type EngineConfig struct {
	TargetServiceLevel       float64
	HoldingCostPerUnit       float64
	HoldingCostPerUnitPerDay float64
	StockoutCostPerUnit      float64
	TransferCostPerUnit      float64
	DefaultLeadTimeDays      int
	BrandLeadTimes           map[string]int
	RouteCosts               map[string]float64
	RecentWindowDays         int
	HistoricalWindowDays     int
	OutlierThreshold         float64
	ExcessThreshold          float64
	ShortageThreshold        float64
	MaxTransfersPerSKU       int
	MaxTransfersTotal        int
	WorkerCount              int
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
	DownloadDir     string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stocksense")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_DATA_DIR", "./data/input")
		viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_INSIGHT_TTL_SECONDS", 300)

		viper.SetDefault("ENGINE_TARGET_SERVICE_LEVEL", 0.975)
		viper.SetDefault("ENGINE_HOLDING_COST_PER_UNIT", 2.0)
		viper.SetDefault("ENGINE_HOLDING_COST_PER_UNIT_PER_DAY", 0.05)
		viper.SetDefault("ENGINE_STOCKOUT_COST_PER_UNIT", 50.0)
		viper.SetDefault("ENGINE_TRANSFER_COST_PER_UNIT", 5.0)
		viper.SetDefault("ENGINE_DEFAULT_LEAD_TIME_DAYS", 14)
		viper.SetDefault("ENGINE_BRAND_LEAD_TIMES", "")
		viper.SetDefault("ENGINE_TRANSFER_ROUTE_COSTS", "")
		viper.SetDefault("ENGINE_RECENT_WINDOW_DAYS", 30)
		viper.SetDefault("ENGINE_HISTORICAL_WINDOW_DAYS", 180)
		viper.SetDefault("ENGINE_OUTLIER_THRESHOLD", 2.5)
		viper.SetDefault("ENGINE_EXCESS_THRESHOLD", 2.0)
		viper.SetDefault("ENGINE_SHORTAGE_THRESHOLD", -1.0)
		viper.SetDefault("ENGINE_MAX_TRANSFERS_PER_SKU", 10)
		viper.SetDefault("ENGINE_MAX_TRANSFERS_TOTAL", 30)
		viper.SetDefault("ENGINE_WORKER_COUNT", 4)

		viper.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
		viper.SetDefault("GOOGLE_DRIVE_FOLDER_ID", "")
		viper.SetDefault("GOOGLE_DRIVE_DOWNLOAD_DIR", "./data/downloads")

		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataDir:   viper.GetString("APP_DATA_DIR"),
				OutputDir: viper.GetString("APP_OUTPUT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				InsightTTLSeconds: viper.GetInt("CACHE_INSIGHT_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				TargetServiceLevel:       viper.GetFloat64("ENGINE_TARGET_SERVICE_LEVEL"),
				HoldingCostPerUnit:       viper.GetFloat64("ENGINE_HOLDING_COST_PER_UNIT"),
				HoldingCostPerUnitPerDay: viper.GetFloat64("ENGINE_HOLDING_COST_PER_UNIT_PER_DAY"),
				StockoutCostPerUnit:      viper.GetFloat64("ENGINE_STOCKOUT_COST_PER_UNIT"),
				TransferCostPerUnit:      viper.GetFloat64("ENGINE_TRANSFER_COST_PER_UNIT"),
				DefaultLeadTimeDays:      viper.GetInt("ENGINE_DEFAULT_LEAD_TIME_DAYS"),
				BrandLeadTimes:           parseBrandLeadTimes(viper.GetString("ENGINE_BRAND_LEAD_TIMES")),
				RouteCosts:               parseRouteCosts(viper.GetString("ENGINE_TRANSFER_ROUTE_COSTS")),
				RecentWindowDays:         viper.GetInt("ENGINE_RECENT_WINDOW_DAYS"),
				HistoricalWindowDays:     viper.GetInt("ENGINE_HISTORICAL_WINDOW_DAYS"),
				OutlierThreshold:         viper.GetFloat64("ENGINE_OUTLIER_THRESHOLD"),
				ExcessThreshold:          viper.GetFloat64("ENGINE_EXCESS_THRESHOLD"),
				ShortageThreshold:        viper.GetFloat64("ENGINE_SHORTAGE_THRESHOLD"),
				MaxTransfersPerSKU:       viper.GetInt("ENGINE_MAX_TRANSFERS_PER_SKU"),
				MaxTransfersTotal:        viper.GetInt("ENGINE_MAX_TRANSFERS_TOTAL"),
				WorkerCount:              viper.GetInt("ENGINE_WORKER_COUNT"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
				DownloadDir:     viper.GetString("GOOGLE_DRIVE_DOWNLOAD_DIR"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}

// parseBrandLeadTimes parses "Brand A=21,Brand B=7" into a map.
func parseBrandLeadTimes(raw string) map[string]int {
	out := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		brand := strings.TrimSpace(parts[0])
		days, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || days <= 0 {
			continue
		}
		out[brand] = days
	}
	return out
}

// parseRouteCosts parses "JAKARTA->PADANG=3.5,..." into a map keyed by
// "FROM->TO". Listing both directions yields asymmetric costs.
func parseRouteCosts(raw string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		route := strings.ToUpper(strings.TrimSpace(parts[0]))
		cost, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || cost < 0 {
			continue
		}
		out[route] = cost
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
