// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Ozon     OzonConfig
	Pricing  PricingConfig
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
	DataDir    string
	ExportsDir string
	// CatalogPath points at the products CSV used by the catalog provider.
	CatalogPath string
	// TunablesPath is the JSON file holding runtime threshold overrides.
	TunablesPath string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	FunnelTTLSeconds int
}

// OzonConfig carries the seller API credentials.
type OzonConfig struct {
	BaseURL  string
	ClientID string
	APIKey   string
}

type PricingConfig struct {
	SheetID         string
	Range           string
	CredentialsJSON string
	CacheFile       string
	TTLSeconds      int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
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

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "sellerpulse")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("APP_EXPORTS_DIR", "./data/exports")
		viper.SetDefault("APP_CATALOG_PATH", "./data/products.csv")
		viper.SetDefault("APP_TUNABLES_PATH", "./data/tunables.json")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FUNNEL_TTL_SECONDS", 60)
		viper.SetDefault("OZON_BASE_URL", "https://api-seller.ozon.ru")
		viper.SetDefault("PRICING_RANGE", "Sheet1!A2:G999")
		viper.SetDefault("PRICING_CACHE_FILE", "./data/pricing.json")
		viper.SetDefault("PRICING_TTL_SECONDS", 3600)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure data and exports directories exist
		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("APP_EXPORTS_DIR"))

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
				DataDir:      viper.GetString("APP_DATA_DIR"),
				ExportsDir:   viper.GetString("APP_EXPORTS_DIR"),
				CatalogPath:  viper.GetString("APP_CATALOG_PATH"),
				TunablesPath: viper.GetString("APP_TUNABLES_PATH"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				FunnelTTLSeconds: viper.GetInt("CACHE_FUNNEL_TTL_SECONDS"),
			},
			Ozon: OzonConfig{
				BaseURL:  viper.GetString("OZON_BASE_URL"),
				ClientID: viper.GetString("OZON_CLIENT_ID"),
				APIKey:   viper.GetString("OZON_API_KEY"),
			},
			Pricing: PricingConfig{
				SheetID:         viper.GetString("PRICING_SHEET_ID"),
				Range:           viper.GetString("PRICING_RANGE"),
				CredentialsJSON: viper.GetString("GOOGLE_SHEETS_CREDENTIALS_JSON"),
				CacheFile:       viper.GetString("PRICING_CACHE_FILE"),
				TTLSeconds:      viper.GetInt("PRICING_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
