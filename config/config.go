package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "default_secret_CHANGE_ME"

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
	// Session
	SessionSecret string
	SessionTTL    time.Duration
	// Catalog feed
	CatalogURL      string
	CatalogTimeout  time.Duration
	CacheCatalogTTL time.Duration
	// Cart storage
	StorageDriver  string // memory, file, postgres, s3
	StorageFile    string
	StorageTimeout time.Duration
	CartStorageKey string
	// DB Config
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// S3 storage
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	// Coupons
	CouponCodes   map[string]int
	CouponLatency time.Duration
	// Checkout
	CheckoutBaseURL     string
	CheckoutDestination string
	// Business Rules
	MaxCartQuantity int
	ProductsPerPage int
	CategoryNames   map[string]string
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionTTL:    getDurationEnv("SESSION_TTL", 2*time.Hour),

		CatalogURL:      getEnv("CATALOG_URL", "assets/js/products.json"),
		CatalogTimeout:  getDurationEnv("CATALOG_TIMEOUT", 10*time.Second),
		CacheCatalogTTL: getDurationEnv("CACHE_CATALOG_TTL", 10*time.Minute),

		StorageDriver:  getEnv("STORAGE_DRIVER", "memory"),
		StorageFile:    getEnv("STORAGE_FILE", "data/storage.json"),
		StorageTimeout: getDurationEnv("STORAGE_TIMEOUT", 10*time.Second),
		CartStorageKey: getEnv("CART_STORAGE_KEY", "marvellaCart"),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 10),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 1),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", 15*time.Minute),

		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", "storage/"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),

		// One code in the storefront: #CLIENT12 -> 12%
		CouponCodes:   getCouponEnv("COUPON_CODES", map[string]int{"#CLIENT12": 12}),
		CouponLatency: getDurationEnv("COUPON_LATENCY", 600*time.Millisecond),

		CheckoutBaseURL:     getEnv("CHECKOUT_BASE_URL", "https://wa.me"),
		CheckoutDestination: getEnv("CHECKOUT_DESTINATION", "557381817294"),

		MaxCartQuantity: getIntEnv("MAX_CART_QUANTITY", 1000),
		ProductsPerPage: getIntEnv("PRODUCTS_PER_PAGE", 12),
		CategoryNames:   getCategoryNamesEnv("CATEGORY_DISPLAY_NAMES"),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

// Validate reports configuration that cannot work for the selected drivers.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == defaultSessionSecret {
		log.Println("WARNING: Using default session secret. Set SESSION_SECRET in production.")
	}
	switch c.StorageDriver {
	case "memory":
	case "file":
		if c.StorageFile == "" {
			errs = append(errs, errors.New("STORAGE_FILE is required for the file storage driver"))
		}
	case "postgres":
		if c.DBUrl == "" {
			errs = append(errs, errors.New("DB_DSN is required for the postgres storage driver"))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 storage driver"))
		}
	default:
		errs = append(errs, errors.New("unknown STORAGE_DRIVER: "+c.StorageDriver))
	}
	if c.CatalogURL == "" {
		errs = append(errs, errors.New("CATALOG_URL is required"))
	}
	if c.CheckoutDestination == "" {
		errs = append(errs, errors.New("CHECKOUT_DESTINATION is required"))
	}
	if c.MaxCartQuantity < 1 {
		errs = append(errs, errors.New("MAX_CART_QUANTITY must be at least 1"))
	}
	if c.ProductsPerPage < 1 {
		errs = append(errs, errors.New("PRODUCTS_PER_PAGE must be at least 1"))
	}
	if c.StorageTimeout <= 0 {
		errs = append(errs, errors.New("STORAGE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
