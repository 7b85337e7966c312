package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hiko-crawler/models"
)

// MinRateLimitMs is the lowest politeness delay allowed between page fetches.
const MinRateLimitMs = 300

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	StoreDriver      string

	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	PagesToScrape   int
	TimeFilterHours int
	DealTTLDays     int
	NavTimeoutSec   int
	FetchDetails    bool

	CSVOutputPath string
	ChromeBin     string
	CrawlSources  []models.Source
	SourcesFile   string
	Timezone      string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	StateDir string

	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	HTTPAddr         string
	SweepIntervalMin int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	rateLimit := getEnvInt("RATE_LIMIT_MS", 1000)
	if rateLimit < MinRateLimitMs {
		rateLimit = MinRateLimitMs
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "hiko"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "hiko123"),
		PostgresDB:       getEnv("POSTGRES_DB", "hiko"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		StoreDriver:      getEnv("STORE_DRIVER", "postgres"),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     rateLimit,
		MaxRetries:      getEnvInt("MAX_RETRIES", 2),
		PagesToScrape:   getEnvInt("PAGES_TO_SCRAPE", 2),
		TimeFilterHours: getEnvInt("TIME_FILTER_HOURS", 24),
		DealTTLDays:     getEnvInt("DEAL_TTL_DAYS", 7),
		NavTimeoutSec:   getEnvInt("NAV_TIMEOUT_SEC", 30),
		FetchDetails:    getEnvBool("FETCH_DETAILS", false),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		CrawlSources:  parseSources(getEnv("CRAWL_SOURCES", "")),
		SourcesFile:   getEnv("SOURCES_FILE", "./sources.yaml"),
		Timezone:      getEnv("TIMEZONE", "Asia/Seoul"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "hiko.hotdeals"),

		StateDir: getEnv("STATE_DIR", ""),

		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "ap-northeast-2"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		SweepIntervalMin: getEnvInt("SWEEP_INTERVAL_MIN", 60),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Location resolves the configured timezone. Hosts without tzdata fall
// back to a fixed KST offset.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// TimeFilter is the crawl cutoff window. Zero disables filtering.
func (c *Config) TimeFilter() time.Duration {
	if c.TimeFilterHours <= 0 {
		return 0
	}
	return time.Duration(c.TimeFilterHours) * time.Hour
}

// DealTTL is how long a deal stays active when the source gives no end date.
func (c *Config) DealTTL() time.Duration {
	return time.Duration(c.DealTTLDays) * 24 * time.Hour
}

// SourcesToCrawl returns the configured sources, or all of them when
// CRAWL_SOURCES is unset.
func (c *Config) SourcesToCrawl() []models.Source {
	if len(c.CrawlSources) == 0 {
		return models.AllSources()
	}
	return c.CrawlSources
}

func parseSources(raw string) []models.Source {
	var out []models.Source
	for _, name := range splitList(raw) {
		src, err := models.ParseSource(name)
		if err != nil {
			log.Printf("[config] ignoring %v", err)
			continue
		}
		out = append(out, src)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
