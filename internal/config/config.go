package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Artifacts ArtifactsConfig
	Worker    WorkerConfig
	Scoring   ScoringConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	EmbedModel  string
	CallTimeout time.Duration
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type ArtifactsConfig struct {
	Path string
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// ScoringConfig holds the weighted-category point table. The seven category
// maxima must sum to 100; Validate enforces this at startup.
type ScoringConfig struct {
	TechnicalPoints      float64
	SoftPoints           float64
	DomainPoints         float64
	CoreCompetencyPoints float64
	ExperiencePoints     float64
	PotentialPoints      float64
	CompanyFitPoints     float64
	BonusClamp           float64
}

// Validate checks that category maxima cover exactly 100 points.
func (s ScoringConfig) Validate() error {
	sum := s.TechnicalPoints + s.SoftPoints + s.DomainPoints +
		s.CoreCompetencyPoints + s.ExperiencePoints + s.PotentialPoints + s.CompanyFitPoints
	if sum < 99.999 || sum > 100.001 {
		return fmt.Errorf("scoring weights must sum to 100, got %.2f", sum)
	}
	if s.BonusClamp < 0 {
		return fmt.Errorf("bonus clamp must be non-negative, got %.2f", s.BonusClamp)
	}
	return nil
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cv_tailor"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "cv_tailor_context"),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:  getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			CallTimeout: getEnvAsDuration("GEMINI_CALL_TIMEOUT", "60s"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Artifacts: ArtifactsConfig{
			Path: getEnv("ARTIFACTS_PATH", "./artifacts"),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Scoring: ScoringConfig{
			TechnicalPoints:      getEnvAsFloat("SCORE_TECHNICAL_POINTS", 20),
			SoftPoints:           getEnvAsFloat("SCORE_SOFT_POINTS", 15),
			DomainPoints:         getEnvAsFloat("SCORE_DOMAIN_POINTS", 5),
			CoreCompetencyPoints: getEnvAsFloat("SCORE_CORE_COMPETENCY_POINTS", 25),
			ExperiencePoints:     getEnvAsFloat("SCORE_EXPERIENCE_POINTS", 20),
			PotentialPoints:      getEnvAsFloat("SCORE_POTENTIAL_POINTS", 10),
			CompanyFitPoints:     getEnvAsFloat("SCORE_COMPANY_FIT_POINTS", 5),
			BonusClamp:           getEnvAsFloat("SCORE_BONUS_CLAMP", 5),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
