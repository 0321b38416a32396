package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendBedrock = "bedrock"
	BackendOpenAI  = "openai"

	RenderFile  = "file"
	RenderKafka = "kafka"
	RenderNone  = "none"
)

type Config struct {
	// Source application
	BaseURL  string
	User     string
	Password string

	// Browser
	ChromeHeadless bool
	ChromePath     string

	// Navigation
	StepTimeout           time.Duration
	EmergencyCloseTimeout time.Duration
	PollInterval          time.Duration
	PatientAttempts       int

	// Inference
	InferenceBackend      string
	LocalModelID          string
	LLMBaseURL            string
	LLMAPIKey             string
	InferenceTokenURL     string
	InferenceClientID     string
	InferenceClientSecret string
	InferenceTimeout      time.Duration
	InferenceMaxTokens    int
	InferenceRetries      int

	// AWS
	AWSKeyID       string
	AWSSecretKey   string
	AWSRegion      string
	BedrockModelID string

	// Enrichment
	EnrichmentMaxChars int
	EnrichmentWorkers  int
	EnrichmentCacheTTL time.Duration
	RedactPrompts      bool
	RedactRulesPath    string

	// Reference tables
	LabelRulesPath        string
	ClassifierRulesPath   string
	MedicationCatalogPath string

	// Output
	OutputPath     string
	DiagnosticsDir string
	ReportTemplate string
	ReportDir      string
	RenderMode     string

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	KafkaRenderTopic string

	// Database
	StoreEnabled     bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MetricsAddr string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BaseURL:  strings.TrimRight(getEnv("FASTCLINICA_URL", ""), "/"),
		User:     getEnv("FASTCLINICA_USER", ""),
		Password: getEnv("FASTCLINICA_PASS", ""),

		ChromeHeadless: getBoolEnv("CHROME_HEADLESS", true),
		ChromePath:     getEnv("CHROME_PATH", ""),

		StepTimeout:           getDuration("STEP_TIMEOUT", 20*time.Second),
		EmergencyCloseTimeout: getDuration("EMERGENCY_CLOSE_TIMEOUT", 3*time.Second),
		PollInterval:          getDuration("POLL_INTERVAL", 250*time.Millisecond),
		PatientAttempts:       getIntEnv("PATIENT_ATTEMPTS", 1),

		InferenceBackend:      strings.ToLower(getEnv("INFERENCE_BACKEND", BackendBedrock)),
		LocalModelID:          getEnv("LOCAL_MODEL_ID", ""),
		LLMBaseURL:            getEnv("LLM_BASE_URL", "http://localhost:8000/v1"),
		LLMAPIKey:             getEnv("LLM_API_KEY", ""),
		InferenceTokenURL:     getEnv("INFERENCE_TOKEN_URL", ""),
		InferenceClientID:     getEnv("INFERENCE_CLIENT_ID", ""),
		InferenceClientSecret: getEnv("INFERENCE_CLIENT_SECRET", ""),
		InferenceTimeout:      getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		InferenceMaxTokens:    getIntEnv("INFERENCE_MAX_TOKENS", 4000),
		InferenceRetries:      getIntEnv("INFERENCE_RETRIES", 2),

		AWSKeyID:       getEnv("AWS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID: getEnv("AWS_BEDROCK_MODEL_ID", ""),

		EnrichmentMaxChars: getIntEnv("ENRICHMENT_MAX_CHARS", 2000),
		EnrichmentWorkers:  getIntEnv("ENRICHMENT_WORKERS", 4),
		EnrichmentCacheTTL: getDuration("ENRICHMENT_CACHE_TTL", 0),
		RedactPrompts:      getBoolEnv("REDACT_PROMPTS", false),
		RedactRulesPath:    getEnv("REDACT_RULES_PATH", ""),

		LabelRulesPath:        getEnv("LABEL_RULES_PATH", ""),
		ClassifierRulesPath:   getEnv("CLASSIFIER_RULES_PATH", ""),
		MedicationCatalogPath: getEnv("MEDICATION_CATALOG_PATH", ""),

		OutputPath:     getEnv("OUTPUT_PATH", "examples/resultados_pacientes_completos.json"),
		DiagnosticsDir: getEnv("DIAGNOSTICS_DIR", "."),
		ReportTemplate: getEnv("REPORT_TEMPLATE", ""),
		ReportDir:      getEnv("REPORT_DIR", "informes_pacientes"),
		RenderMode:     strings.ToLower(getEnv("RENDER_MODE", RenderFile)),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "chart-extractor"),
		KafkaRenderTopic: getEnv("KAFKA_RENDER_TOPIC", "patient-documents"),

		StoreEnabled:     getBoolEnv("STORE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "extractor"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "extractor"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}
}

// ModelID is the model identifier handed to the configured inference backend.
func (c *Config) ModelID() string {
	if c.InferenceBackend == BackendOpenAI {
		return c.LocalModelID
	}
	return c.BedrockModelID
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"FASTCLINICA_URL":  c.BaseURL,
		"FASTCLINICA_USER": c.User,
		"FASTCLINICA_PASS": c.Password,
	}
	for _, key := range []string{"FASTCLINICA_URL", "FASTCLINICA_USER", "FASTCLINICA_PASS"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	switch c.InferenceBackend {
	case BackendBedrock:
		if c.BedrockModelID == "" {
			errs = append(errs, errors.New("AWS_BEDROCK_MODEL_ID is required for the bedrock backend"))
		}
	case BackendOpenAI:
		if c.LocalModelID == "" {
			errs = append(errs, errors.New("LOCAL_MODEL_ID is required for the openai backend"))
		}
		if c.LLMBaseURL == "" {
			errs = append(errs, errors.New("LLM_BASE_URL is required for the openai backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("INFERENCE_BACKEND %q not supported", c.InferenceBackend))
	}

	switch c.RenderMode {
	case RenderFile, RenderKafka, RenderNone:
	default:
		errs = append(errs, fmt.Errorf("RENDER_MODE %q not supported", c.RenderMode))
	}

	if c.PatientAttempts < 1 {
		errs = append(errs, errors.New("PATIENT_ATTEMPTS must be at least 1"))
	}
	if c.EnrichmentWorkers < 1 {
		errs = append(errs, errors.New("ENRICHMENT_WORKERS must be at least 1"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
