package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port         string
	LogLevel     string
	StoreBackend string

	MongoURI              string
	DBName                string
	CasesCollection       string
	CaseAuditCollection   string
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	JWTSecret             string
	AuthFlowSecret        string
	SessionTTL            time.Duration
	LoginPath             string
	CitizenHomePath       string
	OfficerHomePath       string
	ChairmanHomePath      string
	ChairmanSuperuser     bool
	DefaultEmptyToCitizen bool
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", BackendMongo),

		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:                getEnv("DB_NAME", "caseportal"),
		CasesCollection:       getEnv("COLLECTION_CASES", "cases"),
		CaseAuditCollection:   getEnv("COLLECTION_CASE_AUDIT", "case_audit"),
		ReadTimeout:           getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:          getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AuthFlowSecret:        os.Getenv("AUTH_FLOW_SECRET"),
		SessionTTL:            getEnvDuration("SESSION_TTL", 8*time.Hour),
		LoginPath:             getEnv("LOGIN_PATH", "/login"),
		CitizenHomePath:       getEnv("CITIZEN_HOME_PATH", "/citizen"),
		OfficerHomePath:       getEnv("OFFICER_HOME_PATH", "/officer"),
		ChairmanHomePath:      getEnv("CHAIRMAN_HOME_PATH", "/chairman"),
		ChairmanSuperuser:     getEnvBool("GUARD_CHAIRMAN_SUPERUSER", true),
		DefaultEmptyToCitizen: getEnvBool("GUARD_DEFAULT_EMPTY_TO_CITIZEN", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StoreBackend)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 16 characters")
	}
	if len(c.AuthFlowSecret) < 16 {
		return fmt.Errorf("AUTH_FLOW_SECRET is required and must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvDuration accepts whole seconds ("30") or a duration string ("30s").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}

func getEnvBool(key string, fallback bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return fallback
	}
	return val
}
