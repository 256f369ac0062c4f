package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	FlagPort    = "port"
	FlagEnvFile = "env-file"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration
	DraftTTL    time.Duration
	CORSOrigin  string
	AdminToken  string
	Environment string
	LogFile     string
	DebugSQL    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "sqlite://circuit.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("DRAFT_TTL", "720h")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("X_ADMIN_TOKEN", "")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("LOG_FILE", "logs/circuit.log")
	v.SetDefault("DEBUG_SQL", false)
}

// Load parses flags, loads the .env file and reads the environment.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("circuit", pflag.ContinueOnError)
	fs.String(FlagPort, "", "port to listen on (overrides PORT)")
	fs.String(FlagEnvFile, ".env", "path of the .env file to load")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString(FlagEnvFile)
	if err := godotenv.Load(envFile); err != nil {
		// Not fatal: in production the variables are set directly.
		log.Println("No .env file found, reading from environment")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	if port, _ := fs.GetString(FlagPort); port != "" {
		cfg.Port = port
	}
	return cfg, cfg.Validate()
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	tokenTTL, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	draftTTL, err := time.ParseDuration(v.GetString("DRAFT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid DRAFT_TTL: %w", err)
	}
	return &Config{
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		TokenTTL:    tokenTTL,
		DraftTTL:    draftTTL,
		CORSOrigin:  v.GetString("CORS_ORIGIN"),
		AdminToken:  v.GetString("X_ADMIN_TOKEN"),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),
		LogFile:     v.GetString("LOG_FILE"),
		DebugSQL:    v.GetBool("DEBUG_SQL"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be positive")
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("JWT_SECRET not set, using an insecure development secret")
		c.JWTSecret = "circuit-development-secret"
	}
	return nil
}
