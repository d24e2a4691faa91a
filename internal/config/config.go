package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env       string `envconfig:"ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"5005"`
	MongoURL  string `envconfig:"MONGO_URL" default:"mongodb://localhost:27017"`
	MongoDB   string `envconfig:"MONGO_DB" default:"messenger"`
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-jwt-secret-not-for-production-use"`

	BotToken string `envconfig:"BOT_TOKEN"`

	// ReportTZ is the time zone used to render period boundaries in
	// report rows. Dashboard operators work from Moscow.
	ReportTZ string `envconfig:"REPORT_TZ" default:"Europe/Moscow"`

	// Stage values used by the conversion-rate metric.
	CRInitialStage string `envconfig:"CR_INITIAL_STAGE" default:"raw"`
	CRSuccessStage string `envconfig:"CR_SUCCESS_STAGE" default:"active"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ReportLocation resolves ReportTZ, falling back to UTC on a bad name.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReportTZ)
	if err != nil {
		log.Warn().Str("tz", c.ReportTZ).Msg("Unknown report time zone, using UTC")
		return time.UTC
	}
	return loc
}
