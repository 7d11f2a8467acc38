package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DataDir           string   `mapstructure:"DATA_DIR"`
	SessionSecret     string   `mapstructure:"SESSION_SECRET"`
	WorkingHoursStart int      `mapstructure:"WORKING_HOURS_START"`
	WorkingHoursEnd   int      `mapstructure:"WORKING_HOURS_END"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("WORKING_HOURS_START", 9)
	v.SetDefault("WORKING_HOURS_END", 18)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_DIR")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("WORKING_HOURS_START")
	v.BindEnv("WORKING_HOURS_END")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() && cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET not set; using an insecure development secret.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		cfg.SessionSecret = "clinicbook-dev-secret"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real SESSION_SECRET must be provided, and the working-hour window must be
// a valid inclusive range of day hours.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.SessionSecret == "" || c.SessionSecret == "clinicbook-dev-secret") {
		return fmt.Errorf("SESSION_SECRET must be set when ENV=%q", c.Env)
	}
	if c.WorkingHoursStart < 0 || c.WorkingHoursStart > 23 {
		return fmt.Errorf("WORKING_HOURS_START must be within 0-23, got %d", c.WorkingHoursStart)
	}
	if c.WorkingHoursEnd < 0 || c.WorkingHoursEnd > 23 {
		return fmt.Errorf("WORKING_HOURS_END must be within 0-23, got %d", c.WorkingHoursEnd)
	}
	if c.WorkingHoursEnd < c.WorkingHoursStart {
		return fmt.Errorf("WORKING_HOURS_END (%d) must not precede WORKING_HOURS_START (%d)",
			c.WorkingHoursEnd, c.WorkingHoursStart)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}
