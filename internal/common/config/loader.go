// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the YAML config plus environment overrides and applies the
// policy defaults.
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "timesheet-planner"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8086"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30000
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 2
	}
	if cfg.Timesheets.DailyHourCap == 0 {
		cfg.Timesheets.DailyHourCap = 12
	}
	if cfg.Timesheets.BreakRequiredAfterHours == 0 {
		cfg.Timesheets.BreakRequiredAfterHours = 6
	}
	if cfg.Timesheets.BreakMinMinutes == 0 {
		cfg.Timesheets.BreakMinMinutes = 30
	}
	if cfg.Timesheets.WeekStart == "" {
		cfg.Timesheets.WeekStart = "monday"
	}
	if cfg.Notifications.AuditIndex == "" {
		cfg.Notifications.AuditIndex = "plan-audit"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Timesheets.DailyHourCap <= 0 || cfg.Timesheets.DailyHourCap > 24 {
		return fmt.Errorf("timesheets.daily_hour_cap must be in (0, 24], got %g", cfg.Timesheets.DailyHourCap)
	}
	if cfg.Timesheets.BreakRequiredAfterHours <= 0 {
		return fmt.Errorf("timesheets.break_required_after_hours must be positive, got %g", cfg.Timesheets.BreakRequiredAfterHours)
	}
	if cfg.Timesheets.BreakMinMinutes <= 0 {
		return fmt.Errorf("timesheets.break_min_minutes must be positive, got %d", cfg.Timesheets.BreakMinMinutes)
	}
	switch strings.ToLower(cfg.Timesheets.WeekStart) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
	default:
		return fmt.Errorf("timesheets.week_start is not a weekday name: %q", cfg.Timesheets.WeekStart)
	}
	return nil
}
