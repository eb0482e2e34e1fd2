package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// SessionOverride defines overrides to apply to sessions whose date matches the rrule
type SessionOverride struct {
	RRule                string `yaml:"rrule" validate:"required"`
	LeadStaffRequired    *int   `yaml:"leadStaffRequired,omitempty" validate:"omitempty,min=0"`
	SupportStaffRequired *int   `yaml:"supportStaffRequired,omitempty" validate:"omitempty,min=0"`
	Closed               bool   `yaml:"closed,omitempty"`
}

// Weights is the share of the final score given to each sub-score
type Weights struct {
	Availability     float64 `yaml:"availability" validate:"min=0"`
	SkillMatch       float64 `yaml:"skillMatch" validate:"min=0"`
	SkillLevel       float64 `yaml:"skillLevel" validate:"min=0"`
	Preference       float64 `yaml:"preference" validate:"min=0"`
	Experience       float64 `yaml:"experience" validate:"min=0"`
	WorkloadFairness float64 `yaml:"workloadFairness" validate:"min=0"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Availability + w.SkillMatch + w.SkillLevel + w.Preference + w.Experience + w.WorkloadFairness
}

// Thresholds are the minimum sub-scores a candidate must reach
type Thresholds struct {
	SkillMatch *float64 `yaml:"skillMatch,omitempty" validate:"omitempty,min=0,max=1"`
	SkillLevel *float64 `yaml:"skillLevel,omitempty" validate:"omitempty,min=0,max=1"`
}

// Scoring configures the allocator. Omitted values fall back to the defaults.
type Scoring struct {
	Weights    *Weights   `yaml:"weights,omitempty"`
	Thresholds Thresholds `yaml:"thresholds,omitempty"`

	// TopFraction restricts the final pick to the best-scoring share of candidates.
	// 0 picks the single top score.
	TopFraction *float64 `yaml:"topFraction,omitempty" validate:"omitempty,min=0,max=1"`

	TieBreakOrder   []string `yaml:"tieBreakOrder,omitempty" validate:"dive,oneof=skill_match skill_level assigned_hours facilitator_id"`
	ExperienceCap   int      `yaml:"experienceCap,omitempty" validate:"min=0"`
	EnforceMaxHours bool     `yaml:"enforceMaxHours,omitempty"`
}

// Notifications configures swap emails
type Notifications struct {
	Enabled     bool   `yaml:"enabled"`
	GmailUserID string `yaml:"gmailUserID" validate:"required_if=Enabled true"`
	GmailSender string `yaml:"gmailSender,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	// Timezone is the IANA zone session dates are matched in
	Timezone string `yaml:"timezone,omitempty" validate:"omitempty,timezone"`

	Scoring          Scoring           `yaml:"scoring,omitempty"`
	SessionOverrides []SessionOverride `yaml:"sessionOverrides,omitempty" validate:"dive"`

	ReportSheetID string `yaml:"reportSheetID,omitempty"`
	ReportTab     string `yaml:"reportTab,omitempty"`

	Notifications Notifications `yaml:"notifications,omitempty"`
}

// Location returns the configured timezone, or UTC if none is set
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from facilitator_config.yaml.
// It looks for the config file in the current directory first, then in the user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix.
// For example, env="test" will look for "facilitator_config.test.yaml".
// A .env file in the working directory is loaded first if present.
func LoadWithEnv(env string) (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, weight totals and rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if w := cfg.Scoring.Weights; w != nil {
		if sum := w.Sum(); math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("config validation failed: scoring weights must sum to 1, got %.6f", sum)
		}
	}

	// Validate rrule syntax for each override
	for i, override := range cfg.SessionOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in sessionOverrides[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile returns the path of the config file for env
func findConfigFile(env string) (string, error) {
	configFileName := "facilitator_config.yaml"
	if env != "" {
		configFileName = "facilitator_config." + env + ".yaml"
	}
	return findFile(configFileName)
}

// findFile searches for a file in the current directory, then the home directory
func findFile(name string) (string, error) {
	// Check current directory
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
