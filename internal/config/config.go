// Package config loads the agent configuration from YAML, environment, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/outreach"
)

// CronParser parses schedule.cron. Seconds are optional and descriptors
// such as @daily and @every 1h are accepted.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// EnvPrefix prefixes every environment override, e.g. LEAD_AGENT_LOG_LEVEL.
const EnvPrefix = "LEAD_AGENT"

// Config holds the full application configuration.
type Config struct {
	Business   BusinessConfig    `yaml:"business" mapstructure:"business"`
	Store      StoreConfig       `yaml:"store" mapstructure:"store"`
	Scoring    ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Templates  map[string]string `yaml:"templates" mapstructure:"templates"`
	Automation AutomationConfig  `yaml:"automation" mapstructure:"automation"`
	Report     ReportConfig      `yaml:"report" mapstructure:"report"`
	Schedule   ScheduleConfig    `yaml:"schedule" mapstructure:"schedule"`
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	Log        LogConfig         `yaml:"log" mapstructure:"log"`

	// Warnings collects recoverable problems found while loading, to be
	// logged once the logger exists.
	Warnings []string `yaml:"-" mapstructure:"-"`
}

// BusinessConfig describes the business the agent generates leads for.
type BusinessConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Owner    string `yaml:"owner" mapstructure:"owner"`
	Location string `yaml:"location" mapstructure:"location"`
}

// StoreConfig configures lead persistence.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DataDir       string `yaml:"data_dir" mapstructure:"data_dir"`
	LeadsFile     string `yaml:"leads_file" mapstructure:"leads_file"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	MaxLeads      int    `yaml:"max_leads" mapstructure:"max_leads"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
}

// LeadsPath returns the leads file location, resolved against DataDir.
func (s StoreConfig) LeadsPath() string {
	return resolve(s.DataDir, s.LeadsFile)
}

// Retention returns the retention window as a duration. Zero disables pruning.
func (s StoreConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// ScoringConfig holds the keyword lists and weights used by the scorer.
type ScoringConfig struct {
	HighPriorityKeywords   []string       `yaml:"high_priority_keywords" mapstructure:"high_priority_keywords"`
	MediumPriorityKeywords []string       `yaml:"medium_priority_keywords" mapstructure:"medium_priority_keywords"`
	TargetLocations        []string       `yaml:"target_locations" mapstructure:"target_locations"`
	TargetDemographics     []string       `yaml:"target_demographics" mapstructure:"target_demographics"`
	UrgencyWords           []string       `yaml:"urgency_words" mapstructure:"urgency_words"`
	HelpIndicators         []string       `yaml:"help_indicators" mapstructure:"help_indicators"`
	UnknownLocation        string         `yaml:"unknown_location" mapstructure:"unknown_location"`
	Weights                WeightsConfig  `yaml:"weights" mapstructure:"weights"`
	PlatformBonus          map[string]int `yaml:"platform_bonus" mapstructure:"platform_bonus"`
}

// WeightsConfig holds the points awarded per scoring category.
type WeightsConfig struct {
	HighPriority     int `yaml:"high_priority" mapstructure:"high_priority"`
	MediumPriority   int `yaml:"medium_priority" mapstructure:"medium_priority"`
	LocationMatch    int `yaml:"location_match" mapstructure:"location_match"`
	DemographicMatch int `yaml:"demographic_match" mapstructure:"demographic_match"`
	Urgency          int `yaml:"urgency" mapstructure:"urgency"`
	HelpSeeking      int `yaml:"help_seeking" mapstructure:"help_seeking"`
}

// AutomationConfig holds the daily limits and pacing of a cycle.
type AutomationConfig struct {
	OutreachEnabled   bool          `yaml:"outreach_enabled" mapstructure:"outreach_enabled"`
	MaxLeadsPerDay    int           `yaml:"max_leads_per_day" mapstructure:"max_leads_per_day"`
	MaxOutreachPerDay int           `yaml:"max_outreach_per_day" mapstructure:"max_outreach_per_day"`
	MinOutreachScore  int           `yaml:"min_outreach_score" mapstructure:"min_outreach_score"`
	RateLimitDelay    time.Duration `yaml:"rate_limit_delay" mapstructure:"rate_limit_delay"`
	SendDelayMin      time.Duration `yaml:"send_delay_min" mapstructure:"send_delay_min"`
	SendDelayMax      time.Duration `yaml:"send_delay_max" mapstructure:"send_delay_max"`
	SuccessRate       float64       `yaml:"success_rate" mapstructure:"success_rate"`
	SourceRetries     int           `yaml:"source_retries" mapstructure:"source_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// ReportConfig configures the daily report file.
type ReportConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxReports int    `yaml:"max_reports" mapstructure:"max_reports"`
}

// ScheduleConfig configures daemon mode.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ReportPath returns the report file location, resolved against the store data dir.
func (c *Config) ReportPath() string {
	return resolve(c.Store.DataDir, c.Report.File)
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("store.data_dir", EnvPrefix+"_DATA_DIR", EnvPrefix+"_STORE_DATA_DIR")

	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	return v
}

// Default returns the built-in configuration with no file or env applied.
func Default() *Config {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from file and environment. An empty path searches
// for config.yaml in the working directory and in $LEAD_AGENT_DATA_DIR. A
// missing file yields defaults; an unreadable or corrupt file is reported in
// Warnings and replaced entirely by defaults. Validation errors are fatal.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := os.Getenv(EnvPrefix + "_DATA_DIR"); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	var warnings []string
	fileRead := true
	if err := v.ReadInConfig(); err != nil {
		fileRead = false
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if errors.Is(err, fs.ErrNotExist) {
				warnings = append(warnings, fmt.Sprintf("config file %s not found, using defaults", path))
			} else {
				warnings = append(warnings, fmt.Sprintf("config file corrupt, using defaults: %v", err))
				v = newViper()
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		if !fileRead {
			return nil, eris.Wrap(err, "config: unmarshal")
		}
		warnings = append(warnings, fmt.Sprintf("config file %s has invalid values, using defaults: %v", v.ConfigFileUsed(), err))
		cfg = Config{}
		if err := newViper().Unmarshal(&cfg); err != nil {
			return nil, eris.Wrap(err, "config: unmarshal defaults")
		}
	}
	cfg.Warnings = warnings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var storeDrivers = map[string]bool{"json": true, "sqlite": true, "postgres": true}

// Validate checks the configuration eagerly so that scoring and outreach
// never discover a missing key at runtime.
func (c *Config) Validate() error {
	var errs []string

	w := c.Scoring.Weights
	weights := []struct {
		name string
		val  int
	}{
		{"high_priority", w.HighPriority},
		{"medium_priority", w.MediumPriority},
		{"location_match", w.LocationMatch},
		{"demographic_match", w.DemographicMatch},
		{"urgency", w.Urgency},
		{"help_seeking", w.HelpSeeking},
	}
	for _, wt := range weights {
		if wt.val < 0 {
			errs = append(errs, fmt.Sprintf("scoring.weights.%s must be >= 0", wt.name))
		}
	}

	for _, name := range sortedKeys(c.Scoring.PlatformBonus) {
		if _, err := model.ParsePlatform(name); err != nil {
			errs = append(errs, fmt.Sprintf("scoring.platform_bonus: unknown platform %q", name))
			continue
		}
		if c.Scoring.PlatformBonus[name] < 0 {
			errs = append(errs, fmt.Sprintf("scoring.platform_bonus.%s must be >= 0", name))
		}
	}
	if strings.TrimSpace(c.Scoring.UnknownLocation) == "" {
		errs = append(errs, "scoring.unknown_location is required")
	}

	required := []string{model.GeneralOutreach}
	for _, p := range model.Platforms {
		required = append(required, p.ContactMethod())
	}
	for _, key := range required {
		if strings.TrimSpace(c.Templates[key]) == "" {
			errs = append(errs, fmt.Sprintf("templates.%s is required", key))
		}
	}
	for _, key := range sortedKeys(c.Templates) {
		if err := outreach.ValidateTemplate(c.Templates[key]); err != nil {
			errs = append(errs, fmt.Sprintf("templates.%s: %v", key, err))
		}
	}

	if !storeDrivers[c.Store.Driver] {
		errs = append(errs, fmt.Sprintf("store.driver must be json, sqlite or postgres (got %q)", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}
	if c.Store.LeadsFile == "" {
		errs = append(errs, "store.leads_file is required")
	}
	if c.Store.MaxLeads < 0 {
		errs = append(errs, "store.max_leads must be >= 0")
	}
	if c.Store.RetentionDays < 0 {
		errs = append(errs, "store.retention_days must be >= 0")
	}

	a := c.Automation
	if a.MaxLeadsPerDay <= 0 {
		errs = append(errs, "automation.max_leads_per_day must be > 0")
	}
	if a.MaxOutreachPerDay < 0 {
		errs = append(errs, "automation.max_outreach_per_day must be >= 0")
	}
	if a.MinOutreachScore < 0 || a.MinOutreachScore > 100 {
		errs = append(errs, "automation.min_outreach_score must be between 0 and 100")
	}
	if a.RateLimitDelay < 0 {
		errs = append(errs, "automation.rate_limit_delay must be >= 0")
	}
	if a.SendDelayMin < 0 || a.SendDelayMax < a.SendDelayMin {
		errs = append(errs, "automation.send_delay_min must be >= 0 and <= send_delay_max")
	}
	if a.SuccessRate < 0 || a.SuccessRate > 1 {
		errs = append(errs, "automation.success_rate must be between 0 and 1")
	}
	if a.SourceRetries < 0 {
		errs = append(errs, "automation.source_retries must be >= 0")
	}

	if c.Report.File == "" {
		errs = append(errs, "report.file is required")
	}
	if c.Report.MaxReports <= 0 {
		errs = append(errs, "report.max_reports must be > 0")
	}
	if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.cron %q is invalid: %v", c.Schedule.Cron, err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("log.format must be json or console (got %q)", c.Log.Format))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InitLogger builds the zap logger described by cfg. Callers own the
// returned logger and pass it to each component.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger.With(zap.String("app", "lead-agent")), nil
}
