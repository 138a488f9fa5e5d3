package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "finscrape/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. FINSCRAPE_PATHS_DATA_DIR
const EnvPrefix = "FINSCRAPE"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Browser   BrowserConfig   `yaml:"browser" envconfig:"BROWSER"`
	WorkList  WorkListConfig  `yaml:"work_list" envconfig:"WORK_LIST"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Ledger    LedgerConfig    `yaml:"ledger" envconfig:"LEDGER"`
	Status    StatusConfig    `yaml:"status" envconfig:"STATUS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	// DataDir holds the work lists
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	// LogsDir holds checkpoints and log files
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	ResultsDir string `yaml:"results_dir" envconfig:"RESULTS_DIR" validate:"required"`
}

// SourceConfig describes the document source
type SourceConfig struct {
	BaseURL            string   `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	FinancialsSuffix   string   `yaml:"financials_suffix" envconfig:"FINANCIALS_SUFFIX"`
	FallbackRegistries []string `yaml:"fallback_registries" envconfig:"FALLBACK_REGISTRIES"`
	// ResultUnit is the unit monetary values are reported in: "", K, M, B or T
	ResultUnit string `yaml:"result_unit" envconfig:"RESULT_UNIT" validate:"unit"`
	// LayoutFile replaces the built-in selector layout when set
	LayoutFile string `yaml:"layout_file" envconfig:"LAYOUT_FILE" validate:"omitempty,file"`
}

// BrowserConfig contains Chrome and politeness settings
type BrowserConfig struct {
	Headless             bool          `yaml:"headless" envconfig:"HEADLESS"`
	ExecPath             string        `yaml:"exec_path" envconfig:"EXEC_PATH"`
	UserAgent            string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	PolitenessBase       time.Duration `yaml:"politeness_base" envconfig:"POLITENESS_BASE" validate:"gte=0"`
	PolitenessJitter     time.Duration `yaml:"politeness_jitter" envconfig:"POLITENESS_JITTER" validate:"gte=0"`
	NavigationsPerMinute int           `yaml:"navigations_per_minute" envconfig:"NAVIGATIONS_PER_MINUTE" validate:"gte=0"`
}

// WorkListConfig describes the work list files
type WorkListConfig struct {
	// Delimiter is a single character; "\t" and "tab" mean a tab
	Delimiter string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"delimiter"`
	Patterns  []string `yaml:"patterns" envconfig:"PATTERNS" validate:"min=1,dive,required"`
}

// ExportConfig controls post-completion exports
type ExportConfig struct {
	XLSX bool `yaml:"xlsx" envconfig:"XLSX"`
}

// LedgerConfig configures the attempt ledger; an empty path disables it
type LedgerConfig struct {
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

// StatusConfig configures the status server; an empty address disables it
type StatusConfig struct {
	Addr            string        `yaml:"addr" envconfig:"LISTEN_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// TelemetryConfig configures metrics and tracing
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Metrics     bool   `yaml:"metrics" envconfig:"METRICS"`
	Tracing     bool   `yaml:"tracing" envconfig:"TRACING"`
	// TraceStdout prints finished spans; useful during development
	TraceStdout bool `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "scraper.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			LogsDir:    "logs",
			ResultsDir: "results",
		},
		Source: SourceConfig{
			BaseURL:            "https://www.google.com/finance?q=",
			FinancialsSuffix:   "&fstype=ii",
			FallbackRegistries: []string{"NASDAQ", "NYSE", "TSE"},
			ResultUnit:         "K",
		},
		Browser: BrowserConfig{
			Headless:             true,
			PolitenessBase:       2 * time.Second,
			PolitenessJitter:     2 * time.Second,
			NavigationsPerMinute: 20,
		},
		WorkList: WorkListConfig{
			Delimiter: "\t",
			Patterns:  []string{"*.csv", "*.tsv", "*.txt"},
		},
		Status: StatusConfig{
			ShutdownTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "finscrape",
			Metrics:     true,
		},
	}
}

// Load loads configuration from the first config file found in the usual
// locations, then environment variables
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile loads configuration with precedence defaults < file < environment.
// An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to parse config file", err).WithContext("path", path)
		}
	}

	// variables that are not set leave the field untouched
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	v := validator.New()
	_ = v.RegisterValidation("unit", isUnit)
	_ = v.RegisterValidation("delimiter", isDelimiter)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), err)
	}
	return nil
}

// DelimiterRune returns the work list delimiter as a rune
func (w WorkListConfig) DelimiterRune() rune {
	r, _ := parseDelimiter(w.Delimiter)
	return r
}

func parseDelimiter(s string) (rune, bool) {
	switch strings.ToLower(s) {
	case "\t", `\t`, "tab":
		return '\t', true
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, false
	}
	return runes[0], true
}

func isDelimiter(fl validator.FieldLevel) bool {
	_, ok := parseDelimiter(fl.Field().String())
	return ok
}

func isUnit(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "", "K", "M", "B", "T":
		return true
	}
	return false
}

// getConfigFilePath returns the path to the config file, or "" if none exists
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
