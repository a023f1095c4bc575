package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	BrokerFile string `yaml:"broker_file" envconfig:"BROKER_FILE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PipelineConfig contains tunables for the ingestion pipeline.
type PipelineConfig struct {
	// Delimiter used when repairing exports collapsed into one column.
	RepairDelimiter string `yaml:"repair_delimiter" envconfig:"REPAIR_DELIMITER" default:"\t"`
	// DateConvention resolves ambiguous numeric dates: "dmy" or "mdy".
	// Brokers may override it in the mapping table.
	DateConvention string `yaml:"date_convention" envconfig:"DATE_CONVENTION" default:"dmy"`
	// AmountTolerance is the allowed absolute difference when cross-checking
	// reported amounts against quantity*price.
	AmountTolerance string `yaml:"amount_tolerance" envconfig:"AMOUNT_TOLERANCE" default:"0.01"`
	// MaxWorkers caps how many clients are processed in parallel.
	MaxWorkers int `yaml:"max_workers" envconfig:"MAX_WORKERS" default:"4"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("CONSOLIDATOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Paths.DataDir == "" || envConfig.Paths.DataDir == "data" {
		if fileConfig.Paths.DataDir != "" {
			envConfig.Paths.DataDir = fileConfig.Paths.DataDir
		}
	}
	if envConfig.Paths.OutputDir == "" || envConfig.Paths.OutputDir == "reports" {
		if fileConfig.Paths.OutputDir != "" {
			envConfig.Paths.OutputDir = fileConfig.Paths.OutputDir
		}
	}
	if envConfig.Paths.BrokerFile == "" {
		envConfig.Paths.BrokerFile = fileConfig.Paths.BrokerFile
	}
	if fileConfig.Pipeline.DateConvention != "" && envConfig.Pipeline.DateConvention == "dmy" {
		envConfig.Pipeline.DateConvention = fileConfig.Pipeline.DateConvention
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("output directory must be set")
	}
	if c.Pipeline.DateConvention != "dmy" && c.Pipeline.DateConvention != "mdy" {
		return fmt.Errorf("invalid date convention: %s", c.Pipeline.DateConvention)
	}
	if c.Pipeline.MaxWorkers <= 0 {
		c.Pipeline.MaxWorkers = 1
	}
	if c.Pipeline.RepairDelimiter == "" {
		c.Pipeline.RepairDelimiter = "\t"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "reports",
			LogsDir:   "logs",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Pipeline: PipelineConfig{
			RepairDelimiter: "\t",
			DateConvention:  "dmy",
			AmountTolerance: "0.01",
			MaxWorkers:      4,
		},
	}
}
