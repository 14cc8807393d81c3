package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultPostcodeTable    = "onspd_aug19"
	DefaultDeprivationTable = "imd19"
	DefaultAddr             = ":8080"
	DefaultProbeSchedule    = "@every 5m"
	DefaultBatchSize        = 500

	// DatasetDSNEnv overrides dataset_dsn from the config file.
	DatasetDSNEnv = "IMD_DATASET_DSN"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	DatasetDriver    string `json:"dataset_driver"`
	DatasetDSN       string `json:"dataset_dsn"`
	PostcodeTable    string `json:"postcode_table"`
	DeprivationTable string `json:"deprivation_table"`
	Addr             string `json:"addr"`
	ProbeSchedule    string `json:"probe_schedule"`
	BatchSize        int    `json:"batch_size"`
	Verbose          bool   `json:"verbose"`
}

func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if dsn := strings.TrimSpace(os.Getenv(DatasetDSNEnv)); dsn != "" {
		cfg.DatasetDSN = dsn
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DatasetDriver = strings.ToLower(strings.TrimSpace(c.DatasetDriver))
	if c.DatasetDriver == "" {
		c.DatasetDriver = DriverSQLite
	}
	if c.PostcodeTable == "" {
		c.PostcodeTable = DefaultPostcodeTable
	}
	if c.DeprivationTable == "" {
		c.DeprivationTable = DefaultDeprivationTable
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ProbeSchedule == "" {
		c.ProbeSchedule = DefaultProbeSchedule
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Validate checks a fully defaulted config. Table names end up in SQL text
// and cannot be bound, so they are restricted to plain identifiers.
func (c Config) Validate() error {
	if c.DatasetDriver != DriverSQLite && c.DatasetDriver != DriverPostgres {
		return fmt.Errorf("dataset_driver %q is not supported", c.DatasetDriver)
	}
	if c.DatasetDSN == "" {
		return fmt.Errorf("dataset_dsn is required")
	}
	if !tableNamePattern.MatchString(c.PostcodeTable) {
		return fmt.Errorf("postcode_table %q is not a valid identifier", c.PostcodeTable)
	}
	if !tableNamePattern.MatchString(c.DeprivationTable) {
		return fmt.Errorf("deprivation_table %q is not a valid identifier", c.DeprivationTable)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive")
	}

	return nil
}
