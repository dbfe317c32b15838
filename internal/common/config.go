// Package common provides shared configuration and telemetry for the
// solartopo pipeline binaries.
package common

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds settings shared across pipeline binaries. Warehouse
// credentials and data locations can be overridden from the environment;
// individual binaries expose them as flag defaults.
type Config struct {
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     9000,
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solar"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            getEnv("SOLARTOPO_DATA_DIR", "data"),
	}
}

// NativeAddr returns host:port for the ClickHouse native protocol.
func (c *Config) NativeAddr() string {
	return fmt.Sprintf("%s:%d", c.ClickHouseHost, c.ClickHousePort)
}

// ResultsDir returns the default directory for sweep raster outputs.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.DataDir, "results")
}

// ParquetDir returns the default root directory for parquet partitions.
func (c *Config) ParquetDir() string {
	return filepath.Join(c.DataDir, "parquet")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
