package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/catalog/internal/flagx"
	"github.com/dmitrijs2005/catalog/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Interval fields use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
//
// Only keys present in the file override the current values; pointer fields
// tell "absent" apart from zero values.
type FileConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC   *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN        *string         `json:"database_dsn" yaml:"database_dsn"`
	IndexURL           *string         `json:"index_url" yaml:"index_url"`
	IndexName          *string         `json:"index_name" yaml:"index_name"`
	IndexSyncInterval  *timex.Duration `json:"index_sync_interval" yaml:"index_sync_interval"`
	IndexSyncBatchSize *int            `json:"index_sync_batch_size" yaml:"index_sync_batch_size"`
	RetentionInterval  *timex.Duration `json:"retention_interval" yaml:"retention_interval"`
	CycleTimeout       *timex.Duration `json:"cycle_timeout" yaml:"cycle_timeout"`
	DefaultPageSize    *int            `json:"default_page_size" yaml:"default_page_size"`
	MaxPageSize        *int            `json:"max_page_size" yaml:"max_page_size"`
	RequestTimeout     *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	LogLevel           *string         `json:"log_level" yaml:"log_level"`
	SeedSource         *string         `json:"seed_source" yaml:"seed_source"`
	S3RootUser         *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Region           *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads configuration values from a JSON or YAML file into the
// provided Config instance. The file is located via flagx.ConfigFile (the
// -c/-config flags or CATALOG_CONFIG); files ending in .yaml or .yml are read
// as YAML, everything else as JSON.
//
// If the file cannot be read or does not decode, the function panics: a
// configuration file that was asked for but is broken must stop startup.
func parseFile(config *Config) {
	path := flagx.ConfigFile()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.IndexURL, c.IndexURL)
	setString(&config.IndexName, c.IndexName)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SeedSource, c.SeedSource)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.IndexSyncInterval != nil {
		config.IndexSyncInterval = c.IndexSyncInterval.Duration
	}
	if c.RetentionInterval != nil {
		config.RetentionInterval = c.RetentionInterval.Duration
	}
	if c.CycleTimeout != nil {
		config.CycleTimeout = c.CycleTimeout.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.IndexSyncBatchSize != nil {
		config.IndexSyncBatchSize = *c.IndexSyncBatchSize
	}
	if c.DefaultPageSize != nil {
		config.DefaultPageSize = *c.DefaultPageSize
	}
	if c.MaxPageSize != nil {
		config.MaxPageSize = *c.MaxPageSize
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
