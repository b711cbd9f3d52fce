package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/catalog/internal/timex"
	"gopkg.in/yaml.v3"
)

// EnvServer overrides the server URL.
const EnvServer = "CATALOG_SERVER"

type Config struct {
	ServerURL string
	Timeout   time.Duration
	PageSize  int
}

// FileConfig mirrors Config for decoding. Absent keys keep earlier values.
type FileConfig struct {
	ServerURL *string         `json:"server_url" yaml:"server_url"`
	Timeout   *timex.Duration `json:"timeout" yaml:"timeout"`
	PageSize  *int            `json:"page_size" yaml:"page_size"`
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 10 * time.Second
	c.PageSize = 25
}

// Load applies defaults, then the file at path when path is not empty, then
// the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv(EnvServer); v != "" {
		cfg.ServerURL = v
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	if fc.ServerURL != nil {
		c.ServerURL = *fc.ServerURL
	}
	if fc.Timeout != nil {
		c.Timeout = fc.Timeout.Duration
	}
	if fc.PageSize != nil {
		c.PageSize = *fc.PageSize
	}
	return nil
}
