// Package config loads settings for the catalog CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON or YAML file.
//  3. The CATALOG_SERVER environment variable.
//  4. Command-line flags, bound by the CLI itself.
//
// File schema:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "timeout": "10s",
//	  "page_size": 25
//	}
package config
