// Package config loads the connector configuration: the datasource each
// querymap namespace is executed against, and where run journals are kept.
//
// A connector file looks like:
//
//	journal: runs.db
//	services:
//	  shop:
//	    driver: sqlite3
//	    dsn: file:shop.db
//	    max_open_conns: 1
//	    validate_result: true
//
// Values are layered: defaults, then the file, then DBGW_ environment
// variables (a double underscore separates nested keys, so
// DBGW_SERVICES__SHOP__DSN sets services.shop.dsn), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"sort"
)

// ErrServiceNotFound is returned by Service when no datasource is configured
// for a namespace.
var ErrServiceNotFound = errors.New("service not found")

// Default values applied to every service that leaves them unset.
const (
	DefaultMaxOpenConns   = 1
	DefaultValidateResult = true
)

// Service is the datasource for one querymap namespace.
type Service struct {
	Driver         string `koanf:"driver" json:"driver"`
	DSN            string `koanf:"dsn" json:"dsn"`
	MaxOpenConns   int    `koanf:"max_open_conns" json:"max_open_conns"`
	ValidateResult bool   `koanf:"validate_result" json:"validate_result"`
}

// Config is a loaded connector configuration.
type Config struct {
	Services map[string]Service `koanf:"services" json:"services"`

	// Journal is the sqlite file runs are recorded in. Empty disables recording.
	Journal string `koanf:"journal" json:"journal"`

	// Source is the file the configuration was read from.
	Source string `koanf:"-" json:"-"`
}

// Service returns the datasource configured for namespace.
func (c *Config) Service(namespace string) (Service, error) {
	svc, ok := c.Services[namespace]
	if !ok {
		return Service{}, fmt.Errorf("%w: no datasource configured for namespace %q", ErrServiceNotFound, namespace)
	}
	return svc, nil
}

// Namespaces returns the configured namespaces, sorted.
func (c *Config) Namespaces() []string {
	names := make([]string, 0, len(c.Services))
	for ns := range c.Services {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
