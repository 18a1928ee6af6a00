package config

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the fields a command mode depends on are set.
// Modes: "login", "api", "data", "store", "serve", "monitor".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "login":
		errs = append(errs, c.validateBaseURL()...)
	case "api":
		errs = append(errs, c.validateAPI()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	case "data":
		errs = append(errs, c.validateData()...)
	case "serve":
		errs = append(errs, c.validateData()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "monitor":
		errs = append(errs, c.validateData()...)
		if c.Monitoring.Concurrency < 1 || c.Monitoring.Concurrency > 64 {
			errs = append(errs, "monitoring.concurrency must be between 1 and 64")
		}
		if c.Monitoring.LookbackDays < 1 {
			errs = append(errs, "monitoring.lookback_days must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Locale != "" && c.Locale != "en" && !strings.HasPrefix(c.Locale, "en-") &&
		c.Locale != "fr" && !strings.HasPrefix(c.Locale, "fr-") {
		errs = append(errs, "locale must be en or fr")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateBaseURL() []string {
	if c.API.BaseURL == "" {
		return []string{"api.base_url is required"}
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []string{"api.base_url must be an absolute URL"}
	}
	return nil
}

func (c *Config) validateAPI() []string {
	errs := c.validateBaseURL()
	if c.API.Token == "" {
		errs = append(errs, "api.token is required (run plantwatch login)")
	}
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return []string{`store.driver must be "sqlite" or "postgres"`}
	}
	if c.Store.DatabaseURL == "" {
		return []string{"store.database_url is required"}
	}
	return nil
}

// validateData accepts either a reachable service or a local store.
func (c *Config) validateData() []string {
	switch c.Store.Driver {
	case "api", "":
		return c.validateAPI()
	default:
		return c.validateStore()
	}
}
