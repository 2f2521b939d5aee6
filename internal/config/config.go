// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "PARKINGMEMO"
	appDir    = "parking-memo"

	DefaultTextTpl    = "{{truncate .Text 80}}"
	DefaultTooltipTpl = "{{.ModeName}}{{if .Saved}}\n{{.Saved}}{{end}}{{if .Distance}}\n{{.Distance}}{{end}}" +
		"{{if .Alert}}\n{{.Alert.Title}} {{.Alert.Message}}{{end}}"
)

// Storage backends
const (
	BackendYAMLFile = "yamlfile"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Geocoding providers
const (
	GeocoderNominatim    = "nominatim"
	GeocoderOpenCage     = "opencage"
	GeocoderGeocodeEarth = "geocode-earth"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	LogFile  string     `fig:"logfile"`

	Storage struct {
		// Allowed values: yamlfile, sqlite, redis
		Backend string `fig:"backend" default:"yamlfile"`
		Path    string `fig:"path"`
		Redis   struct {
			Addr      string `fig:"addr" default:"localhost:6379"`
			Password  string `fig:"password"`
			DB        int    `fig:"db"`
			KeyPrefix string `fig:"key_prefix"`
		} `fig:"redis"`
	} `fig:"storage"`

	GeoCoder struct {
		// Allowed values: nominatim, opencage, geocode-earth
		Provider string        `fig:"provider" default:"nominatim"`
		APIKey   string        `fig:"apikey"`
		CacheTTL time.Duration `fig:"cache_ttl"`
	} `fig:"geocoder"`

	GeoLocation struct {
		File                   string `fig:"file"`
		GPSDHost               string `fig:"gpsd_host" default:"localhost"`
		GPSDPort               string `fig:"gpsd_port" default:"2947"`
		DisableGPSD            bool   `fig:"disable_gpsd"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
		DisableGeoIP           bool   `fig:"disable_geoip"`
		DisableICHNAEA         bool   `fig:"disable_ichnaea"`
	} `fig:"geolocation"`

	Intervals struct {
		Output       time.Duration `fig:"output" default:"30s"`
		Availability time.Duration `fig:"availability" default:"1m"`
	} `fig:"intervals"`

	Templates struct {
		Text    string `fig:"text"`
		Tooltip string `fig:"tooltip"`
	} `fig:"templates"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks the configured values and fills in the defaults that depend on the environment.
func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	switch c.Storage.Backend {
	case BackendYAMLFile:
		if c.Storage.Path == "" {
			c.Storage.Path = filepath.Join(configDir(), "parking.yaml")
		}
	case BackendSQLite:
		if c.Storage.Path == "" {
			c.Storage.Path = filepath.Join(configDir(), "parking.db")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis storage requires an address")
		}
		if c.Storage.Redis.DB < 0 {
			return fmt.Errorf("invalid redis database: %d", c.Storage.Redis.DB)
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	c.GeoCoder.Provider = strings.ToLower(c.GeoCoder.Provider)
	switch c.GeoCoder.Provider {
	case GeocoderNominatim:
	case GeocoderOpenCage, GeocoderGeocodeEarth:
		if c.GeoCoder.APIKey == "" {
			return fmt.Errorf("%s geocoder requires an API key", c.GeoCoder.Provider)
		}
	default:
		return fmt.Errorf("unsupported geocoder provider: %s", c.GeoCoder.Provider)
	}
	if c.GeoCoder.CacheTTL < 0 {
		return fmt.Errorf("invalid geocoder cache TTL: %s", c.GeoCoder.CacheTTL)
	}

	if c.GeoLocation.DisableGPSD && c.GeoLocation.DisableGeolocationFile && c.GeoLocation.DisableGeoIP &&
		c.GeoLocation.DisableICHNAEA {
		return fmt.Errorf("all geolocation providers are disabled")
	}
	if c.GeoLocation.File == "" {
		c.GeoLocation.File = filepath.Join(configDir(), "geolocation")
	}

	if c.Intervals.Output <= 0 {
		return fmt.Errorf("invalid output interval: %s", c.Intervals.Output)
	}
	if c.Intervals.Availability <= 0 {
		return fmt.Errorf("invalid availability interval: %s", c.Intervals.Availability)
	}

	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}

	return nil
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
