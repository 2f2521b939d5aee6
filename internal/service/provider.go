// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/parking-memo/internal/config"
	"github.com/wneessen/parking-memo/internal/geobus"
	"github.com/wneessen/parking-memo/internal/geobus/provider/geoip"
	"github.com/wneessen/parking-memo/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/parking-memo/internal/geobus/provider/gpsd"
	"github.com/wneessen/parking-memo/internal/geobus/provider/ichnaea"
	"github.com/wneessen/parking-memo/internal/geocode"
	geocodeearth "github.com/wneessen/parking-memo/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/parking-memo/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/parking-memo/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/parking-memo/internal/i18n"
	"github.com/wneessen/parking-memo/internal/job"
	"github.com/wneessen/parking-memo/internal/logger"
	"github.com/wneessen/parking-memo/internal/store"
	"github.com/wneessen/parking-memo/internal/store/backend/redis"
	"github.com/wneessen/parking-memo/internal/store/backend/sqlite"
	"github.com/wneessen/parking-memo/internal/store/backend/yamlfile"
)

// selectGeobusProviders returns the enabled location providers, most precise first.
func (s *Service) selectGeobusProviders() ([]geobus.Provider, error) {
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDHost,
			s.config.GeoLocation.GPSDPort))
	}

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(s.http)
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			provider = append(provider, mls)
		}
	}

	if !s.config.GeoLocation.DisableGeoIP {
		provider = append(provider, geoip.NewGeolocationGeoIPProvider(s.http))
	}

	if len(provider) == 0 {
		return nil, fmt.Errorf("no geolocation providers enabled")
	}
	return provider, nil
}

// selectGeocodeProvider returns the configured reverse geocoder. With a cache TTL set, the geocoder
// is wrapped in a cache whose expired entries are purged by a job.
func (s *Service) selectGeocodeProvider() (geocode.Geocoder, error) {
	lang := i18n.Tag(s.config.Locale)

	var geocoder geocode.Geocoder
	switch s.config.GeoCoder.Provider {
	case config.GeocoderNominatim:
		geocoder = nominatim.New(s.http, lang)
	case config.GeocoderOpenCage:
		if s.config.GeoCoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		geocoder = opencage.New(s.http, lang, s.config.GeoCoder.APIKey)
	case config.GeocoderGeocodeEarth:
		if s.config.GeoCoder.APIKey == "" {
			return nil, fmt.Errorf("geocode-earth geocoder requires an API key")
		}
		geocoder = geocodeearth.New(s.http, lang, s.config.GeoCoder.APIKey)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.GeoCoder.Provider)
	}

	ttl := s.config.GeoCoder.CacheTTL
	if ttl <= 0 {
		return geocoder, nil
	}
	cached := geocode.NewCachedGeocoder(geocoder, ttl, min(ttl, cacheMissTTL))
	s.jobs = append(s.jobs, job.New("geocode_cache_purge", ttl, func(context.Context) {
		purged, remaining := cached.Purge()
		s.logger.Debug("purged geocode cache", slog.Int("purged", purged), slog.Int("remaining", remaining))
	}, s.logger))
	return cached, nil
}

// selectBackend opens the configured storage backend.
func (s *Service) selectBackend(ctx context.Context) (store.Backend, error) {
	switch s.config.Storage.Backend {
	case config.BackendYAMLFile:
		return yamlfile.New(s.config.Storage.Path)
	case config.BackendSQLite:
		return sqlite.New(ctx, s.config.Storage.Path)
	case config.BackendRedis:
		return redis.New(ctx, redis.Config{
			Addr:      s.config.Storage.Redis.Addr,
			Password:  s.config.Storage.Redis.Password,
			DB:        s.config.Storage.Redis.DB,
			KeyPrefix: s.config.Storage.Redis.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", s.config.Storage.Backend)
	}
}
