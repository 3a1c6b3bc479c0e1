// Package config loads the service configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Addr           string        `mapstructure:"APP_ADDR" validate:"required"`
	DatabaseDSN    string        `mapstructure:"DB_DSN" validate:"required_if=StorageDriver postgres"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER" validate:"oneof=postgres memory"`
	DBTimeout      time.Duration `mapstructure:"DB_TIMEOUT" validate:"gt=0"`
	TokenSecret    string        `mapstructure:"TOKEN_SECRET" validate:"required,min=32"`
	BookCacheTTL   time.Duration `mapstructure:"BOOK_CACHE_TTL" validate:"gte=0"`
	BooksPageSize  int           `mapstructure:"BOOKS_PAGE_SIZE" validate:"gt=0,lte=100"`
	LoginRateLimit int           `mapstructure:"LOGIN_RATE_LIMIT" validate:"gt=0"`
	LoginRateWin   time.Duration `mapstructure:"LOGIN_RATE_WINDOW" validate:"gt=0"`
	CORSOrigins    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	MaxBodyBytes   int64         `mapstructure:"MAX_BODY_BYTES" validate:"gt=0"`
	LogLevel       string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	BcryptCost     int           `mapstructure:"BCRYPT_COST" validate:"gte=4,lte=31"`
	EnableHSTS     bool          `mapstructure:"ENABLE_HSTS"`
	TrustedProxies string        `mapstructure:"TRUSTED_PROXIES"`
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES, a comma separated list of
// CIDRs or single addresses whose forwarding headers are believed.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
