package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// Platform selects the notification and calendar backends.
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// Link preview providers.
const (
	PreviewMicrolink = "microlink"
	PreviewHTML      = "html"
	PreviewNone      = "none"
)

// Config holds runtime settings for the chatkeeper CLI.
type Config struct {
	DatabaseDSN              string
	Platform                 Platform
	CalendarDir              string
	ExportDir                string
	PreviewProvider          string
	PreviewTimeout           time.Duration
	PreviewCacheSize         int
	PreviewCacheTTL          time.Duration
	NotificationPollInterval time.Duration
	LogLevel                 string
	ProtectKey               bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "chatkeeper.db"
	c.Platform = PlatformNative
	c.CalendarDir = "calendar"
	c.ExportDir = "."
	c.PreviewProvider = PreviewMicrolink
	c.PreviewTimeout = 5 * time.Second
	c.PreviewCacheSize = 256
	c.PreviewCacheTTL = 30 * time.Minute
	c.NotificationPollInterval = 5 * time.Second
	c.LogLevel = "info"
	c.ProtectKey = false
}

// Validate reports settings that cannot be used to start the application.
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformNative, PlatformWeb:
	default:
		return fmt.Errorf("%w: unknown platform %q", common.ErrValidation, c.Platform)
	}
	switch c.PreviewProvider {
	case PreviewMicrolink, PreviewHTML, PreviewNone:
	default:
		return fmt.Errorf("%w: unknown preview provider %q", common.ErrValidation, c.PreviewProvider)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("%w: database dsn is empty", common.ErrValidation)
	}
	if c.NotificationPollInterval <= 0 {
		return fmt.Errorf("%w: notification poll interval must be positive", common.ErrValidation)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
