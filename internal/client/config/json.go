package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chatkeeper/internal/flagx"
	"github.com/dmitrijs2005/chatkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// distinguish absent keys from zero values.
type JsonConfig struct {
	DatabaseDSN              *string         `json:"database_dsn"`
	Platform                 *string         `json:"platform"`
	CalendarDir              *string         `json:"calendar_dir"`
	ExportDir                *string         `json:"export_dir"`
	PreviewProvider          *string         `json:"preview_provider"`
	PreviewTimeout           *timex.Duration `json:"preview_timeout"`
	PreviewCacheSize         *int            `json:"preview_cache_size"`
	PreviewCacheTTL          *timex.Duration `json:"preview_cache_ttl"`
	NotificationPollInterval *timex.Duration `json:"notification_poll_interval"`
	LogLevel                 *string         `json:"log_level"`
	ProtectKey               *bool           `json:"protect_key"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	if jc.Platform != nil {
		cfg.Platform = Platform(*jc.Platform)
	}
	setString(&cfg.CalendarDir, jc.CalendarDir)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.PreviewProvider, jc.PreviewProvider)
	if jc.PreviewTimeout != nil {
		cfg.PreviewTimeout = jc.PreviewTimeout.Duration
	}
	if jc.PreviewCacheSize != nil {
		cfg.PreviewCacheSize = *jc.PreviewCacheSize
	}
	if jc.PreviewCacheTTL != nil {
		cfg.PreviewCacheTTL = jc.PreviewCacheTTL.Duration
	}
	if jc.NotificationPollInterval != nil {
		cfg.NotificationPollInterval = jc.NotificationPollInterval.Duration
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.ProtectKey != nil {
		cfg.ProtectKey = *jc.ProtectKey
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
