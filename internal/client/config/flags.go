package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p", "-v", "-i", "-l", "-k"}, "-k")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	platform := fs.String("p", string(cfg.Platform), "platform backend (native or web)")
	fs.StringVar(&cfg.PreviewProvider, "v", cfg.PreviewProvider, "link preview provider (microlink, html or none)")
	pollInterval := fs.Int("i", int(cfg.NotificationPollInterval.Seconds()), "notification poll interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.ProtectKey, "k", cfg.ProtectKey, "protect the encryption key with a passphrase")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Platform = Platform(*platform)
	cfg.NotificationPollInterval = time.Duration(*pollInterval) * time.Second
}
