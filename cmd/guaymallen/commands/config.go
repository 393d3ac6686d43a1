package commands

import (
	"time"

	"guaymallen-backend/lib/configutil"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/run"

	"github.com/subosito/gotenv"
)

type PortalConfig struct {
	// a name known to the portal registry, e.g. "Los Andes"
	Name  string   `json:"name"`
	Seeds []string `json:"seeds"`
	// some portals sit behind cloudflare and need the bypass transport
	BypassCloudflare bool `json:"bypass_cloudflare"`
}

type InstagramConfig struct {
	AccountID   string `json:"account_id"`
	AccessToken string `json:"access_token"`
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
}

type OutputConfig struct {
	Dir string `json:"dir"`
	// csv, json or both
	Format string `json:"format"`
}

type Config struct {
	Output OutputConfig `json:"output"`
	// sqlite file previously extracted records are checked against;
	// empty disables the store
	StorePath      string          `json:"store_path"`
	RequestDelayMs int             `json:"request_delay_ms"`
	SourceDelayMs  int             `json:"source_delay_ms"`
	MaxPages       int             `json:"max_pages"`
	Portals        []PortalConfig  `json:"portals"`
	Instagram      InstagramConfig `json:"instagram"`
}

// loadConfig reads .env (if present) so ${VAR} references in the
// config file resolve, then reads and merges the json5 config.
func loadConfig() Config {
	_ = gotenv.Load()

	cfg, err := configutil.ReadConfig[Config](configFile)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "out"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
	return cfg
}

func (c Config) runOptions() run.Options {
	return run.Options{
		RequestDelay: time.Duration(c.RequestDelayMs) * time.Millisecond,
		SourceDelay:  time.Duration(c.SourceDelayMs) * time.Millisecond,
		MaxPages:     c.MaxPages,
	}
}
