package commands

import (
	"errors"
	"log/slog"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/meta"
	"guaymallen-backend/services/news"
	"guaymallen-backend/services/run"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extracts every configured source: instagram analytics and news portals.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		rec := auditlog.NewRecorder(nil, cfg.Instagram.AccessToken, cfg.Instagram.AppSecret)

		var sources []run.Source
		if cfg.Instagram.AccessToken != "" {
			client, err := meta.NewClient(meta.Options{
				AccountID:   cfg.Instagram.AccountID,
				AccessToken: cfg.Instagram.AccessToken,
				Recorder:    rec,
				MaxPages:    cfg.MaxPages,
			})
			if err != nil {
				serviceutil.Fatal("invalid instagram credentials", err)
			}
			sources = append(sources, run.Source{
				Extractor: meta.NewSource(client),
				Client:    client.Fetcher(),
			})
		} else {
			slog.Info("no instagram credentials configured, portals only")
		}

		for _, portalCfg := range cfg.Portals {
			portal, err := news.New(portalCfg.Name, portalCfg.Seeds)
			if err != nil {
				serviceutil.Fatal("unknown portal in config", err)
			}
			sources = append(sources, run.Source{
				Extractor: portal,
				Client: fetch.NewClient(fetch.Options{
					BypassCloudflare: portalCfg.BypassCloudflare,
					TracerName:       "portal:" + portalCfg.Name,
				}),
			})
		}

		if len(sources) == 0 {
			serviceutil.Fatal("nothing to extract", errors.New("the config has neither instagram credentials nor portals"))
		}

		runExtraction(cmd.Context(), cfg, "run", rec, sources)
	},
}
