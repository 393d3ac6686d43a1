package commands

import (
	"errors"
	"log/slog"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/news"
	"guaymallen-backend/services/run"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newsCmd)
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Extracts articles from the configured mendoza news portals.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if len(cfg.Portals) == 0 {
			serviceutil.Fatal("no portals configured", errors.New("the config lists no portals"))
		}

		var sources []run.Source
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

		rec := auditlog.NewRecorder(nil)
		r := runExtraction(cmd.Context(), cfg, "news", rec, sources)

		for _, pair := range news.NearDuplicateHeadlines(r.Records(), 0) {
			slog.Info("similar headlines across portals",
				"a_source", pair.A.Source, "a", pair.A.Fields["headline"],
				"b_source", pair.B.Source, "b", pair.B.Fields["headline"],
				"similarity", pair.Similarity)
		}
	},
}
