package commands

import (
	"context"
	"encoding/json"
	"os"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/meta"
	"guaymallen-backend/services/run"

	"github.com/spf13/cobra"
)

func init() {
	socialCmd.AddCommand(socialPostsCmd)
	socialCmd.AddCommand(socialProfileCmd)
	socialCmd.AddCommand(socialStoriesCmd)
	socialCmd.AddCommand(socialMentionsCmd)
	rootCmd.AddCommand(socialCmd)
}

var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Extracts instagram analytics through the graph api.",
}

func graphClient(cfg Config) (*meta.Client, *auditlog.Recorder) {
	rec := auditlog.NewRecorder(nil, cfg.Instagram.AccessToken, cfg.Instagram.AppSecret)
	client, err := meta.NewClient(meta.Options{
		AccountID:   cfg.Instagram.AccountID,
		AccessToken: cfg.Instagram.AccessToken,
		Recorder:    rec,
		MaxPages:    cfg.MaxPages,
	})
	if err != nil {
		serviceutil.Fatal("invalid instagram credentials", err)
	}
	return client, rec
}

// printJSON pretty-prints an api payload to stdout; the payload went
// through the recorder already so it is safe to show.
func printJSON(payload map[string]any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		serviceutil.Fatal("failed to render payload", err)
	}
}

func fetchAndPrint(ctx context.Context, fetch func(context.Context) (map[string]any, error)) {
	payload, err := fetch(ctx)
	if err != nil {
		serviceutil.Fatal("graph api request failed", err)
	}
	printJSON(payload)
}

var socialPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Extracts every post with its per-post insight metrics.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client, rec := graphClient(cfg)

		runExtraction(cmd.Context(), cfg, "social", rec, []run.Source{
			{Extractor: meta.NewSource(client), Client: client.Fetcher()},
		})
	},
}

var socialProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Prints profile stats, daily insights and audience demographics.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client, _ := graphClient(cfg)
		ctx := cmd.Context()

		fetchAndPrint(ctx, client.ProfileStats)
		fetchAndPrint(ctx, client.ProfileInsights)
		fetchAndPrint(ctx, client.AudienceInsights)
	},
}

var socialStoriesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Prints the active stories with their insight metrics.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client, _ := graphClient(cfg)
		fetchAndPrint(cmd.Context(), client.ActiveStories)
	},
}

var socialMentionsCmd = &cobra.Command{
	Use:   "mentions",
	Short: "Prints posts the account was tagged in.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client, _ := graphClient(cfg)
		fetchAndPrint(cmd.Context(), client.Mentions)
	},
}
