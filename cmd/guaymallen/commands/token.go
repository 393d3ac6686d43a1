package commands

import (
	"fmt"
	"time"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/serviceutil"
	"guaymallen-backend/services/meta"

	"github.com/spf13/cobra"
)

var shortLivedToken *string

func init() {
	shortLivedToken = tokenCmd.Flags().String("token", "", "The short-lived token to exchange; defaults to the configured access token.")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token [--token <short-lived-token>]",
	Short: "Exchanges a short-lived user token for a ~60 day one.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		token := *shortLivedToken
		if token == "" {
			token = cfg.Instagram.AccessToken
		}

		rec := auditlog.NewRecorder(nil, token, cfg.Instagram.AppSecret)
		client := fetch.NewClient(fetch.Options{
			BaseURL:    meta.DefaultBaseURL,
			TracerName: "services/meta/http",
		})

		exchanged, err := meta.ExchangeLongLivedToken(
			cmd.Context(), client, rec,
			cfg.Instagram.AppID, cfg.Instagram.AppSecret, token,
		)
		if err != nil {
			serviceutil.Fatal("token exchange failed", err)
		}

		expiry := time.Duration(exchanged.ExpiresIn) * time.Second
		fmt.Printf("access_token: %s\n", exchanged.AccessToken)
		fmt.Printf("expires in:   %.0f days\n", expiry.Hours()/24)
	},
}
