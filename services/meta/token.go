package meta

import (
	"context"
	"fmt"
	"net/url"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
)

// LongLivedToken is the result of exchanging a short-lived user token.
type LongLivedToken struct {
	AccessToken string
	TokenType   string
	// seconds until expiry, roughly sixty days
	ExpiresIn int64
}

// ExchangeLongLivedToken trades a short-lived token for a ~60 day one.
// Both the input token and the client secret are credentials: they ride
// as query parameters and the recorder strips them before the exchange
// is logged.
func ExchangeLongLivedToken(ctx context.Context, client *fetch.Client, rec *auditlog.Recorder, appID, appSecret, shortLivedToken string) (LongLivedToken, error) {
	if appID == "" || appSecret == "" || shortLivedToken == "" {
		return LongLivedToken{}, fmt.Errorf("app id, app secret and short-lived token are all required")
	}

	params := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {appID},
		"client_secret":     {appSecret},
		"fb_exchange_token": {shortLivedToken},
	}
	res := client.Get(ctx, "oauth/access_token", params, nil)
	rec.Record("oauth/access_token", params, res, 0)

	if failure := res.Failure(); failure != nil {
		return LongLivedToken{}, failure
	}
	if res.JSON == nil {
		return LongLivedToken{}, &fetch.Error{Kind: fetch.KindParseFailure, Message: "token payload is not a json object"}
	}

	token, _ := res.JSON["access_token"].(string)
	if token == "" {
		return LongLivedToken{}, &fetch.Error{Kind: fetch.KindParseFailure, Message: "token payload has no access_token"}
	}
	tokenType, _ := res.JSON["token_type"].(string)
	expires, _ := res.JSON["expires_in"].(float64)

	return LongLivedToken{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(expires),
	}, nil
}
