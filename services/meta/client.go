// Package meta talks to the Meta Graph API for one Instagram business
// account. Every request goes through the shared audit recorder, which
// strips the access token from parameters and scrubs it from payloads.
package meta

import (
	"context"
	"fmt"
	"net/url"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/paginate"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/meta")

const DefaultBaseURL = "https://graph.facebook.com/v21.0"

// the post fields requested on listings and details
const mediaFields = "id,caption,media_type,media_product_type,media_url,permalink,timestamp,like_count,comments_count"

const profileFields = "name,username,biography,followers_count,follows_count,media_count,profile_picture_url"

const commentFields = "id,text,timestamp,username,like_count"

const mentionFields = "id,caption,media_type,media_url,timestamp,owner"

type Options struct {
	// the ig business account id (the one that starts with 1784...)
	AccountID   string
	AccessToken string
	// defaults to DefaultBaseURL
	BaseURL  string
	Client   *fetch.Client
	Recorder *auditlog.Recorder
	MaxPages int
}

type Client struct {
	http      *fetch.Client
	rec       *auditlog.Recorder
	accountID string
	token     string
	maxPages  int
}

// NewClient validates the credentials up front: a missing account or
// token is the one fatal condition, detected before any fetch.
func NewClient(opts Options) (*Client, error) {
	if opts.AccountID == "" {
		return nil, fmt.Errorf("instagram account id is required")
	}
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if opts.Recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}

	http := opts.Client
	if http == nil {
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		http = fetch.NewClient(fetch.Options{
			BaseURL:    baseURL,
			TracerName: "services/meta/http",
		})
	}

	return &Client{
		http:      http,
		rec:       opts.Recorder,
		accountID: opts.AccountID,
		token:     opts.AccessToken,
		maxPages:  opts.MaxPages,
	}, nil
}

func (c *Client) Fetcher() *fetch.Client {
	return c.http
}

// withToken clones params and appends the credential; the recorder
// strips it again before anything is written out.
func (c *Client) withToken(params url.Values) url.Values {
	authed := url.Values{}
	for name, values := range params {
		authed[name] = values
	}
	authed.Set("access_token", c.token)
	return authed
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	authed := c.withToken(params)
	res := c.http.Get(ctx, path, authed, nil)
	c.rec.Record(path, authed, res, 0)

	if failure := res.Failure(); failure != nil {
		return nil, failure
	}
	if res.JSON == nil {
		return nil, &fetch.Error{Kind: fetch.KindParseFailure, Message: "payload is not a json object"}
	}
	return res.JSON, nil
}

// ProfileStats returns the account's basic profile and follower counts.
func (c *Client) ProfileStats(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "ProfileStats")
	defer span.End()

	return c.get(ctx, c.accountID, url.Values{"fields": {profileFields}})
}

// ProfileInsights returns daily account performance.
func (c *Client) ProfileInsights(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "ProfileInsights")
	defer span.End()

	return c.get(ctx, c.accountID+"/insights", url.Values{
		"metric": {"impressions,reach,profile_views,follower_count"},
		"period": {"day"},
	})
}

// AudienceInsights returns demographic breakdowns. Upstream rejects
// this below 100 followers; that surfaces as an upstream error and is
// logged like any other.
func (c *Client) AudienceInsights(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "AudienceInsights")
	defer span.End()

	return c.get(ctx, c.accountID+"/insights", url.Values{
		"metric": {"audience_city,audience_country,audience_gender_age"},
		"period": {"lifetime"},
	})
}

// Media returns the account's posts, following pagination.
func (c *Client) Media(ctx context.Context) []paginate.Page {
	ctx, span := tracer.Start(ctx, "Media")
	defer span.End()

	return paginate.Follow(
		ctx, c.http, c.rec,
		c.accountID+"/media",
		c.withToken(url.Values{"fields": {mediaFields}}),
		paginate.Options{MaxPages: c.maxPages},
	)
}

// MediaInsights returns the per-post metrics chosen by the media-type
// lookup table.
func (c *Client) MediaInsights(ctx context.Context, mediaID, mediaType, productType string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "MediaInsights")
	defer span.End()

	return c.get(ctx, mediaID+"/insights", url.Values{
		"metric": {MetricsFor(mediaType, productType)},
	})
}

// Comments returns the comments of one post.
func (c *Client) Comments(ctx context.Context, mediaID string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Comments")
	defer span.End()

	return c.get(ctx, mediaID+"/comments", url.Values{"fields": {commentFields}})
}

// Mentions returns posts where the account was tagged.
func (c *Client) Mentions(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Mentions")
	defer span.End()

	return c.get(ctx, c.accountID+"/tags", url.Values{"fields": {mentionFields}})
}

// ActiveStories returns the stories of the last 24h and pulls each
// story's insights as a dependent sub-resource.
func (c *Client) ActiveStories(ctx context.Context) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "ActiveStories")
	defer span.End()

	stories, err := c.get(ctx, c.accountID+"/stories", url.Values{
		"fields": {"id,caption,media_type"},
	})
	if err != nil {
		return nil, err
	}

	data, _ := stories["data"].([]any)
	for _, item := range data {
		story, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := story["id"].(string)
		if id == "" {
			continue
		}
		// insight failures on one story don't abort the rest
		insights, err := c.get(ctx, id+"/insights", url.Values{"metric": {StoryMetrics}})
		if err == nil {
			story["insights"] = insights["data"]
		}
	}
	return stories, nil
}
