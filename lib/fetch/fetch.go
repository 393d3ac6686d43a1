// Package fetch is the single place http requests are made from. It
// wraps resty with the policy the extractors rely on: a fixed timeout
// per request, network failures returned as sentinel responses instead
// of errors, and bodies kept as raw text alongside a best-effort JSON
// decode.
package fetch

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"guaymallen-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Response struct {
	// zero when the request never produced a response
	Status int
	// the raw body, always utf-8 text
	Text string
	// the decoded body when it is a json object, nil otherwise
	JSON map[string]any
	// non-nil only for connection failures (timeouts included)
	Err *Error
}

func (r Response) OK() bool {
	return r.Err == nil && r.Status >= 200 && r.Status < 300
}

// Failure classifies a non-OK response. Returns nil for successful
// responses.
func (r Response) Failure() *Error {
	if r.Err != nil {
		return r.Err
	}
	if r.Status < 200 || r.Status >= 300 {
		return newError(KindUpstreamError, "status %d: %s", r.Status, truncate(r.Text, 200))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Failed builds the sentinel response used when the network call
// itself failed, so callers can log it and move on.
func Failed(message string) Response {
	return Response{
		Err: newError(KindConnectionFailure, "%s", message),
	}
}

type Options struct {
	BaseURL string
	// defaults to 10s, mirrors the politeness of one request in flight
	Timeout time.Duration
	// overrides the default browser user agent
	UserAgent string
	// routes requests through the cloudflare bypass transport, needed
	// for some of the news portals
	BypassCloudflare bool
	// name for the otel tracer instrumenting this client
	TracerName string
}

type Client struct {
	http *resty.Client
}

func NewClient(opts Options) *Client {
	client := resty.New()
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 10
	}
	client.SetTimeout(timeout)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = browserUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "lib/fetch"
	}
	telemetry.InstrumentResty(client, tracerName)

	return &Client{http: client}
}

// Get issues a GET request for path (absolute or relative to the base
// url) with the given query parameters. It never returns a Go error
// for network failures: those come back as a sentinel Response whose
// Err carries the message. Cancellation is checked before the request
// goes out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, headers map[string]string) Response {
	if err := ctx.Err(); err != nil {
		return Failed(err.Error())
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	res, err := req.Get(path)
	if err != nil {
		return Failed(err.Error())
	}

	text := res.String()
	return Response{
		Status: res.StatusCode(),
		Text:   text,
		JSON:   decodeObject(text),
	}
}

func decodeObject(text string) map[string]any {
	var decoded map[string]any
	err := json.Unmarshal([]byte(text), &decoded)
	if err != nil {
		return nil
	}
	return decoded
}
