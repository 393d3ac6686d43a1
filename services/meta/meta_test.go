package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guaymallen-backend/lib/auditlog"
	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/paginate"
	"guaymallen-backend/lib/telemetry"
	"guaymallen-backend/services/run"

	"github.com/stretchr/testify/require"
)

const testToken = "EAAGsecrettoken123"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *auditlog.Recorder, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	rec := auditlog.NewRecorder(nil, testToken)
	client, err := NewClient(Options{
		AccountID:   "17841400000000000",
		AccessToken: testToken,
		Recorder:    rec,
		Client:      fetch.NewClient(fetch.Options{BaseURL: server.URL}),
	})
	require.NoError(t, err)
	return client, rec, server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestMetricsForPrefersProductType(t *testing.T) {
	// reels report MEDIA_TYPE=VIDEO but only accept the reel set
	require.Equal(t, "plays,reach,saved,shares,total_interactions", MetricsFor("VIDEO", "REELS"))
	require.Equal(t, "video_views,reach,saved,total_interactions", MetricsFor("VIDEO", "FEED"))
	require.Equal(t, "impressions,reach,saved,engagement", MetricsFor("IMAGE", "FEED"))
	require.Equal(t, "impressions,reach,saved,engagement", MetricsFor("CAROUSEL_ALBUM", ""))
}

func TestClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{AccessToken: "x", Recorder: auditlog.NewRecorder(nil)})
	require.Error(t, err)

	_, err = NewClient(Options{AccountID: "1784", Recorder: auditlog.NewRecorder(nil)})
	require.Error(t, err)
}

func TestMediaListingFollowsPagingAndRedacts(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/17841400000000000/media", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testToken, r.URL.Query().Get("access_token"))
		writeJSON(w, map[string]any{
			"data": []any{
				map[string]any{"id": "post-1"},
				map[string]any{"id": "post-2"},
			},
			"paging": map[string]any{
				// real continuation urls arrive pre-authenticated
				"next": server.URL + "/media/page-2?after=abc&access_token=" + testToken,
			},
		})
	})
	// second page has no next, the chain stops there
	mux.HandleFunc("/media/page-2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data": []any{map[string]any{"id": "post-3"}},
		})
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	rec := auditlog.NewRecorder(nil, testToken)
	client, err := NewClient(Options{
		AccountID:   "17841400000000000",
		AccessToken: testToken,
		Recorder:    rec,
		Client:      fetch.NewClient(fetch.Options{BaseURL: server.URL}),
	})
	require.NoError(t, err)

	pages := client.Media(context.Background())
	require.Len(t, pages, 2)

	source := NewSource(client)
	var ids []string
	for _, page := range pages {
		ids = append(ids, source.ExtractListingLinks(page, "")...)
	}
	require.Equal(t, []string{"post-1", "post-2", "post-3"}, ids)

	// neither the parameter nor the pre-authenticated continuation url
	// may leak the token into the log
	for _, entry := range rec.Entries() {
		require.NotContains(t, entry.Params, testToken)
		require.NotContains(t, entry.Endpoint, testToken)
		require.NotContains(t, entry.Payload, testToken)
	}
}

func TestExtractRecordFieldsStringifiesCounts(t *testing.T) {
	payload := map[string]any{
		"id":                 "post-1",
		"caption":            "Vendimia en Guaymallén",
		"media_type":         "IMAGE",
		"media_product_type": "FEED",
		"permalink":          "https://www.instagram.com/p/abc/",
		"timestamp":          "2026-08-26T12:00:00+0000",
		"like_count":         float64(42),
		"comments_count":     float64(7),
	}

	source := NewSource(&Client{})
	fields := source.ExtractRecordFields(paginate.Page{Response: fetch.Response{Status: 200, JSON: payload}})

	require.Equal(t, "42", fields["like_count"])
	require.Equal(t, "7", fields["comments_count"])
	require.Equal(t, "Vendimia en Guaymallén", fields["caption"])
	// absent in the payload, present and empty in the record
	require.Equal(t, "", fields["media_url"])
}

func TestEnrichAttachesReelInsights(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	var requestedMetrics string
	mux := http.NewServeMux()
	mux.HandleFunc("/reel-1/insights", func(w http.ResponseWriter, r *http.Request) {
		requestedMetrics = r.URL.Query().Get("metric")
		writeJSON(w, map[string]any{
			"data": []any{
				map[string]any{
					"name":   "plays",
					"values": []any{map[string]any{"value": float64(1234)}},
				},
				map[string]any{
					"name":   "reach",
					"values": []any{map[string]any{"value": float64(987)}},
				},
			},
		})
	})

	client, _, _ := newTestClient(t, mux)
	source := NewSource(client)

	record := run.Record{
		ID: "reel-1",
		Fields: map[string]string{
			"media_type":         "VIDEO",
			"media_product_type": "REELS",
		},
	}
	source.Enrich(context.Background(), &record)

	require.Equal(t, reelMetrics, requestedMetrics)
	require.Equal(t, "1234", record.Fields["plays"])
	require.Equal(t, "987", record.Fields["reach"])
}

func TestEnrichFailureKeepsBaseFields(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/post-1/insights", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{"error": map[string]any{"message": "unsupported metric"}})
	})

	client, rec, _ := newTestClient(t, mux)
	source := NewSource(client)

	record := run.Record{ID: "post-1", Fields: map[string]string{"media_type": "IMAGE"}}
	source.Enrich(context.Background(), &record)

	require.Equal(t, "IMAGE", record.Fields["media_type"])
	require.NotContains(t, record.Fields, "impressions")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, fetch.KindUpstreamError, entries[0].Kind)
}

func TestActiveStoriesPullsPerStoryInsights(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/17841400000000000/stories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data": []any{
				map[string]any{"id": "story-1", "media_type": "IMAGE"},
			},
		})
	})
	mux.HandleFunc("/story-1/insights", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, StoryMetrics, r.URL.Query().Get("metric"))
		writeJSON(w, map[string]any{
			"data": []any{
				map[string]any{
					"name":   "exits",
					"values": []any{map[string]any{"value": float64(3)}},
				},
			},
		})
	})

	client, _, _ := newTestClient(t, mux)
	stories, err := client.ActiveStories(context.Background())
	require.NoError(t, err)

	data := stories["data"].([]any)
	require.Len(t, data, 1)
	story := data[0].(map[string]any)
	require.NotNil(t, story["insights"])
}

func TestExchangeLongLivedToken(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	const appSecret = "supersecret456"

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		require.Equal(t, "fb_exchange_token", query.Get("grant_type"))
		require.Equal(t, appSecret, query.Get("client_secret"))
		require.Equal(t, testToken, query.Get("fb_exchange_token"))
		writeJSON(w, map[string]any{
			"access_token": "EAAGlonglived789",
			"token_type":   "bearer",
			"expires_in":   float64(5183944),
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	rec := auditlog.NewRecorder(nil, testToken, appSecret, "EAAGlonglived789")
	client := fetch.NewClient(fetch.Options{BaseURL: server.URL})

	token, err := ExchangeLongLivedToken(context.Background(), client, rec, "1234", appSecret, testToken)
	require.NoError(t, err)
	require.Equal(t, "EAAGlonglived789", token.AccessToken)
	require.Equal(t, int64(5183944), token.ExpiresIn)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	for _, secret := range []string{appSecret, testToken, "EAAGlonglived789"} {
		require.False(t, strings.Contains(entries[0].Params, secret))
		require.False(t, strings.Contains(entries[0].Payload, secret))
	}
}

func TestExchangeRejectsIncompleteCredentials(t *testing.T) {
	rec := auditlog.NewRecorder(nil)
	client := fetch.NewClient(fetch.Options{BaseURL: "http://127.0.0.1:1"})

	_, err := ExchangeLongLivedToken(context.Background(), client, rec, "", "secret", "token")
	require.Error(t, err)
	// nothing fetched, nothing logged
	require.Empty(t, rec.Entries())
}

func TestEnrichAttachesCommentThread(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/post-5/insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("/post-5/comments", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, commentFields, r.URL.Query().Get("fields"))
		writeJSON(w, map[string]any{
			"data": []any{
				map[string]any{"username": "vecina.mza", "text": "Hermosa foto"},
				map[string]any{"username": "turista22", "text": "Dónde queda?"},
			},
		})
	})

	client, _, _ := newTestClient(t, mux)
	source := NewSource(client)

	record := run.Record{
		ID: "post-5",
		Fields: map[string]string{
			"media_type":     "IMAGE",
			"comments_count": "2",
		},
	}
	source.Enrich(context.Background(), &record)

	require.Equal(t, "vecina.mza: Hermosa foto | turista22: Dónde queda?", record.Fields["comments"])
}

func TestEnrichSkipsCommentsOnUncommentedPost(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	var commentHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/post-6/insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("/post-6/comments", func(w http.ResponseWriter, r *http.Request) {
		commentHits++
		writeJSON(w, map[string]any{"data": []any{}})
	})

	client, _, _ := newTestClient(t, mux)
	source := NewSource(client)

	record := run.Record{
		ID: "post-6",
		Fields: map[string]string{
			"media_type":     "IMAGE",
			"comments_count": "0",
		},
	}
	source.Enrich(context.Background(), &record)

	require.Zero(t, commentHits)
	require.NotContains(t, record.Fields, "comments")
}

func TestProfileEndpoints(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:meta")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/17841400000000000", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, profileFields, r.URL.Query().Get("fields"))
		writeJSON(w, map[string]any{"username": "muni.guaymallen", "followers_count": float64(12000)})
	})
	mux.HandleFunc("/17841400000000000/insights", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("period") {
		case "day":
			writeJSON(w, map[string]any{"data": []any{map[string]any{"name": "reach"}}})
		case "lifetime":
			writeJSON(w, map[string]any{"data": []any{map[string]any{"name": "audience_city"}}})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/17841400000000000/tags", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, mentionFields, r.URL.Query().Get("fields"))
		writeJSON(w, map[string]any{"data": []any{map[string]any{"id": "mention-1"}}})
	})
	mux.HandleFunc("/post-7/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": []any{map[string]any{"id": "c1", "text": "hola"}}})
	})

	client, rec, _ := newTestClient(t, mux)
	ctx := context.Background()

	profile, err := client.ProfileStats(ctx)
	require.NoError(t, err)
	require.Equal(t, "muni.guaymallen", profile["username"])

	daily, err := client.ProfileInsights(ctx)
	require.NoError(t, err)
	require.Len(t, daily["data"], 1)

	audience, err := client.AudienceInsights(ctx)
	require.NoError(t, err)
	require.Len(t, audience["data"], 1)

	mentions, err := client.Mentions(ctx)
	require.NoError(t, err)
	require.Len(t, mentions["data"], 1)

	comments, err := client.Comments(ctx, "post-7")
	require.NoError(t, err)
	require.Len(t, comments["data"], 1)

	// one audit entry per call, none carrying the credential
	require.Len(t, rec.Entries(), 5)
	for _, entry := range rec.Entries() {
		require.NotContains(t, entry.Params, testToken)
	}
}
