package meta

// Insight metric sets per media kind. The product type wins over the
// media type: a reel reports MEDIA_TYPE=VIDEO but only accepts the
// reel metric set, so checking media_type first would 400 on every
// reel.

const reelMetrics = "plays,reach,saved,shares,total_interactions"

const videoMetrics = "video_views,reach,saved,total_interactions"

const defaultMetrics = "impressions,reach,saved,engagement"

// StoryMetrics is the set accepted by story insights; stories reject
// every feed metric.
const StoryMetrics = "exits,replies,taps_forward,taps_back,impressions,reach"

// MetricsFor picks the insight metric set for one post.
func MetricsFor(mediaType, productType string) string {
	if productType == "REELS" {
		return reelMetrics
	}
	if mediaType == "VIDEO" {
		return videoMetrics
	}
	return defaultMetrics
}
