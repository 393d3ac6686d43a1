package news

import (
	"strings"

	"guaymallen-backend/services/run"

	"github.com/antzucaro/matchr"
)

// pairs of records whose headlines look like the same story picked up
// by two portals; reported for the analyst, never dropped
type SimilarPair struct {
	A, B       run.Record
	Similarity float64
}

const defaultSimilarityThreshold = 0.93

// NearDuplicateHeadlines compares headlines across different sources
// with Jaro-Winkler and reports pairs above the threshold (pass 0 for
// the default). Dedup by identifier already happened; this only flags
// the same story under two urls.
func NearDuplicateHeadlines(records []run.Record, threshold float64) []SimilarPair {
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}

	var pairs []SimilarPair
	for i := 0; i < len(records); i++ {
		left := strings.ToLower(records[i].Fields["headline"])
		if left == "" {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if records[i].Source == records[j].Source {
				continue
			}
			right := strings.ToLower(records[j].Fields["headline"])
			if right == "" {
				continue
			}
			similarity := matchr.JaroWinkler(left, right, false)
			if similarity >= threshold {
				pairs = append(pairs, SimilarPair{
					A:          records[i],
					B:          records[j],
					Similarity: similarity,
				})
			}
		}
	}
	return pairs
}
