// Package traits derives a rough trait profile from transcript text using
// keyword heuristics. It stands in for the model-backed inference path when
// no chat model is configured or the model call fails.
package traits

import (
	"math"
	"strings"

	"github.com/kindredlab/kindred/backend/internal/model/insights"
)

// A single keyword hit already clears the extraction threshold; further hits
// push the percentile toward the cap.
const (
	basePercentile = 0.60
	perHit         = 0.15
	maxPercentile  = 0.97
)

type bucket struct {
	name     string
	keywords []string
}

var personalityBuckets = []bucket{
	{"Adventurousness", []string{"hike", "hiking", "travel", "explore", "outdoor", "camping", "climb", "adventure", "trail"}},
	{"Artistic interests", []string{"music", "paint", "painting", "draw", "art", "sing", "guitar", "piano", "photography", "design"}},
	{"Intellect", []string{"read", "reading", "book", "books", "science", "history", "learn", "study", "philosophy"}},
	{"Cheerfulness", []string{"fun", "laugh", "joke", "party", "friends", "happy"}},
	{"Sympathy", []string{"help", "care", "listen", "kind", "support"}},
}

var needsBuckets = []bucket{
	{"Excitement", []string{"thrill", "adrenaline", "race", "extreme", "fast", "rush"}},
	{"Harmony", []string{"peace", "calm", "quiet", "relax", "nature", "garden"}},
	{"Curiosity", []string{"why", "wonder", "curious", "learn", "discover", "question"}},
	{"Practicality", []string{"build", "fix", "make", "craft", "work", "project"}},
}

var valuesBuckets = []bucket{
	{"Helping others", []string{"volunteer", "charity", "help", "community", "donate"}},
	{"Openness to change", []string{"new", "change", "try", "different", "experiment"}},
	{"Conservation", []string{"tradition", "family", "home", "routine", "stable"}},
	{"Hedonism", []string{"food", "eat", "cook", "cooking", "wine", "enjoy", "taste", "restaurant"}},
}

// Analyze scores the concatenated samples against each trait bucket and
// returns only the traits that got at least one hit.
func Analyze(samples []string) insights.Profile {
	text := strings.ToLower(strings.Join(samples, " "))
	return insights.Profile{
		Personality: scoreBuckets(text, personalityBuckets),
		Needs:       scoreBuckets(text, needsBuckets),
		Values:      scoreBuckets(text, valuesBuckets),
	}
}

func scoreBuckets(text string, buckets []bucket) []insights.TraitScore {
	var scores []insights.TraitScore
	for _, b := range buckets {
		hits := 0
		for _, word := range b.keywords {
			hits += strings.Count(text, word)
		}
		if hits == 0 {
			continue
		}
		percentile := math.Min(basePercentile+perHit*float64(hits), maxPercentile)
		scores = append(scores, insights.TraitScore{Name: b.name, Percentile: percentile})
	}
	return scores
}
