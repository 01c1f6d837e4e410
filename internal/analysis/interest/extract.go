// Package interest turns a trait-inference profile into flat interest labels.
package interest

import "github.com/kindredlab/kindred/backend/internal/model/insights"

// Threshold is the inclusive percentile cutoff for a trait to count as an
// interest.
const Threshold = 0.75

// Extract collects the name of every scored trait at or above Threshold.
// Dimensions concatenate in personality, needs, values order and each
// dimension keeps its own ordering. Missing lists contribute nothing; the
// caller owns deduplication when merging into a document.
func Extract(profile insights.Profile) []string {
	var labels []string
	for _, dimension := range [][]insights.TraitScore{profile.Personality, profile.Needs, profile.Values} {
		for _, trait := range dimension {
			if trait.Percentile >= Threshold {
				labels = append(labels, trait.Name)
			}
		}
	}
	return labels
}
