package traits

import "testing"

func TestAnalyzeHikingText(t *testing.T) {
	profile := Analyze([]string{"I like hiking and camping on the weekend"})

	found := false
	for _, trait := range profile.Personality {
		if trait.Name == "Adventurousness" {
			found = true
			if trait.Percentile < 0.75 {
				t.Fatalf("expected adventurousness above threshold, got %f", trait.Percentile)
			}
		}
	}
	if !found {
		t.Fatal("expected Adventurousness in personality scores")
	}
}

func TestAnalyzeEmptySamples(t *testing.T) {
	profile := Analyze(nil)
	if !profile.Empty() {
		t.Fatalf("expected empty profile, got %+v", profile)
	}
}

func TestAnalyzePercentileCapped(t *testing.T) {
	samples := []string{"hike hike hike hiking travel explore outdoor camping climb adventure trail"}
	profile := Analyze(samples)
	for _, trait := range profile.Personality {
		if trait.Percentile > 0.97 {
			t.Fatalf("percentile above cap: %f", trait.Percentile)
		}
	}
}

func TestAnalyzeCoversAllDimensions(t *testing.T) {
	profile := Analyze([]string{"I volunteer at the library, love cooking, and always wonder why things work"})

	if len(profile.Needs) == 0 {
		t.Fatal("expected needs scores")
	}
	if len(profile.Values) == 0 {
		t.Fatal("expected values scores")
	}
}
