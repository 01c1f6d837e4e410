package insights

// TraitScore is one scored category from trait inference.
type TraitScore struct {
	Name       string  `json:"name"`
	Percentile float64 `json:"percentile"`
}

// Profile is the trait-inference result: three labeled score lists in the
// personality/needs/values shape. Any of the lists may be nil.
type Profile struct {
	Personality []TraitScore `json:"personality"`
	Needs       []TraitScore `json:"needs"`
	Values      []TraitScore `json:"values"`
}

// Empty reports whether inference produced no scores at all.
func (p Profile) Empty() bool {
	return len(p.Personality) == 0 && len(p.Needs) == 0 && len(p.Values) == 0
}

// ContentItem is one timestamped text sample submitted for inference.
type ContentItem struct {
	ID          string `json:"id"`
	Language    string `json:"language"`
	ContentType string `json:"contenttype"`
	Content     string `json:"content"`
	Created     int64  `json:"created"`
	Reply       bool   `json:"reply"`
}
