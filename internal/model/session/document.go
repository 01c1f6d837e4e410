package session

// TextSample is one transcript line with the timestamp it was recorded at.
type TextSample struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// Document is the persisted per-conversation record: the transcript a user
// has produced so far, the display name bound to the session, and the
// interests accumulated from trait inference. Texts is append-only and
// Interests carries set semantics even though it is stored as a slice.
type Document struct {
	Username  string       `json:"username"`
	Texts     []TextSample `json:"texts"`
	Interests []string     `json:"interests"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching the version read from the store.
func (d Document) Clone() Document {
	out := Document{Username: d.Username}
	if d.Texts != nil {
		out.Texts = make([]TextSample, len(d.Texts))
		copy(out.Texts, d.Texts)
	}
	if d.Interests != nil {
		out.Interests = make([]string, len(d.Interests))
		copy(out.Interests, d.Interests)
	}
	return out
}

// HasInterest reports whether the label is already present.
func (d Document) HasInterest(label string) bool {
	for _, item := range d.Interests {
		if item == label {
			return true
		}
	}
	return false
}
