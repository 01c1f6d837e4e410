package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kindredlab/kindred/backend/internal/model/session"
	"github.com/kindredlab/kindred/backend/internal/store"
)

func TestListProfiles(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	docs := map[string]session.Document{
		"sess-1": {
			Username:  "alice",
			Texts:     []session.TextSample{{Text: "I love hiking"}},
			Interests: []string{"Outdoorsy"},
		},
		"sess-2": {
			Username: "bob",
		},
	}
	for id, doc := range docs {
		if _, err := st.Put(ctx, id, doc, ""); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	r := chi.NewRouter()
	New(st).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var summaries []profileSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(summaries))
	}

	byID := make(map[string]profileSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}
	if byID["sess-1"].Username != "alice" || byID["sess-1"].TextCount != 1 {
		t.Fatalf("unexpected summary for sess-1: %+v", byID["sess-1"])
	}
	if len(byID["sess-1"].Interests) != 1 || byID["sess-1"].Interests[0] != "Outdoorsy" {
		t.Fatalf("unexpected interests for sess-1: %v", byID["sess-1"].Interests)
	}
	if byID["sess-2"].Username != "bob" || byID["sess-2"].TextCount != 0 {
		t.Fatalf("unexpected summary for sess-2: %+v", byID["sess-2"])
	}
}

func TestListProfilesEmpty(t *testing.T) {
	st := store.NewMemoryStore()

	r := chi.NewRouter()
	New(st).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body == "null\n" {
		t.Fatal("expected an empty array, got null")
	}
}
