package suggestions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetSuggestionsFiltersByQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?section=destinations&q=japan", nil)
	rec := httptest.NewRecorder()
	GetSuggestions(rec, req, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var items []map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected destinations matching japan")
	}
	for _, item := range items {
		matched := false
		for _, v := range item {
			if strings.Contains(strings.ToLower(v), "japan") {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("entry %v does not match the query", item)
		}
	}
}

func TestGetSuggestionsUnknownSection(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?section=nope", nil)
	rec := httptest.NewRecorder()
	GetSuggestions(rec, req, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown section must 400, got %d", rec.Code)
	}
}

func TestPaginateListBounds(t *testing.T) {
	data := []map[string]string{{"a": "1"}, {"b": "2"}, {"c": "3"}}

	if got := paginateList(data, 1, 2); len(got) != 2 {
		t.Fatalf("expected 2 items on page 1, got %d", len(got))
	}
	if got := paginateList(data, 2, 2); len(got) != 1 {
		t.Fatalf("expected 1 item on page 2, got %d", len(got))
	}
	if got := paginateList(data, 3, 2); len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(got))
	}
}
