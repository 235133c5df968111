package search

import (
	"reflect"
	"testing"
)

func TestTokenizeLowersAndDedupes(t *testing.T) {
	got := Tokenize("Tokyo TOKYO street Food food")
	want := []string{"tokyo", "street", "food"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	got := Tokenize("the best ramen in the city")
	for _, tok := range got {
		if stopWords[tok] {
			t.Fatalf("stop word %q survived tokenization: %v", tok, got)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("loved #kyoto and #StreetFood this spring")
	want := []string{"#kyoto", "#streetfood"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractHashtags = %v, want %v", got, want)
	}
}
