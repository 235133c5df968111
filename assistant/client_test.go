package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voyagr/chat"
)

func TestStreamReadsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chat.CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.MessageText != "Best food in Tokyo" {
			t.Errorf("unexpected message text %q", req.MessageText)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"content\":\"Tokyo \"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content\",\"content\":\"has great food.\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"done\",\"citations\":[\"a\"]}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL)
	reader, err := client.Stream(context.Background(), chat.CompletionRequest{
		MessageText: "Best food in Tokyo",
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer reader.Close()

	var text string
	var citations []string
	for {
		f, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		switch f.Type {
		case chat.FrameContent:
			text += f.Content
		case chat.FrameDone:
			citations = f.Citations
		}
	}

	if text != "Tokyo has great food." {
		t.Fatalf("unexpected text %q", text)
	}
	if len(citations) != 1 || citations[0] != "a" {
		t.Fatalf("unexpected citations %v", citations)
	}
}

func TestStreamSkipsMalformedFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL)
	reader, err := client.Stream(context.Background(), chat.CompletionRequest{MessageText: "x"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer reader.Close()

	_, err = reader.Next()
	if !errors.Is(err, chat.ErrBadFrame) {
		t.Fatalf("expected ErrBadFrame for corrupt frame, got %v", err)
	}

	f, err := reader.Next()
	if err != nil || f.Type != chat.FrameDone {
		t.Fatalf("stream must stay usable after a bad frame, got %+v %v", f, err)
	}
}

// One itinerary or card frame can easily outgrow bufio.Scanner's
// default 64KB token cap; the reader must survive it.
func TestStreamHandlesOversizedFrame(t *testing.T) {
	big := strings.Repeat("x", 200_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		frame, err := json.Marshal(map[string]string{"type": "content", "content": big})
		if err != nil {
			t.Errorf("marshal: %v", err)
		}
		fmt.Fprintf(w, "data: %s\n\n", frame)
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL)
	reader, err := client.Stream(context.Background(), chat.CompletionRequest{MessageText: "x"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer reader.Close()

	f, err := reader.Next()
	if err != nil {
		t.Fatalf("oversized frame must not end the stream: %v", err)
	}
	if f.Type != chat.FrameContent || f.Content != big {
		t.Fatalf("oversized frame decoded wrong: type=%q len=%d", f.Type, len(f.Content))
	}

	if f, err := reader.Next(); err != nil || f.Type != chat.FrameDone {
		t.Fatalf("stream must continue after the big frame, got %+v %v", f, err)
	}
}

func TestStreamNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.URL)
	if _, err := client.Stream(context.Background(), chat.CompletionRequest{MessageText: "x"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/title" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"title": "Tokyo food tour"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	title, err := client.Title(context.Background(), "Tokyo", "Best food?", "Plenty of ramen.")
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "Tokyo food tour" {
		t.Fatalf("unexpected title %q", title)
	}
}
