package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voyagr/chat"
)

// maxFrameBytes bounds a single stream frame.
const maxFrameBytes = 4 << 20

// Client talks to the streaming completion service. The response body
// is a chunked stream of blank-line-separated "data: {json}" frames.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// No overall timeout; streams stay open until done or cancel.
		httpClient: &http.Client{},
	}
}

func (c *Client) Stream(ctx context.Context, req chat.CompletionRequest) (chat.FrameReader, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/stream", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("assistant returned status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	// Itinerary and card frames can be far bigger than the scanner's
	// default 64KB token cap.
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	return &sseReader{body: resp.Body, scanner: scanner}, nil
}

func (c *Client) Title(ctx context.Context, destination, userText, replyText string) (string, error) {
	payload := map[string]string{
		"destination": destination,
		"userText":    userText,
		"replyText":   replyText,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/v1/chat/title", c.baseURL)
	httpReq, err := http.NewRequestWithContext(tctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("title request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}

	var out struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse title response: %w", err)
	}
	return out.Title, nil
}

// sseReader walks the stream line by line, skipping the blank frame
// separators and handing each data line to the frame decoder.
type sseReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (r *sseReader) Next() (chat.Frame, error) {
	for r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return chat.ParseFrame(line)
	}
	if err := r.scanner.Err(); err != nil {
		return chat.Frame{}, err
	}
	return chat.Frame{}, io.EOF
}

func (r *sseReader) Close() error {
	return r.body.Close()
}
