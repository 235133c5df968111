package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"voyagr/models"
)

// Conversation modes.
const (
	ModeAsk       = "ask"
	ModeItinerary = "itinerary"
)

func ValidMode(mode string) bool {
	return mode == ModeAsk || mode == ModeItinerary
}

// Frame types emitted by the completion endpoint.
const (
	FrameContent    = "content"
	FrameCards      = "cards"
	FrameVideos     = "videos"
	FrameVideoAnal  = "videoAnalysis"
	FrameSmartVideo = "smartVideoResult"
	FrameItinerary  = "itinerary"
	FrameToolCalls  = "toolCalls"
	FrameDone       = "done"
	FrameError      = "error"
)

// Frame is one decoded event from the completion stream. Type is the
// discriminator; exactly one payload field is meaningful per type.
type Frame struct {
	Type             string               `json:"type"`
	Content          string               `json:"content,omitempty"`
	Cards            []models.PlaceCard   `json:"cards,omitempty"`
	Videos           []models.VideoResult `json:"videos,omitempty"`
	VideoAnalysis    json.RawMessage      `json:"videoAnalysis,omitempty"`
	SmartVideoResult json.RawMessage      `json:"smartVideoResult,omitempty"`
	Itinerary        json.RawMessage      `json:"itinerary,omitempty"`
	ToolCalls        []models.ToolCall    `json:"toolCalls,omitempty"`
	Citations        []string             `json:"citations,omitempty"`
	Error            string               `json:"error,omitempty"`
}

var framePrefix = []byte("data: ")

// ErrBadFrame marks a single unparseable frame. Readers surface it per
// frame so the controller can skip it without tearing down the stream.
var ErrBadFrame = errors.New("chat: malformed stream frame")

// ParseFrame decodes one "data: {...}" line into a Frame.
func ParseFrame(line []byte) (Frame, error) {
	var f Frame
	if !bytes.HasPrefix(line, framePrefix) {
		return f, fmt.Errorf("%w: missing data prefix", ErrBadFrame)
	}
	payload := bytes.TrimSpace(line[len(framePrefix):])
	if err := json.Unmarshal(payload, &f); err != nil {
		return f, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if f.Type == "" {
		return f, fmt.Errorf("%w: missing type", ErrBadFrame)
	}
	return f, nil
}

// FrameReader yields stream frames in wire order. Next returns io.EOF
// when the stream ends and an ErrBadFrame-wrapped error for a frame
// that could not be decoded (the stream is still usable afterwards).
type FrameReader interface {
	Next() (Frame, error)
	Close() error
}
