package models

import (
	"encoding/json"
	"time"
)

// Conversation is a named chat session tied to a destination.
type Conversation struct {
	ConversationID string    `json:"conversationid" bson:"conversationid"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Destination    string    `json:"destination,omitempty" bson:"destination,omitempty"`
	Mode           string    `json:"mode" bson:"mode"` // ask | itinerary
	Title          string    `json:"title,omitempty" bson:"title,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	Deleted        bool      `json:"-" bson:"deleted,omitempty"`
}

// ChatMessage is one turn of a conversation. Assistant text grows while
// the reply is still streaming; Mode is captured at send time and never
// changes afterwards even if the conversation switches modes.
type ChatMessage struct {
	MessageID      string `json:"message_id" bson:"message_id"`
	ConversationID string `json:"conversationid,omitempty" bson:"conversationid,omitempty"`
	Role           string `json:"role" bson:"role"` // user | assistant
	Text           string `json:"text" bson:"text"`
	Mode           string `json:"mode" bson:"mode"`

	Cards            []PlaceCard     `json:"cards,omitempty" bson:"cards,omitempty"`
	Videos           []VideoResult   `json:"videos,omitempty" bson:"videos,omitempty"`
	VideoAnalysis    json.RawMessage `json:"videoAnalysis,omitempty" bson:"videoAnalysis,omitempty"`
	SmartVideoResult json.RawMessage `json:"smartVideoResult,omitempty" bson:"smartVideoResult,omitempty"`
	Itinerary        json.RawMessage `json:"itinerary,omitempty" bson:"itinerary,omitempty"`
	ToolCalls        []ToolCall      `json:"toolCalls,omitempty" bson:"toolCalls,omitempty"`
	Citations        []string        `json:"citations,omitempty" bson:"citations,omitempty"`

	CreatedAt time.Time `json:"createdat" bson:"createdat"`
}

// PlaceCard is the structured place recommendation attached to replies.
type PlaceCard struct {
	Name     string  `json:"name" bson:"name"`
	Address  string  `json:"address,omitempty" bson:"address,omitempty"`
	Category string  `json:"category,omitempty" bson:"category,omitempty"`
	Rating   float64 `json:"rating,omitempty" bson:"rating,omitempty"`
	Lat      float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty" bson:"lng,omitempty"`
	ImageURL string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

type VideoResult struct {
	Title     string `json:"title" bson:"title"`
	URL       string `json:"url" bson:"url"`
	Thumbnail string `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Channel   string `json:"channel,omitempty" bson:"channel,omitempty"`
	Duration  string `json:"duration,omitempty" bson:"duration,omitempty"`
}

type ToolCall struct {
	Name      string          `json:"name" bson:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty" bson:"arguments,omitempty"`
}
