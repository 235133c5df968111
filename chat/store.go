package chat

import (
	"context"

	"voyagr/models"
)

// ConversationStore persists conversations and messages for signed-in
// users.
type ConversationStore interface {
	Create(ctx context.Context, userID, destination, mode string) (*models.Conversation, error)
	FindByDestination(ctx context.Context, userID, destination string) (*models.Conversation, error)
	List(ctx context.Context, userID string) ([]models.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
	AppendMessage(ctx context.Context, msg models.ChatMessage) error
	UpdateMode(ctx context.Context, conversationID, mode string) error
	UpdateTitle(ctx context.Context, conversationID, title string) error
	Delete(ctx context.Context, userID, conversationID string) error
}

// GuestStore keeps unauthenticated chat history on the side, with a
// hard message cap. Guests never touch the conversation store and
// signed-in users never touch this one.
type GuestStore interface {
	Count(ctx context.Context, guestID string) (int, error)
	Append(ctx context.Context, guestID string, msg models.ChatMessage) error
	Messages(ctx context.Context, guestID string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, guestID string) error
}

// CompletionRequest is the payload sent to the completion endpoint.
type CompletionRequest struct {
	SessionID          string               `json:"sessionId"`
	DestinationContext string               `json:"destinationContext"`
	PriorMessages      []models.ChatMessage `json:"priorMessages"`
	Mode               string               `json:"mode"`
	MessageText        string               `json:"messageText"`
}

// Completer is the streaming completion endpoint contract.
type Completer interface {
	Stream(ctx context.Context, req CompletionRequest) (FrameReader, error)
	Title(ctx context.Context, destination, userText, replyText string) (string, error)
}
