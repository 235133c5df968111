package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"voyagr/globals"
	"voyagr/models"
	"voyagr/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handler wires the controller into the HTTP surface.
type Handler struct {
	store      ConversationStore
	guest      GuestStore
	completer  Completer
	guestLimit int
	registry   *Registry
}

func NewHandler(store ConversationStore, guest GuestStore, completer Completer, guestLimit int) *Handler {
	return &Handler{
		store:      store,
		guest:      guest,
		completer:  completer,
		guestLimit: guestLimit,
		registry:   NewRegistry(),
	}
}

type sendRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Text           string `json:"text"`
}

func ownerKey(userID, guestID string) string {
	if userID != "" {
		return "u:" + userID
	}
	return "g:" + guestID
}

func requestIdentity(r *http.Request) (userID, guestID string) {
	if v, ok := r.Context().Value(globals.UserIDKey).(string); ok {
		userID = v
	}
	if v, ok := r.Context().Value(globals.GuestIDKey).(string); ok {
		guestID = v
	}
	return userID, guestID
}

func (h *Handler) controllerFor(userID, guestID string) *Controller {
	key := ownerKey(userID, guestID)
	return h.registry.Obtain(key, func() *Controller {
		return NewController(Config{
			Store:      h.store,
			Guest:      h.guest,
			Completer:  h.completer,
			UserID:     userID,
			GuestID:    guestID,
			GuestLimit: h.guestLimit,
		})
	})
}

// POST /api/chat/send
// Relays the controller's released output downstream as SSE frames.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, guestID := requestIdentity(r)
	if userID == "" && guestID == "" {
		http.Error(w, "Missing identity", http.StatusBadRequest)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctrl := h.controllerFor(userID, guestID)

	if req.Destination != "" {
		conv := ctrl.Conversation()
		if conv == nil || conv.Destination != req.Destination {
			if err := ctrl.StartNewSession(r.Context(), req.Destination); err != nil {
				http.Error(w, "Failed to open session", http.StatusInternalServerError)
				return
			}
		}
	}
	if req.Mode != "" {
		if err := ctrl.SelectMode(r.Context(), req.Mode); err != nil {
			http.Error(w, "Invalid mode", http.StatusBadRequest)
			return
		}
	}

	sink := &sseSink{w: w, flusher: flusher}
	err := ctrl.SendMessage(r.Context(), req.Text, sink)
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"signIn": true, "error": "Guest message limit reached"})
	case errors.Is(err, ErrBusy):
		http.Error(w, "A message is already in flight", http.StatusConflict)
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, "Message text required", http.StatusBadRequest)
	case err != nil:
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
	}
}

// POST /api/chat/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, guestID := requestIdentity(r)
	ctrl := h.registry.Lookup(ownerKey(userID, guestID))
	if ctrl == nil {
		http.Error(w, "No active chat", http.StatusNotFound)
		return
	}
	ctrl.Cancel()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"cancelled": true})
}

// GET /api/chat/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	convs, err := h.store.List(ctx, userID)
	if err != nil {
		http.Error(w, "Failed to fetch conversations", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, convs)
}

// POST /api/chat/conversations
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Destination string `json:"destination"`
		Mode        string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Destination == "" {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.Mode == "" {
		input.Mode = ModeAsk
	}
	if !ValidMode(input.Mode) {
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	conv, err := h.store.Create(ctx, userID, input.Destination, input.Mode)
	if err != nil {
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, conv)
}

// GET /api/chat/conversations/:id/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.store.Messages(ctx, ps.ByName("id"))
	if err != nil {
		http.Error(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, msgs)
}

// PUT /api/chat/conversations/:id/mode
func (h *Handler) UpdateMode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || !ValidMode(input.Mode) {
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.UpdateMode(ctx, ps.ByName("id"), input.Mode); err != nil {
		http.Error(w, "Failed to update mode", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"mode": input.Mode})
}

// DELETE /api/chat/conversations/:id
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	conversationID := ps.ByName("id")
	err := h.store.Delete(ctx, userID, conversationID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete conversation", http.StatusInternalServerError)
		return
	}

	// Evict the live controller only when it is pointed at the deleted
	// conversation; deleting an old conversation must not strand an
	// in-flight send elsewhere.
	key := ownerKey(userID, "")
	if ctrl := h.registry.Lookup(key); ctrl != nil {
		if conv := ctrl.Conversation(); conv != nil && conv.ConversationID == conversationID {
			h.registry.Remove(key)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"deleted": true})
}

// GET /api/chat/guest/messages
func (h *Handler) GuestMessages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	guestID := r.Header.Get("X-Guest-ID")
	if guestID == "" {
		http.Error(w, "Missing guest ID", http.StatusBadRequest)
		return
	}

	msgs, err := h.guest.Messages(r.Context(), guestID)
	if err != nil {
		http.Error(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"messages": msgs,
		"limit":    h.guestLimit,
	})
}

// DELETE /api/chat/guest/messages
func (h *Handler) ClearGuestMessages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	guestID := r.Header.Get("X-Guest-ID")
	if guestID == "" {
		http.Error(w, "Missing guest ID", http.StatusBadRequest)
		return
	}
	if err := h.guest.Clear(r.Context(), guestID); err != nil {
		http.Error(w, "Failed to clear messages", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"cleared": true})
}

// sseSink relays controller events to the browser as SSE frames. The
// headers go out lazily so pre-stream rejections can still respond with
// plain JSON.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu          sync.Mutex
	wroteHeader bool
}

func (s *sseSink) writeFrame(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wroteHeader {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.wroteHeader = true
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *sseSink) OnDelta(messageID, delta string) {
	s.writeFrame(utils.M{"type": "content", "messageId": messageID, "content": delta})
}

func (s *sseSink) OnAttachment(messageID string, frame Frame) {
	s.writeFrame(utils.M{"type": frame.Type, "messageId": messageID, "payload": frame})
}

func (s *sseSink) OnDone(msg models.ChatMessage) {
	s.writeFrame(utils.M{"type": "done", "message": msg})
}

func (s *sseSink) OnError(messageID string, err error) {
	s.writeFrame(utils.M{"type": "error", "messageId": messageID, "error": err.Error()})
}
