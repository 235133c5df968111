package chat

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"voyagr/models"
	"voyagr/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Same relaxed policy as the HTTP CORS config.
		return true
	},
}

// SendWS is the WebSocket variant of Send: the client writes one send
// request and receives the same event frames the SSE relay produces.
func (h *Handler) SendWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, guestID := requestIdentity(r)
	if userID == "" && guestID == "" {
		http.Error(w, "Missing identity", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat: ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req sendRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(utils.M{"type": "error", "error": "invalid request"})
		return
	}

	ctrl := h.controllerFor(userID, guestID)

	if req.Destination != "" {
		conv := ctrl.Conversation()
		if conv == nil || conv.Destination != req.Destination {
			if err := ctrl.StartNewSession(r.Context(), req.Destination); err != nil {
				conn.WriteJSON(utils.M{"type": "error", "error": "failed to open session"})
				return
			}
		}
	}
	if req.Mode != "" {
		if err := ctrl.SelectMode(r.Context(), req.Mode); err != nil {
			conn.WriteJSON(utils.M{"type": "error", "error": "invalid mode"})
			return
		}
	}

	sink := &wsSink{conn: conn}

	// A "cancel" text frame from the client aborts the stream.
	go func() {
		for {
			var ctl struct {
				Action string `json:"action"`
			}
			if err := conn.ReadJSON(&ctl); err != nil {
				return
			}
			if ctl.Action == "cancel" {
				ctrl.Cancel()
			}
		}
	}()

	err = ctrl.SendMessage(r.Context(), req.Text, sink)
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		conn.WriteJSON(utils.M{"type": "signin", "error": "guest message limit reached"})
	case err != nil:
		conn.WriteJSON(utils.M{"type": "error", "error": err.Error()})
	}
}

// wsSink serializes controller events onto one WebSocket connection.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) send(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		log.Printf("chat: ws write failed: %v", err)
	}
}

func (s *wsSink) OnDelta(messageID, delta string) {
	s.send(utils.M{"type": "content", "messageId": messageID, "content": delta})
}

func (s *wsSink) OnAttachment(messageID string, frame Frame) {
	s.send(utils.M{"type": frame.Type, "messageId": messageID, "payload": frame})
}

func (s *wsSink) OnDone(msg models.ChatMessage) {
	s.send(utils.M{"type": "done", "message": msg})
}

func (s *wsSink) OnError(messageID string, err error) {
	s.send(utils.M{"type": "error", "messageId": messageID, "error": err.Error()})
}
