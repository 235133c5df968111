package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"voyagr/models"
	"voyagr/utils"
)

// Fixed user-visible strings. The UI renders these verbatim.
const (
	apologyText = "Sorry, I couldn't reach the travel assistant. Please try again."
	failureText = "Sorry, the assistant ran into a problem with that request."
	stoppedText = "Response stopped."
)

var (
	ErrBusy          = errors.New("chat: a message is already in flight")
	ErrQuotaExceeded = errors.New("chat: guest message limit reached")
	ErrEmptyMessage  = errors.New("chat: empty message")
	ErrBadMode       = errors.New("chat: unknown mode")
)

// EventSink observes controller output: released text deltas,
// structured attachments, and terminal events. Transports (SSE,
// WebSocket) implement it to relay the stream downstream.
type EventSink interface {
	OnDelta(messageID, delta string)
	OnAttachment(messageID string, frame Frame)
	OnDone(msg models.ChatMessage)
	OnError(messageID string, err error)
}

type nopSink struct{}

func (nopSink) OnDelta(string, string)     {}
func (nopSink) OnAttachment(string, Frame) {}
func (nopSink) OnDone(models.ChatMessage)  {}
func (nopSink) OnError(string, error)      {}

type Config struct {
	Store      ConversationStore // nil for guests
	Guest      GuestStore
	Completer  Completer
	UserID     string // empty means guest
	GuestID    string
	GuestLimit int

	Destination string
	Mode        string

	Ticker TickerFunc // nil uses real time
	Sink   EventSink
	Logger *log.Logger
}

// Controller owns one conversation: its message list, active mode, the
// in-flight request lifecycle and the token-release buffer. At most one
// send is in flight at a time; concurrent sends are rejected, not
// queued.
type Controller struct {
	cfg    Config
	sink   EventSink
	logger *log.Logger

	mu           sync.Mutex
	conversation *models.Conversation
	destination  string
	mode         string
	messages     []*models.ChatMessage
	loading      bool
	finalized    bool
	signIn       bool
	cancel       context.CancelFunc
	buf          *releaseBuffer
}

func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg, sink: cfg.Sink, logger: cfg.Logger}
	if c.sink == nil {
		c.sink = nopSink{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	c.destination = cfg.Destination
	c.mode = cfg.Mode
	if !ValidMode(c.mode) {
		c.mode = ModeAsk
	}
	return c
}

// Mode reports the active conversation mode.
func (c *Controller) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SignInPrompt reports whether the last send was rejected by the guest
// quota.
func (c *Controller) SignInPrompt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signIn
}

// Messages returns a snapshot of the in-memory message list.
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	for i, m := range c.messages {
		out[i] = *m
	}
	return out
}

func (c *Controller) Conversation() *models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversation == nil {
		return nil
	}
	conv := *c.conversation
	return &conv
}

// SelectMode switches the active mode. Messages already sent keep the
// mode they were produced under; switching mid-stream only affects
// later sends.
func (c *Controller) SelectMode(ctx context.Context, mode string) error {
	if !ValidMode(mode) {
		return ErrBadMode
	}
	c.mu.Lock()
	c.mode = mode
	conv := c.conversation
	if conv != nil {
		conv.Mode = mode
	}
	c.mu.Unlock()

	if conv != nil && c.cfg.Store != nil && c.cfg.UserID != "" {
		return c.cfg.Store.UpdateMode(ctx, conv.ConversationID, mode)
	}
	return nil
}

// StartNewSession points the controller at a destination. For signed-in
// users it resumes the newest conversation for that destination or
// creates one; the in-memory list is replaced either way. Guests keep
// chatting without a persisted session, so this is a no-op for them.
func (c *Controller) StartNewSession(ctx context.Context, destination string) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return errors.New("chat: destination required")
	}

	c.mu.Lock()
	c.destination = destination
	userID := c.cfg.UserID
	mode := c.mode
	c.mu.Unlock()

	if userID == "" || c.cfg.Store == nil {
		return nil
	}

	conv, err := c.cfg.Store.FindByDestination(ctx, userID, destination)
	if err != nil {
		return err
	}

	var history []*models.ChatMessage
	if conv == nil {
		conv, err = c.cfg.Store.Create(ctx, userID, destination, mode)
		if err != nil {
			return err
		}
	} else {
		msgs, err := c.cfg.Store.Messages(ctx, conv.ConversationID)
		if err != nil {
			return err
		}
		for i := range msgs {
			history = append(history, &msgs[i])
		}
	}

	c.mu.Lock()
	c.conversation = conv
	c.mode = conv.Mode
	c.messages = history
	c.mu.Unlock()
	return nil
}

// SendMessage runs one full exchange: it appends the user message and an
// empty assistant placeholder, opens the streaming request and consumes
// it to completion. Transport and backend errors are absorbed into the
// assistant message text; the returned error only covers rejections
// that happen before any message is created.
//
// The sink belongs to this send alone. It is attached only after the
// busy gate is acquired, so a rejected concurrent send can never detach
// the stream a winning send is relaying to. A nil sink falls back to
// the one configured at construction.
func (c *Controller) SendMessage(ctx context.Context, text string, sink EventSink) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if sink == nil {
		sink = c.cfg.Sink
	}
	if sink == nil {
		sink = nopSink{}
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	c.finalized = false
	c.signIn = false
	c.sink = sink
	mode := c.mode
	guest := c.cfg.UserID == ""
	c.mu.Unlock()

	if guest && c.cfg.Guest != nil {
		n, err := c.cfg.Guest.Count(ctx, c.cfg.GuestID)
		if err != nil {
			c.setIdle()
			return err
		}
		if c.cfg.GuestLimit > 0 && n >= c.cfg.GuestLimit {
			c.mu.Lock()
			c.loading = false
			c.signIn = true
			c.mu.Unlock()
			return ErrQuotaExceeded
		}
	}

	if !guest {
		if err := c.ensureConversation(ctx, mode); err != nil {
			c.setIdle()
			return err
		}
	}

	c.mu.Lock()
	convID := ""
	if c.conversation != nil {
		convID = c.conversation.ConversationID
	}
	now := time.Now()
	userMsg := &models.ChatMessage{
		MessageID:      utils.GenerateRandomString(16),
		ConversationID: convID,
		Role:           "user",
		Text:           text,
		Mode:           mode,
		CreatedAt:      now,
	}
	// The empty reply slot always exists before any content arrives.
	placeholder := &models.ChatMessage{
		MessageID:      utils.GenerateRandomString(16),
		ConversationID: convID,
		Role:           "assistant",
		Mode:           mode,
		CreatedAt:      now,
	}
	c.messages = append(c.messages, userMsg, placeholder)
	prior := make([]models.ChatMessage, 0, len(c.messages)-2)
	for _, m := range c.messages[:len(c.messages)-2] {
		prior = append(prior, *m)
	}
	destination := c.destination
	c.mu.Unlock()

	c.persistMessage(ctx, guest, *userMsg)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	reader, err := c.cfg.Completer.Stream(cctx, CompletionRequest{
		SessionID:          convID,
		DestinationContext: destination,
		PriorMessages:      prior,
		Mode:               mode,
		MessageText:        text,
	})
	if err != nil {
		c.transportFailure(err)
		return nil
	}
	defer reader.Close()

	c.consume(reader, guest)
	return nil
}

// Cancel aborts the in-flight request. Buffered text is flushed into
// the visible message first, so partial output survives; a reply that
// never received content gets the stopped placeholder instead of an
// empty bubble.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.finalized || !c.loading {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	cancel := c.cancel
	c.cancel = nil
	buf := c.buf
	c.buf = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	rest := ""
	if buf != nil {
		rest = buf.Stop()
	}

	c.mu.Lock()
	var final models.ChatMessage
	if msg := c.lastAssistantLocked(); msg != nil {
		msg.Text += rest
		if msg.Text == "" {
			msg.Text = stoppedText
		}
		final = *msg
	}
	c.loading = false
	c.mu.Unlock()

	c.getSink().OnDone(final)
}

func (c *Controller) ensureConversation(ctx context.Context, mode string) error {
	c.mu.Lock()
	have := c.conversation != nil
	destination := c.destination
	c.mu.Unlock()

	if have || destination == "" || c.cfg.Store == nil {
		return nil
	}
	conv, err := c.cfg.Store.Create(ctx, c.cfg.UserID, destination, mode)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conversation = conv
	c.mu.Unlock()
	return nil
}

func (c *Controller) consume(reader FrameReader, guest bool) {
	for {
		f, err := reader.Next()
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				c.logger.Printf("chat: skipping frame: %v", err)
				continue
			}
			c.streamEnded(err, guest)
			return
		}

		switch f.Type {
		case FrameContent:
			c.onContent(f.Content)
		case FrameCards, FrameVideos, FrameVideoAnal, FrameSmartVideo, FrameItinerary, FrameToolCalls:
			c.onAttachment(f)
		case FrameDone:
			c.finalize(f, guest)
		case FrameError:
			c.onErrorFrame(f)
		default:
			// Unknown types are forward compatibility, not errors.
		}
	}
}

func (c *Controller) onContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized {
		return
	}
	if c.buf == nil {
		c.buf = newReleaseBuffer(c.cfg.Ticker, c.applyDelta)
	}
	c.buf.Append(content)
}

// applyDelta runs on the buffer goroutine: it grows the newest
// assistant message by one released slice.
func (c *Controller) applyDelta(delta string) {
	c.mu.Lock()
	msg := c.lastAssistantLocked()
	var id string
	if msg != nil {
		msg.Text += delta
		id = msg.MessageID
	}
	c.mu.Unlock()
	if msg != nil {
		c.getSink().OnDelta(id, delta)
	}
}

// onAttachment applies structured payloads atomically, no buffering.
func (c *Controller) onAttachment(f Frame) {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		return
	}
	msg := c.lastAssistantLocked()
	if msg == nil {
		c.mu.Unlock()
		return
	}
	switch f.Type {
	case FrameCards:
		msg.Cards = f.Cards
	case FrameVideos:
		msg.Videos = f.Videos
	case FrameVideoAnal:
		msg.VideoAnalysis = f.VideoAnalysis
	case FrameSmartVideo:
		msg.SmartVideoResult = f.SmartVideoResult
	case FrameItinerary:
		msg.Itinerary = f.Itinerary
	case FrameToolCalls:
		msg.ToolCalls = f.ToolCalls
	}
	id := msg.MessageID
	c.mu.Unlock()
	c.getSink().OnAttachment(id, f)
}

// finalize handles a done frame: flush, citations, persist, title.
func (c *Controller) finalize(f Frame, guest bool) {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		c.logger.Printf("chat: duplicate done frame ignored")
		return
	}
	c.finalized = true
	buf := c.buf
	c.buf = nil
	c.mu.Unlock()

	rest := ""
	if buf != nil {
		rest = buf.Stop()
	}

	c.mu.Lock()
	msg := c.lastAssistantLocked()
	var final models.ChatMessage
	if msg != nil {
		msg.Text += rest
		if len(f.Citations) > 0 {
			msg.Citations = f.Citations
		}
		final = *msg
	}
	c.loading = false
	c.cancel = nil
	firstExchange := len(c.messages) == 2
	destination := c.destination
	userText := ""
	if len(c.messages) >= 2 {
		userText = c.messages[len(c.messages)-2].Text
	}
	c.mu.Unlock()

	if msg != nil {
		c.persistMessage(context.TODO(), guest, final)
		c.getSink().OnDone(final)
	}

	// Title generation is fire-and-forget; it must never block
	// finalization.
	if firstExchange && !guest && c.cfg.Completer != nil {
		go c.generateTitle(destination, userText, final.Text)
	}
}

func (c *Controller) onErrorFrame(f Frame) {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	buf := c.buf
	c.buf = nil
	c.mu.Unlock()

	if buf != nil {
		buf.Stop()
	}

	c.mu.Lock()
	var id string
	if msg := c.lastAssistantLocked(); msg != nil {
		msg.Text = failureText
		id = msg.MessageID
	}
	c.loading = false
	c.cancel = nil
	c.mu.Unlock()

	c.logger.Printf("chat: assistant error frame: %s", f.Error)
	c.getSink().OnError(id, errors.New(f.Error))
}

// streamEnded handles the stream closing without a terminal frame.
// A clean end-of-stream finalizes like a done frame with no citations;
// a mid-stream transport error keeps whatever arrived and falls back to
// the apology text only when nothing did.
func (c *Controller) streamEnded(err error, guest bool) {
	if err == nil || errors.Is(err, io.EOF) {
		c.mu.Lock()
		done := c.finalized
		c.mu.Unlock()
		if !done {
			// No terminal frame arrived; treat end-of-stream as done
			// with no citations so partial answers survive.
			c.finalize(Frame{Type: FrameDone}, guest)
		}
		return
	}

	c.mu.Lock()
	if c.finalized {
		// Cancel or a terminal frame got here first.
		c.mu.Unlock()
		return
	}
	c.finalized = true
	buf := c.buf
	c.buf = nil
	c.mu.Unlock()

	rest := ""
	if buf != nil {
		rest = buf.Stop()
	}

	c.mu.Lock()
	var id string
	if msg := c.lastAssistantLocked(); msg != nil {
		msg.Text += rest
		if msg.Text == "" {
			msg.Text = apologyText
		}
		id = msg.MessageID
	}
	c.loading = false
	c.cancel = nil
	c.mu.Unlock()

	c.logger.Printf("chat: stream transport error: %v", err)
	c.getSink().OnError(id, err)
}

// transportFailure covers the request never getting a response at all.
func (c *Controller) transportFailure(err error) {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	var id string
	if msg := c.lastAssistantLocked(); msg != nil {
		msg.Text = apologyText
		id = msg.MessageID
	}
	c.loading = false
	c.cancel = nil
	c.mu.Unlock()

	c.logger.Printf("chat: completion request failed: %v", err)
	c.getSink().OnError(id, err)
}

func (c *Controller) generateTitle(destination, userText, replyText string) {
	title, err := c.cfg.Completer.Title(context.TODO(), destination, userText, replyText)
	if err != nil || title == "" {
		if err != nil {
			c.logger.Printf("chat: title generation failed: %v", err)
		}
		return
	}

	c.mu.Lock()
	convID := ""
	if c.conversation != nil {
		c.conversation.Title = title
		convID = c.conversation.ConversationID
	}
	c.mu.Unlock()

	if convID != "" && c.cfg.Store != nil {
		if err := c.cfg.Store.UpdateTitle(context.TODO(), convID, title); err != nil {
			c.logger.Printf("chat: title persist failed: %v", err)
		}
	}
}

func (c *Controller) persistMessage(ctx context.Context, guest bool, msg models.ChatMessage) {
	// Guest and signed-in persistence are mutually exclusive per
	// message; both failing is survivable, the in-memory list is the
	// source of truth for rendering.
	if guest {
		if c.cfg.Guest == nil {
			return
		}
		if err := c.cfg.Guest.Append(ctx, c.cfg.GuestID, msg); err != nil {
			c.logger.Printf("chat: guest persist failed: %v", err)
		}
		return
	}
	if c.cfg.Store == nil || msg.ConversationID == "" {
		return
	}
	if err := c.cfg.Store.AppendMessage(ctx, msg); err != nil {
		c.logger.Printf("chat: message persist failed: %v", err)
	}
}

func (c *Controller) getSink() EventSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

func (c *Controller) setIdle() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
}

func (c *Controller) lastAssistantLocked() *models.ChatMessage {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == "assistant" {
			return c.messages[i]
		}
	}
	return nil
}
