package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"voyagr/models"
)

// --- test doubles ---

type fakeTicker struct {
	ch chan time.Time
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

func (f *fakeTicker) factory() TickerFunc {
	return func(time.Duration) Ticker { return f }
}

type frameOrErr struct {
	f   Frame
	err error
}

// chanReader feeds frames to the controller on demand. Closing the
// channel ends the stream cleanly.
type chanReader struct {
	ch chan frameOrErr
}

func newChanReader() *chanReader {
	return &chanReader{ch: make(chan frameOrErr, 32)}
}

func (r *chanReader) Next() (Frame, error) {
	fe, ok := <-r.ch
	if !ok {
		return Frame{}, io.EOF
	}
	return fe.f, fe.err
}

func (r *chanReader) Close() error { return nil }

func (r *chanReader) feed(f Frame)      { r.ch <- frameOrErr{f: f} }
func (r *chanReader) fail(err error)    { r.ch <- frameOrErr{err: err} }
func (r *chanReader) end()              { close(r.ch) }
func (r *chanReader) content(s string)  { r.feed(Frame{Type: FrameContent, Content: s}) }
func (r *chanReader) done(cites ...string) {
	r.feed(Frame{Type: FrameDone, Citations: cites})
}

type fakeCompleter struct {
	mu        sync.Mutex
	reader    FrameReader
	streamErr error
	calls     []CompletionRequest
	title     string
	titledCh  chan struct{}
}

func (f *fakeCompleter) Stream(ctx context.Context, req CompletionRequest) (FrameReader, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.reader, nil
}

func (f *fakeCompleter) Title(ctx context.Context, destination, userText, replyText string) (string, error) {
	if f.titledCh != nil {
		defer close(f.titledCh)
	}
	return f.title, nil
}

func (f *fakeCompleter) streamCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memStore struct {
	mu       sync.Mutex
	convs    map[string]*models.Conversation
	messages map[string][]models.ChatMessage
	titles   map[string]string
	modes    map[string]string
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		convs:    map[string]*models.Conversation{},
		messages: map[string][]models.ChatMessage{},
		titles:   map[string]string{},
		modes:    map[string]string{},
	}
}

func (s *memStore) Create(ctx context.Context, userID, destination, mode string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	conv := &models.Conversation{
		ConversationID: fmt.Sprintf("conv-%d", s.nextID),
		UserID:         userID,
		Destination:    destination,
		Mode:           mode,
		CreatedAt:      time.Now(),
	}
	s.convs[conv.ConversationID] = conv
	return conv, nil
}

func (s *memStore) FindByDestination(ctx context.Context, userID, destination string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.UserID == userID && c.Destination == destination && !c.Deleted {
			conv := *c
			return &conv, nil
		}
	}
	return nil, nil
}

func (s *memStore) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	return nil, nil
}

func (s *memStore) Messages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages[conversationID]...), nil
}

func (s *memStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *memStore) UpdateMode(ctx context.Context, conversationID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[conversationID] = mode
	return nil
}

func (s *memStore) UpdateTitle(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[conversationID] = title
	return nil
}

func (s *memStore) Delete(ctx context.Context, userID, conversationID string) error {
	return nil
}

func (s *memStore) storedMessages(conversationID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages[conversationID]...)
}

type memGuest struct {
	mu       sync.Mutex
	messages map[string][]models.ChatMessage
}

func newMemGuest() *memGuest {
	return &memGuest{messages: map[string][]models.ChatMessage{}}
}

func (g *memGuest) Count(ctx context.Context, guestID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, m := range g.messages[guestID] {
		if m.Role == "user" {
			n++
		}
	}
	return n, nil
}

func (g *memGuest) Append(ctx context.Context, guestID string, msg models.ChatMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages[guestID] = append(g.messages[guestID], msg)
	return nil
}

func (g *memGuest) Messages(ctx context.Context, guestID string) ([]models.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.ChatMessage(nil), g.messages[guestID]...), nil
}

func (g *memGuest) Clear(ctx context.Context, guestID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.messages, guestID)
	return nil
}

type recSink struct {
	deltas chan string
	dones  chan models.ChatMessage
	errs   chan error
}

func newRecSink() *recSink {
	return &recSink{
		deltas: make(chan string, 100),
		dones:  make(chan models.ChatMessage, 10),
		errs:   make(chan error, 10),
	}
}

func (s *recSink) OnDelta(messageID, delta string)        { s.deltas <- delta }
func (s *recSink) OnAttachment(messageID string, f Frame) {}
func (s *recSink) OnDone(msg models.ChatMessage)          { s.dones <- msg }
func (s *recSink) OnError(messageID string, err error)    { s.errs <- err }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

// --- tests ---

func TestSendAppendsUserThenPlaceholder(t *testing.T) {
	reader := newChanReader()
	reader.content("hello")
	reader.done()
	reader.end()

	store := newMemStore()
	c := NewController(Config{
		Store:       store,
		Completer:   &fakeCompleter{reader: reader},
		UserID:      "u1",
		Destination: "Tokyo",
		Ticker:      newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "Best food in Tokyo", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Text != "Best food in Tokyo" {
		t.Fatalf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" {
		t.Fatalf("expected assistant placeholder second, got %+v", msgs[1])
	}
	if c.Loading() {
		t.Fatal("loading should be false after done")
	}
}

// The full example exchange: chunked content, citations, final state.
func TestExampleExchange(t *testing.T) {
	reader := newChanReader()
	reader.content("To")
	reader.content("kyo has")
	reader.content(" great food.")
	reader.done("a", "b")
	reader.end()

	store := newMemStore()
	c := NewController(Config{
		Store:       store,
		Completer:   &fakeCompleter{reader: reader},
		UserID:      "u1",
		Destination: "Tokyo",
		Ticker:      newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "Best food in Tokyo", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	got := msgs[1]
	if got.Text != "Tokyo has great food." {
		t.Fatalf("expected flushed text, got %q", got.Text)
	}
	if len(got.Citations) != 2 || got.Citations[0] != "a" || got.Citations[1] != "b" {
		t.Fatalf("unexpected citations: %v", got.Citations)
	}
	if c.Loading() {
		t.Fatal("loading should be false")
	}
}

// Final text equals the concatenation of all content frames no matter
// how many ticks fired before the terminal flush.
func TestFlushNeverDropsText(t *testing.T) {
	tick := newFakeTicker()
	reader := newChanReader()
	sink := newRecSink()

	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    tick.factory(),
		Sink:      sink,
	})

	go c.SendMessage(context.Background(), "hi", nil)

	chunks := []string{"alpha ", "beta ", "gamma ", "delta"}
	for _, s := range chunks {
		reader.content(s)
	}

	// Release a little through the ticker, leave the rest in backlog.
	waitFor(t, "backlog", func() bool {
		select {
		case tick.ch <- time.Now():
		default:
		}
		select {
		case <-sink.deltas:
			return true
		default:
			return false
		}
	})

	reader.done()
	reader.end()

	waitFor(t, "done", func() bool { return !c.Loading() })

	msgs := c.Messages()
	if msgs[1].Text != "alpha beta gamma delta" {
		t.Fatalf("text mismatch after flush: %q", msgs[1].Text)
	}
}

func TestRejectsWhileInFlight(t *testing.T) {
	reader := newChanReader()
	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	go c.SendMessage(context.Background(), "first", nil)
	waitFor(t, "loading", c.Loading)

	if err := c.SendMessage(context.Background(), "second", nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if n := len(c.Messages()); n != 2 {
		t.Fatalf("rejected send must not append messages, got %d", n)
	}

	reader.done()
	reader.end()
	waitFor(t, "done", func() bool { return !c.Loading() })
}

func TestCancelBeforeContent(t *testing.T) {
	reader := newChanReader()
	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	go c.SendMessage(context.Background(), "hi", nil)
	waitFor(t, "loading", c.Loading)

	c.Cancel()
	reader.fail(context.Canceled)
	reader.end()

	waitFor(t, "idle", func() bool { return !c.Loading() })
	msgs := c.Messages()
	if msgs[1].Text != stoppedText {
		t.Fatalf("expected stopped placeholder, got %q", msgs[1].Text)
	}
}

func TestCancelFlushesPartialContent(t *testing.T) {
	reader := newChanReader()
	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	go c.SendMessage(context.Background(), "hi", nil)
	reader.content("partial answer")
	waitFor(t, "backlog buffered", func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.buf != nil
	})

	c.Cancel()
	reader.fail(context.Canceled)
	reader.end()

	waitFor(t, "idle", func() bool { return !c.Loading() })
	msgs := c.Messages()
	if msgs[1].Text != "partial answer" {
		t.Fatalf("cancel must flush backlog, got %q", msgs[1].Text)
	}
}

func TestDuplicateDoneIsNoOp(t *testing.T) {
	reader := newChanReader()
	reader.content("answer")
	reader.done()
	reader.done()
	reader.end()

	sink := newRecSink()
	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
		Sink:      sink,
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if got := len(sink.dones); got != 1 {
		t.Fatalf("expected exactly one done event, got %d", got)
	}
	if msgs := c.Messages(); msgs[1].Text != "answer" {
		t.Fatalf("duplicate done must not re-flush, got %q", msgs[1].Text)
	}
}

func TestErrorFrameReplacesText(t *testing.T) {
	reader := newChanReader()
	reader.content("half an ans")
	reader.feed(Frame{Type: FrameError, Error: "upstream exploded"})
	reader.end()

	sink := newRecSink()
	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
		Sink:      sink,
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	if msgs[1].Text != failureText {
		t.Fatalf("expected failure text, got %q", msgs[1].Text)
	}
	select {
	case err := <-sink.errs:
		if err.Error() != "upstream exploded" {
			t.Fatalf("unexpected propagated error: %v", err)
		}
	default:
		t.Fatal("expected error event")
	}
	if c.Loading() {
		t.Fatal("loading should be false after error frame")
	}
}

func TestTransportFailureSetsApology(t *testing.T) {
	c := NewController(Config{
		Completer: &fakeCompleter{streamErr: errors.New("connection refused")},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	if msgs[0].Text != "hi" {
		t.Fatal("user message must be preserved")
	}
	if msgs[1].Text != apologyText {
		t.Fatalf("expected apology text, got %q", msgs[1].Text)
	}
}

func TestMalformedFrameSkipped(t *testing.T) {
	reader := newChanReader()
	reader.content("good ")
	reader.fail(fmt.Errorf("%w: bad json", ErrBadFrame))
	reader.content("stream")
	reader.done()
	reader.end()

	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if msgs := c.Messages(); msgs[1].Text != "good stream" {
		t.Fatalf("corrupt frame must not abort the stream, got %q", msgs[1].Text)
	}
}

func TestGuestQuota(t *testing.T) {
	guest := newMemGuest()
	for i := 0; i < 3; i++ {
		guest.Append(context.Background(), "g1", models.ChatMessage{Role: "user", Text: fmt.Sprintf("m%d", i)})
	}

	completer := &fakeCompleter{}
	c := NewController(Config{
		Completer:  completer,
		Guest:      guest,
		GuestID:    "g1",
		GuestLimit: 3,
		Ticker:     newFakeTicker().factory(),
	})

	err := c.SendMessage(context.Background(), "one too many", nil)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if !c.SignInPrompt() {
		t.Fatal("quota breach must raise the sign-in prompt")
	}
	if len(c.Messages()) != 0 {
		t.Fatal("rejected send must not create message entries")
	}
	if completer.streamCalls() != 0 {
		t.Fatal("rejected send must not hit the network")
	}
}

func TestGuestQuotaIgnoresAssistantReplies(t *testing.T) {
	guest := newMemGuest()
	guest.Append(context.Background(), "g1", models.ChatMessage{Role: "user", Text: "q1"})
	guest.Append(context.Background(), "g1", models.ChatMessage{Role: "assistant", Text: "a1"})
	guest.Append(context.Background(), "g1", models.ChatMessage{Role: "user", Text: "q2"})
	guest.Append(context.Background(), "g1", models.ChatMessage{Role: "assistant", Text: "a2"})

	reader := newChanReader()
	reader.done()
	reader.end()

	c := NewController(Config{
		Completer:  &fakeCompleter{reader: reader},
		Guest:      guest,
		GuestID:    "g1",
		GuestLimit: 3,
		Ticker:     newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "q3", nil); err != nil {
		t.Fatalf("replies must not count against the quota, got %v", err)
	}
}

func TestModeCapturedAtSendTime(t *testing.T) {
	reader := newChanReader()
	reader.done()
	reader.end()

	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Mode:      ModeAsk,
		Ticker:    newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := c.SelectMode(context.Background(), ModeItinerary); err != nil {
		t.Fatalf("SelectMode: %v", err)
	}

	msgs := c.Messages()
	if msgs[0].Mode != ModeAsk || msgs[1].Mode != ModeAsk {
		t.Fatalf("historical messages must keep their captured mode: %q %q", msgs[0].Mode, msgs[1].Mode)
	}
	if c.Mode() != ModeItinerary {
		t.Fatalf("active mode should be itinerary, got %q", c.Mode())
	}
}

func TestStartNewSessionGuestNoOp(t *testing.T) {
	c := NewController(Config{Guest: newMemGuest(), GuestID: "g1"})
	if err := c.StartNewSession(context.Background(), "Kyoto"); err != nil {
		t.Fatalf("guest StartNewSession should be a no-op, got %v", err)
	}
	if c.Conversation() != nil {
		t.Fatal("guest must not get a persisted session")
	}
}

func TestStartNewSessionResumesByDestination(t *testing.T) {
	store := newMemStore()
	existing, _ := store.Create(context.Background(), "u1", "Kyoto", ModeAsk)
	store.AppendMessage(context.Background(), models.ChatMessage{
		ConversationID: existing.ConversationID, Role: "user", Text: "old turn",
	})

	c := NewController(Config{Store: store, UserID: "u1"})
	if err := c.StartNewSession(context.Background(), "Kyoto"); err != nil {
		t.Fatalf("StartNewSession: %v", err)
	}

	conv := c.Conversation()
	if conv == nil || conv.ConversationID != existing.ConversationID {
		t.Fatalf("expected resumed conversation %s, got %+v", existing.ConversationID, conv)
	}
	if msgs := c.Messages(); len(msgs) != 1 || msgs[0].Text != "old turn" {
		t.Fatalf("expected history reloaded, got %+v", msgs)
	}
}

func TestFirstExchangeGeneratesTitle(t *testing.T) {
	reader := newChanReader()
	reader.content("Plenty of ramen.")
	reader.done()
	reader.end()

	store := newMemStore()
	titled := make(chan struct{})
	completer := &fakeCompleter{reader: reader, title: "Tokyo food tour", titledCh: titled}

	c := NewController(Config{
		Store:       store,
		Completer:   completer,
		UserID:      "u1",
		Destination: "Tokyo",
		Ticker:      newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "Best food in Tokyo", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	select {
	case <-titled:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for title generation")
	}

	convID := c.Conversation().ConversationID
	waitFor(t, "title persisted", func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.titles[convID] == "Tokyo food tour"
	})
}

func TestDonePersistsAssistantMessage(t *testing.T) {
	reader := newChanReader()
	reader.content("answer")
	reader.done()
	reader.end()

	store := newMemStore()
	c := NewController(Config{
		Store:       store,
		Completer:   &fakeCompleter{reader: reader},
		UserID:      "u1",
		Destination: "Osaka",
		Ticker:      newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	convID := c.Conversation().ConversationID
	stored := store.storedMessages(convID)
	if len(stored) != 2 {
		t.Fatalf("expected user + finalized assistant persisted, got %d", len(stored))
	}
	if stored[1].Role != "assistant" || stored[1].Text != "answer" {
		t.Fatalf("unexpected persisted assistant message: %+v", stored[1])
	}
}

func TestAttachmentsApplyAtomically(t *testing.T) {
	reader := newChanReader()
	reader.feed(Frame{Type: FrameCards, Cards: []models.PlaceCard{{Name: "Tsukiji Market"}}})
	reader.feed(Frame{Type: FrameItinerary, Itinerary: []byte(`{"days":[]}`)})
	reader.feed(Frame{Type: "someFutureType"})
	reader.done()
	reader.end()

	c := NewController(Config{
		Completer: &fakeCompleter{reader: reader},
		Guest:     newMemGuest(),
		GuestID:   "g1",
		Ticker:    newFakeTicker().factory(),
	})

	if err := c.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	got := msgs[1]
	if len(got.Cards) != 1 || got.Cards[0].Name != "Tsukiji Market" {
		t.Fatalf("cards not attached: %+v", got.Cards)
	}
	if string(got.Itinerary) != `{"days":[]}` {
		t.Fatalf("itinerary not attached: %s", got.Itinerary)
	}
}
