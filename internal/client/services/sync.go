package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/chatkeeper/internal/client/client"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/messages"
	"github.com/dmitrijs2005/chatkeeper/internal/client/stream"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// ConvState is the per-conversation synchronization state.
type ConvState int

const (
	// ConvIdle: no key, no messages.
	ConvIdle ConvState = iota
	// ConvKeyReady: symmetric key unwrapped, nothing fetched yet.
	ConvKeyReady
	// ConvLoading: initial page fetch in flight.
	ConvLoading
	// ConvLoaded: at least the first page merged.
	ConvLoaded
	// ConvLoadingOlder: backward pagination in flight.
	ConvLoadingOlder
	// ConvStreaming: loaded with a live subscription on an open channel.
	ConvStreaming
)

// LiveChannel is the subset of the stream channel the engine uses;
// tests substitute a fake.
type LiveChannel interface {
	State() stream.State
	Subscribe(conversationID string) error
	Unsubscribe()
	SendMessage(frame models.StreamFrame) error
}

// ChangeFunc is invoked after a conversation's message list changed.
type ChangeFunc func(conversationID string)

// conversation is the per-conversation context: key, cursor, merged
// message set, pagination state. Created on first open, destroyed on
// switch or logout. The mutex serializes merges: a backward-pagination
// merge and a live-triggered incremental merge never interleave.
type conversation struct {
	id string

	mu        sync.Mutex
	state     ConvState
	key       []byte
	fetched   int // server messages fetched so far; the offset cursor
	exhausted bool
	streaming bool
	byID      map[string]models.PlaintextMessage
	order     []models.PlaintextMessage // ascending by timestamp
}

// SyncOption configures a SyncEngine.
type SyncOption func(*SyncEngine)

// WithLiveChannel attaches a live-update channel.
func WithLiveChannel(ch LiveChannel) SyncOption {
	return func(s *SyncEngine) { s.channel = ch }
}

// WithCache attaches a local ciphertext cache.
func WithCache(repo messages.Repository) SyncOption {
	return func(s *SyncEngine) { s.cache = repo }
}

// WithLogger sets the engine logger.
func WithLogger(log logging.Logger) SyncOption {
	return func(s *SyncEngine) { s.log = log }
}

// WithPageSize overrides the history page size.
func WithPageSize(n int) SyncOption {
	return func(s *SyncEngine) { s.pageSize = n }
}

// WithIncrementalWindow overrides the size of the recent window fetched
// after a live activity hint.
func WithIncrementalWindow(n int) SyncOption {
	return func(s *SyncEngine) { s.window = n }
}

// WithOnChange registers the "message list changed" callback.
func WithOnChange(fn ChangeFunc) SyncOption {
	return func(s *SyncEngine) { s.onChange = fn }
}

// SyncEngine maintains a deduplicated, time-ordered, decrypted view of
// each conversation, merging paginated history with live-update hints.
type SyncEngine struct {
	client   client.Client
	keys     Keyring
	channel  LiveChannel
	cache    messages.Repository
	log      logging.Logger
	pageSize int
	window   int
	onChange ChangeFunc

	mu     sync.Mutex
	convs  map[string]*conversation
	active string
}

// DefaultPageSize is the history page size used when not configured.
const DefaultPageSize = 20

// NewSyncEngine constructs a SyncEngine over the given transport and
// keyring.
func NewSyncEngine(apiClient client.Client, keys Keyring, opts ...SyncOption) *SyncEngine {
	s := &SyncEngine{
		client:   apiClient,
		keys:     keys,
		pageSize: DefaultPageSize,
		window:   DefaultPageSize,
		convs:    make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.NewSlogLogger(discardSlog())
	}
	return s
}

// Open makes conversationID the active conversation: it tears down the
// previously active context, unwraps the conversation key, loads the
// first page, and subscribes for live updates.
//
// A failed Open leaves no context behind, so retrying after the cause is
// gone (key provisioned, transport back) starts from scratch.
func (s *SyncEngine) Open(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if s.active == conversationID {
		s.mu.Unlock()
		return nil
	}
	if s.active != "" {
		s.teardownLocked(s.active)
	}
	conv := &conversation{
		id:   conversationID,
		byID: make(map[string]models.PlaintextMessage),
	}
	s.convs[conversationID] = conv
	s.active = conversationID
	s.mu.Unlock()

	key, err := s.keys.ConversationKey(ctx, conversationID)
	if err != nil {
		s.abortOpen(conversationID)
		return fmt.Errorf("conversation %s: %w", conversationID, err)
	}

	conv.mu.Lock()
	conv.key = key
	conv.state = ConvKeyReady
	conv.mu.Unlock()

	if err := s.loadInitial(ctx, conv); err != nil {
		s.abortOpen(conversationID)
		return err
	}

	if s.channel != nil {
		if err := s.channel.Subscribe(conversationID); err != nil {
			s.log.Warn(ctx, "live subscribe failed", "conversation", conversationID)
		} else if s.channel.State() == stream.StateOpen {
			conv.mu.Lock()
			conv.streaming = true
			conv.mu.Unlock()
		}
	}

	s.notify(conversationID)
	return nil
}

// loadInitial merges the local cache (offline read of already-fetched
// ciphertext) and then the first server page.
func (s *SyncEngine) loadInitial(ctx context.Context, conv *conversation) error {
	conv.mu.Lock()
	conv.state = ConvLoading
	conv.mu.Unlock()

	if s.cache != nil {
		if cached, err := s.cache.GetByConversation(ctx, conv.id, s.pageSize); err != nil {
			s.log.Warn(ctx, "cache read failed", "conversation", conv.id)
		} else if len(cached) > 0 {
			conv.mu.Lock()
			s.mergeLocked(ctx, conv, cached, false)
			conv.mu.Unlock()
		}
	}

	page, err := s.client.FetchMessages(ctx, conv.id, s.pageSize, 0)
	if err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	if s.activeID() != conv.id {
		// conversation switched while the fetch was in flight
		return nil
	}

	conv.mu.Lock()
	s.mergeLocked(ctx, conv, page, true)
	conv.fetched = len(page)
	conv.exhausted = len(page) < s.pageSize
	conv.state = ConvLoaded
	conv.mu.Unlock()
	return nil
}

// LoadOlder pages one step further back into history. Once a short page
// marked the conversation exhausted, further calls perform no fetch.
func (s *SyncEngine) LoadOlder(ctx context.Context, conversationID string) error {
	conv := s.conversation(conversationID)
	if conv == nil {
		return fmt.Errorf("conversation %s not open: %w", conversationID, common.ErrNotFound)
	}

	conv.mu.Lock()
	if conv.exhausted || conv.state != ConvLoaded {
		conv.mu.Unlock()
		return nil
	}
	conv.state = ConvLoadingOlder
	offset := conv.fetched
	conv.mu.Unlock()

	page, err := s.client.FetchMessages(ctx, conversationID, s.pageSize, offset)
	if err != nil {
		conv.mu.Lock()
		conv.state = ConvLoaded
		conv.mu.Unlock()
		return fmt.Errorf("older fetch: %w", err)
	}

	if s.activeID() != conversationID {
		return nil
	}

	conv.mu.Lock()
	s.mergeLocked(ctx, conv, page, true)
	conv.fetched += len(page)
	conv.exhausted = len(page) < s.pageSize
	conv.state = ConvLoaded
	conv.mu.Unlock()

	s.notify(conversationID)
	return nil
}

// HandleActivity processes a live-update hint. Hints for conversations
// other than the active one are dropped; the active conversation gets a
// bounded incremental fetch. The hint payload is never trusted to carry
// content.
func (s *SyncEngine) HandleActivity(conversationID string) {
	if s.activeID() != conversationID {
		s.log.Debug(context.Background(), "activity for inactive conversation ignored", "conversation", conversationID)
		return
	}
	if err := s.IncrementalFetch(context.Background(), conversationID); err != nil {
		s.log.Warn(context.Background(), "incremental fetch failed", "conversation", conversationID)
	}
}

// IncrementalFetch reconciles the recent window of a conversation with
// the server, merging like any other page.
func (s *SyncEngine) IncrementalFetch(ctx context.Context, conversationID string) error {
	conv := s.conversation(conversationID)
	if conv == nil {
		return fmt.Errorf("conversation %s not open: %w", conversationID, common.ErrNotFound)
	}

	page, err := s.client.FetchMessages(ctx, conversationID, s.window, 0)
	if err != nil {
		return fmt.Errorf("incremental fetch: %w", err)
	}

	if s.activeID() != conversationID {
		return nil
	}

	conv.mu.Lock()
	added := s.mergeLocked(ctx, conv, page, true)
	// newly arrived messages shift the backward-pagination offset
	conv.fetched += added
	conv.mu.Unlock()

	if added > 0 {
		s.notify(conversationID)
	}
	return nil
}

// Send encrypts text under the conversation key and transmits it via the
// live channel when open, falling back to the request/response path
// otherwise. The local view is refreshed by re-fetching, never by
// splicing in an unconfirmed local copy.
func (s *SyncEngine) Send(ctx context.Context, conversationID, text string) error {
	conv := s.conversation(conversationID)
	if conv == nil {
		return fmt.Errorf("conversation %s not open: %w", conversationID, common.ErrNotFound)
	}

	conv.mu.Lock()
	key := conv.key
	conv.mu.Unlock()
	if key == nil {
		return fmt.Errorf("conversation %s: %w", conversationID, common.ErrKeyUnwrap)
	}

	envelope, err := cryptox.EncryptMessage(text, key)
	if err != nil {
		return fmt.Errorf("encrypt message: %w", err)
	}

	sent := false
	if s.channel != nil && s.channel.State() == stream.StateOpen {
		frame := models.StreamFrame{
			Type:           models.FrameTypeMessage,
			ConversationID: conversationID,
			Content:        envelope,
			UserID:         s.client.UserID(),
			AuthToken:      s.client.Token(),
		}
		if err := s.channel.SendMessage(frame); err == nil {
			sent = true
		}
	}

	if !sent {
		if _, err := s.client.SendMessage(ctx, conversationID, envelope); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	if err := s.IncrementalFetch(ctx, conversationID); err != nil {
		// the send itself succeeded; the next trigger will reconcile
		s.log.Warn(ctx, "post-send refresh failed", "conversation", conversationID)
	}
	return nil
}

// Delete removes a message remotely, then drops it from the local set.
func (s *SyncEngine) Delete(ctx context.Context, conversationID, messageID string) error {
	conv := s.conversation(conversationID)
	if conv == nil {
		return fmt.Errorf("conversation %s not open: %w", conversationID, common.ErrNotFound)
	}

	if err := s.client.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	conv.mu.Lock()
	if _, ok := conv.byID[messageID]; ok {
		delete(conv.byID, messageID)
		conv.order = rebuildOrder(conv.byID)
	}
	conv.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.DeleteByID(ctx, messageID); err != nil {
			s.log.Warn(ctx, "cache delete failed", "message", messageID)
		}
	}

	s.notify(conversationID)
	return nil
}

// GetMessages returns the decrypted view of a conversation, ascending by
// timestamp. Entries with DecryptOk=false carry no text and are rendered
// as placeholders by the UI, never as content.
func (s *SyncEngine) GetMessages(conversationID string) []models.PlaintextMessage {
	conv := s.conversation(conversationID)
	if conv == nil {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	out := make([]models.PlaintextMessage, len(conv.order))
	copy(out, conv.order)
	return out
}

// State reports the synchronization state of a conversation.
func (s *SyncEngine) State(conversationID string) ConvState {
	conv := s.conversation(conversationID)
	if conv == nil {
		return ConvIdle
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	if conv.state == ConvLoaded && conv.streaming {
		return ConvStreaming
	}
	return conv.state
}

// Exhausted reports whether backward pagination has reached the start of
// history.
func (s *SyncEngine) Exhausted(conversationID string) bool {
	conv := s.conversation(conversationID)
	if conv == nil {
		return false
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.exhausted
}

// ActiveConversation returns the currently active conversation id.
func (s *SyncEngine) ActiveConversation() string {
	return s.activeID()
}

// Close tears down all per-conversation state and the key cache
// (conversation switch to nothing / logout).
func (s *SyncEngine) Close() {
	s.mu.Lock()
	for id := range s.convs {
		s.teardownLocked(id)
	}
	s.active = ""
	s.mu.Unlock()

	s.keys.Reset()
	if s.channel != nil {
		s.channel.Unsubscribe()
	}
}

// teardownLocked destroys one conversation context. Caller holds s.mu.
func (s *SyncEngine) teardownLocked(conversationID string) {
	delete(s.convs, conversationID)
	s.keys.Forget(conversationID)
}

// abortOpen undoes a partially built conversation context so a later
// Open starts clean instead of hitting the already-active early return.
func (s *SyncEngine) abortOpen(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == conversationID {
		s.active = ""
	}
	s.teardownLocked(conversationID)
}

func (s *SyncEngine) conversation(id string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs[id]
}

func (s *SyncEngine) activeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *SyncEngine) notify(conversationID string) {
	if s.onChange != nil {
		s.onChange(conversationID)
	}
}

// mergeLocked merges a page into the conversation set: every item is
// decrypted independently, deduplicated by id, and the view re-sorted by
// timestamp ascending. An item that fails authentication is kept as a
// flagged placeholder; it never aborts the merge. Returns the number of
// newly added ids. Caller holds conv.mu.
func (s *SyncEngine) mergeLocked(ctx context.Context, conv *conversation, page []models.EncryptedMessage, persist bool) int {
	added := 0
	var toCache []models.EncryptedMessage
	for _, m := range page {
		if m.ConversationID != conv.id {
			// fail closed on records that do not belong here
			continue
		}
		if _, ok := conv.byID[m.ID]; ok {
			continue
		}

		pm := models.PlaintextMessage{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Timestamp:      m.Timestamp,
		}

		text, err := cryptox.DecryptMessage(m.Content, conv.key)
		if err != nil {
			s.log.Warn(ctx, "undecryptable message hidden", "message", m.ID)
		} else {
			pm.Text = text
			pm.DecryptOk = true
		}

		conv.byID[m.ID] = pm
		added++

		if persist && s.cache != nil {
			toCache = append(toCache, m)
		}
	}

	if len(toCache) > 0 {
		if err := s.cache.UpsertBatch(ctx, toCache); err != nil {
			s.log.Warn(ctx, "cache write failed", "conversation", conv.id)
		}
	}

	if added > 0 {
		conv.order = rebuildOrder(conv.byID)
	}
	return added
}

func rebuildOrder(byID map[string]models.PlaintextMessage) []models.PlaintextMessage {
	order := make([]models.PlaintextMessage, 0, len(byID))
	for _, pm := range byID {
		order = append(order, pm)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Timestamp.Before(order[j].Timestamp)
	})
	return order
}
