// Package chat holds the conversation state machine behind the UI:
// which conversation is active, its transcript, the draft input and
// the in-flight flags the screens render from. All mutation goes
// through the Controller so concurrent fetches cannot corrupt state.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mediassist/internal/api"
	"mediassist/internal/speech"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EmptyReply replaces an assistant reply the backend sent blank.
const EmptyReply = "Sin respuesta"

// Entry is one transcript row. Pending marks an optimistic user
// message still waiting for its reply; Failed marks one the backend
// rejected.
type Entry struct {
	Role    string
	Content string
	Pending bool
	Failed  bool
}

// ValidationError reports a request refused before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Backend is the slice of the API client the controller drives.
type Backend interface {
	ListConversations(ctx context.Context, userID string) ([]api.Conversation, error)
	CreateConversation(ctx context.Context, userID string) (*api.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]api.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	SendMessage(ctx context.Context, userID, conversationID, content string) (string, error)
	SubmitFeedback(ctx context.Context, messageIndex int, positive bool) error
}

// Controller owns all conversation state for one signed-in user.
type Controller struct {
	backend Backend
	speech  speech.Recognizer
	logger  *slog.Logger
	userID  string

	mu            sync.Mutex
	conversations []api.Conversation
	active        *api.Conversation
	transcript    []Entry
	input         string
	listLoading   bool
	sending       bool
	recording     bool
	pendingDelete string
	// fetchGen invalidates transcript fetches that raced a later
	// selection or deletion. Compared under mu before applying.
	fetchGen uint64

	replies sync.Map
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	Conversations  []api.Conversation
	Active         *api.Conversation
	Transcript     []Entry
	Input          string
	ListLoading    bool
	Sending        bool
	Recording      bool
	PendingDelete  string
	VoiceSupported bool
}

// NewController creates a controller for the given user.
func NewController(backend Backend, userID string, recognizer speech.Recognizer, logger *slog.Logger) *Controller {
	return &Controller{
		backend: backend,
		speech:  recognizer,
		logger:  logger,
		userID:  userID,
	}
}

// Snapshot copies the current state under lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Conversations:  make([]api.Conversation, len(c.conversations)),
		Transcript:     make([]Entry, len(c.transcript)),
		Input:          c.input,
		ListLoading:    c.listLoading,
		Sending:        c.sending,
		Recording:      c.recording,
		PendingDelete:  c.pendingDelete,
		VoiceSupported: c.speech.Supported(),
	}
	copy(snap.Conversations, c.conversations)
	copy(snap.Transcript, c.transcript)
	if c.active != nil {
		active := *c.active
		snap.Active = &active
	}
	return snap
}

// SetInput replaces the draft input.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the current draft input.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Refresh reloads the conversation list. On failure the previous list
// stays in place so a flaky backend does not blank the sidebar.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.listLoading = true
	c.mu.Unlock()

	convs, err := c.backend.ListConversations(ctx, c.userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listLoading = false
	if err != nil {
		c.logger.Error("failed to refresh conversations", "error", err)
		return err
	}
	c.conversations = convs
	return nil
}

// NewConversation creates a conversation on the server and makes it
// active with an empty transcript. Without a user id nothing is sent.
func (c *Controller) NewConversation(ctx context.Context) (*api.Conversation, error) {
	if c.userID == "" {
		return nil, &ValidationError{Reason: "cannot create a conversation without a signed-in user"}
	}

	conv, err := c.backend.CreateConversation(ctx, c.userID)
	if err != nil {
		c.logger.Error("failed to create conversation", "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.active = conv
	c.transcript = nil
	c.fetchGen++
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("list refresh after create failed", "error", err)
	}
	return conv, nil
}

// Send submits the draft input. A conversation is created implicitly
// when none is active; if that creation fails the draft is preserved
// so the user can retry. The user entry is appended optimistically
// and marked Failed when delivery fails, with the failure also shown
// as an assistant entry.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	content := strings.TrimSpace(c.input)
	if content == "" || c.sending {
		c.mu.Unlock()
		return nil
	}
	active := c.active
	c.mu.Unlock()

	if active == nil {
		if c.userID == "" {
			return &ValidationError{Reason: "cannot send without a signed-in user"}
		}
		conv, err := c.backend.CreateConversation(ctx, c.userID)
		if err != nil {
			c.logger.Error("failed to create conversation for send", "error", err)
			return err
		}
		c.mu.Lock()
		c.active = conv
		c.transcript = nil
		c.fetchGen++
		c.mu.Unlock()
	}

	c.mu.Lock()
	// A concurrent Delete may have dropped the conversation since the
	// first critical section; with nothing to send to, the draft
	// stays put for a retry.
	if c.active == nil {
		c.mu.Unlock()
		return nil
	}
	conversationID := c.active.ID
	gen := c.fetchGen
	c.transcript = append(c.transcript, Entry{Role: RoleUser, Content: content, Pending: true})
	entryIndex := len(c.transcript) - 1
	history := make([]Entry, len(c.transcript))
	copy(history, c.transcript)
	c.input = ""
	c.sending = true
	c.mu.Unlock()

	reply, err := c.deliver(ctx, conversationID, content, history)

	if err != nil {
		c.logger.Error("failed to send message", "error", err)
	}

	c.mu.Lock()
	c.sending = false
	// The transcript this send appended to is gone once the
	// generation moves (conversation switched or deleted mid-flight);
	// reconciling by index would mutate unrelated entries.
	if gen == c.fetchGen {
		if entryIndex < len(c.transcript) {
			c.transcript[entryIndex].Pending = false
			c.transcript[entryIndex].Failed = err != nil
		}
		if err != nil {
			c.transcript = append(c.transcript, Entry{Role: RoleAssistant, Content: "Error: " + err.Error()})
		} else {
			c.transcript = append(c.transcript, Entry{Role: RoleAssistant, Content: reply})
		}
	}
	c.mu.Unlock()

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("list refresh after send failed", "error", refreshErr)
	}
	return err
}

// deliver resolves the reply from cache or the backend. Blank replies
// become the placeholder before caching so repeats stay consistent.
func (c *Controller) deliver(ctx context.Context, conversationID, content string, history []Entry) (string, error) {
	key := replyKey(conversationID, history)
	if cached, ok := c.checkCache(key); ok {
		return cached, nil
	}

	reply, err := c.backend.SendMessage(ctx, c.userID, conversationID, content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = EmptyReply
	}
	c.storeCache(key, reply)
	return reply, nil
}

// Select makes a conversation active and fetches its transcript. The
// switch is immediate; the fetch result is discarded if another
// Select or Delete happened while it was in flight.
func (c *Controller) Select(ctx context.Context, conv api.Conversation) error {
	c.mu.Lock()
	selected := conv
	c.active = &selected
	c.transcript = nil
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	msgs, err := c.backend.Messages(ctx, conv.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.fetchGen {
		c.logger.Debug("discarding stale transcript fetch", "conversation", conv.ID)
		return nil
	}
	if err != nil {
		c.logger.Error("failed to load transcript", "conversation", conv.ID, "error", err)
		return err
	}
	entries := make([]Entry, len(msgs))
	for i, msg := range msgs {
		entries[i] = Entry{Role: msg.Role, Content: msg.Content}
	}
	c.transcript = entries
	return nil
}

// RequestDelete arms the confirmation step for one conversation.
func (c *Controller) RequestDelete(conversationID string) {
	c.mu.Lock()
	c.pendingDelete = conversationID
	c.mu.Unlock()
}

// CancelDelete disarms a pending delete confirmation.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

// Delete removes a conversation on the server, then updates local
// state. Deletion is not optimistic: a failed request leaves the
// conversation in place.
func (c *Controller) Delete(ctx context.Context, conversationID string) error {
	if err := c.backend.DeleteConversation(ctx, conversationID); err != nil {
		c.logger.Error("failed to delete conversation", "conversation", conversationID, "error", err)
		c.mu.Lock()
		c.pendingDelete = ""
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.pendingDelete = ""
	if c.active != nil && c.active.ID == conversationID {
		c.active = nil
		c.transcript = nil
		c.fetchGen++
	}
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("list refresh after delete failed", "error", err)
	}
	return nil
}

// ToggleVoice starts or stops speech capture. The transcript callback
// appends to the draft input, space separated, so dictation can span
// several captures.
func (c *Controller) ToggleVoice(ctx context.Context) error {
	if !c.speech.Supported() {
		return &ValidationError{Reason: "speech recognition is not available"}
	}

	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		c.speech.Stop()
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
		return nil
	}
	c.recording = true
	c.mu.Unlock()

	err := c.speech.Start(ctx,
		func(text string) {
			c.mu.Lock()
			if text != "" {
				if c.input != "" {
					c.input += " "
				}
				c.input += text
			}
			c.recording = false
			c.mu.Unlock()
		},
		func(err error) {
			c.logger.Warn("speech capture failed", "error", err)
			c.mu.Lock()
			c.recording = false
			c.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Warn("failed to start speech capture", "error", err)
		c.mu.Lock()
		c.recording = false
		c.mu.Unlock()
		return fmt.Errorf("failed to start speech capture: %w", err)
	}
	return nil
}

// Feedback reports a rating for the transcript entry at the given
// index. Delivery is best effort; failures are logged and dropped.
func (c *Controller) Feedback(ctx context.Context, entryIndex int, positive bool) {
	if err := c.backend.SubmitFeedback(ctx, entryIndex, positive); err != nil {
		c.logger.Warn("failed to submit feedback", "index", entryIndex, "error", err)
	}
}
