// Package api implements the HTTP client for the MediAssist backend.
// All payload decoding goes through the tolerant layer in decode.go;
// raw JSON never leaves this package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL points at a locally running backend.
const DefaultBaseURL = "http://127.0.0.1:3000"

// ServerError is a non-success HTTP response. Message carries the
// backend's {error} string when the body had one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// Account identifies a signed-in user as returned by login/register.
type Account struct {
	UserID string
	Name   string
}

// Client talks to the MediAssist backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		tracer:     otel.Tracer("mediassist"),
		meter:      otel.Meter("mediassist"),
	}
}

// do issues one request and returns the raw response body. Non-2xx
// statuses become *ServerError; transport and read failures come back
// wrapped.
func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, op)
	defer span.End()

	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	duration := time.Since(start)
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("backend returned error status", "op", op, "status", resp.StatusCode)
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}
	return data, nil
}

// errorMessage extracts the backend's {error} string, falling back to
// the HTTP status text.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	return status
}

// account decodes a login/register response. A response without a
// user id is unusable and treated as an error.
func account(data []byte, fallbackName string) (*Account, error) {
	m, ok := decodeObject(data)
	if !ok {
		return nil, fmt.Errorf("failed to unmarshal response")
	}
	userID := firstString(m, []string{"user_id"})
	if userID == "" {
		return nil, fmt.Errorf("response missing user_id")
	}
	name := firstString(m, []string{"nombre"})
	if name == "" {
		name = fallbackName
	}
	return &Account{UserID: userID, Name: name}, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	data, err := c.do(ctx, "login", http.MethodPost, "/login", map[string]string{
		"correo":   email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return account(data, "Usuario")
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Account, error) {
	data, err := c.do(ctx, "register", http.MethodPost, "/register", map[string]string{
		"nombre":   name,
		"correo":   email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return account(data, name)
}

// ListConversations fetches the user's conversation list. Decode is
// tolerant: unrecognized payload shapes yield an empty slice.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	data, err := c.do(ctx, "list_conversations", http.MethodGet,
		"/conversaciones?user_id="+url.QueryEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	return DecodeConversations(data), nil
}

// CreateConversation starts a new empty conversation for the user.
func (c *Client) CreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	data, err := c.do(ctx, "create_conversation", http.MethodPost, "/nueva-conversacion", map[string]string{
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}
	conv, ok := DecodeConversation(data)
	if !ok {
		return nil, fmt.Errorf("new conversation has no id")
	}
	return &conv, nil
}

// Messages fetches the full transcript of a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	data, err := c.do(ctx, "get_messages", http.MethodGet,
		"/conversacion/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return nil, err
	}
	return DecodeMessages(data), nil
}

// DeleteConversation removes a conversation on the server.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := c.do(ctx, "delete_conversation", http.MethodDelete,
		"/conversacion/"+url.PathEscape(conversationID), nil)
	return err
}

// SendMessage posts a user message and returns the assistant's reply
// text, which may be empty when the backend sent none.
func (c *Client) SendMessage(ctx context.Context, userID, conversationID, content string) (string, error) {
	data, err := c.do(ctx, "send_message", http.MethodPost, "/mensaje", map[string]string{
		"user_id":        userID,
		"conversacion_id": conversationID,
		"contenido":      content,
	})
	if err != nil {
		return "", err
	}
	var payload struct {
		Respuesta string `json:"respuesta"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return payload.Respuesta, nil
}

// SubmitFeedback reports a thumbs up/down for an assistant message.
// Callers treat failures as best-effort and only log them.
func (c *Client) SubmitFeedback(ctx context.Context, messageIndex int, positive bool) error {
	_, err := c.do(ctx, "submit_feedback", http.MethodPost, "/feedback", map[string]any{
		"message_index": messageIndex,
		"is_positive":   positive,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
	return err
}
