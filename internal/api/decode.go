package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Conversation is a server-tracked thread of messages. The backend is
// inconsistent about field names across versions, so instances are
// only ever produced by the tolerant decode layer below.
type Conversation struct {
	ID      string
	Title   string
	Started string
}

// Message is one transcript entry as the backend reports it.
type Message struct {
	Role    string
	Content string
}

// Field alias lists, in resolution priority order. These mirror the
// names the backend has used across versions.
var (
	wrapperKeys   = []string{"conversaciones", "items", "rows", "data", "result", "results"}
	convIDKeys    = []string{"id_conversacion", "id", "conversation_id", "uuid", "ID"}
	convTitleKeys = []string{"titulo", "title", "nombre"}
	convDateKeys  = []string{"fecha_inicio", "fecha", "created_at", "createdAt", "FECHA"}
	msgRoleKeys   = []string{"role", "remitente"}
	msgTextKeys   = []string{"content", "contenido", "texto"}
)

// pickArray accepts either a bare JSON array or an object wrapping an
// array under one of the known keys. Anything else yields nil rather
// than an error.
func pickArray(raw []byte) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	for _, key := range wrapperKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &items); err == nil {
			return items
		}
	}
	return nil
}

// decodeObject unmarshals into a generic map, keeping numbers as
// json.Number so numeric ids survive verbatim.
func decodeObject(raw []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, false
	}
	return m, true
}

func firstString(m map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// DecodeConversation resolves a single conversation object. The bool
// is false when no identifier can be found; such objects are unusable
// in the UI.
func DecodeConversation(raw []byte) (Conversation, bool) {
	m, ok := decodeObject(raw)
	if !ok {
		return Conversation{}, false
	}
	id := firstString(m, convIDKeys)
	if id == "" {
		return Conversation{}, false
	}
	title := firstString(m, convTitleKeys)
	if title == "" {
		title = strings.TrimSpace("Chat " + id)
	}
	return Conversation{
		ID:      id,
		Title:   title,
		Started: firstString(m, convDateKeys),
	}, true
}

// DecodeConversations normalizes a list payload. Unknown shapes and
// entries without an id are dropped, never reported as errors.
func DecodeConversations(raw []byte) []Conversation {
	items := pickArray(raw)
	convs := make([]Conversation, 0, len(items))
	for _, item := range items {
		if conv, ok := DecodeConversation(item); ok {
			convs = append(convs, conv)
		}
	}
	return convs
}

// DecodeMessages normalizes a transcript payload. Role defaults to
// "user" and content to empty when the aliases resolve nothing.
func DecodeMessages(raw []byte) []Message {
	items := pickArray(raw)
	msgs := make([]Message, 0, len(items))
	for _, item := range items {
		m, ok := decodeObject(item)
		if !ok {
			continue
		}
		role := firstString(m, msgRoleKeys)
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, Message{
			Role:    role,
			Content: firstString(m, msgTextKeys),
		})
	}
	return msgs
}
