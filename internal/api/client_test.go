package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginNumericUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["correo"] != "ana@example.com" || body["password"] != "secreto" {
			t.Errorf("unexpected body: %#v", body)
		}
		w.Write([]byte(`{"user_id":7,"nombre":"Ana"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	acct, err := client.Login(context.Background(), "ana@example.com", "secreto")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if acct.UserID != "7" || acct.Name != "Ana" {
		t.Fatalf("unexpected account: %#v", acct)
	}
}

func TestLoginMissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nombre":"Ana"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	if _, err := client.Login(context.Background(), "ana@example.com", "secreto"); err == nil {
		t.Fatal("expected error for response without user_id")
	}
}

func TestServerErrorBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"credenciales inválidas"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	_, err := client.Login(context.Background(), "ana@example.com", "mala")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *ServerError, got %v", err)
	}
	if serverErr.Status != http.StatusUnauthorized || serverErr.Message != "credenciales inválidas" {
		t.Fatalf("unexpected error: %#v", serverErr)
	}
}

func TestServerErrorStatusTextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	_, err := client.ListConversations(context.Background(), "7")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected *ServerError, got %v", err)
	}
	if serverErr.Message == "" || serverErr.Message == "upstream exploded" {
		t.Fatalf("expected status text fallback, got %q", serverErr.Message)
	}
}

func TestCreateConversationMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"titulo":"sin id"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	if _, err := client.CreateConversation(context.Background(), "7"); err == nil {
		t.Fatal("expected error when the new conversation has no id")
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mensaje" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["user_id"] != "7" || body["conversacion_id"] != "c1" || body["contenido"] != "hola" {
			t.Errorf("unexpected body: %#v", body)
		}
		w.Write([]byte(`{"respuesta":"**Diagnóstico:** Saludo"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	reply, err := client.SendMessage(context.Background(), "7", "c1", "hola")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "**Diagnóstico:** Saludo" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestSubmitFeedbackPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MessageIndex int    `json:"message_index"`
			IsPositive   bool   `json:"is_positive"`
			Timestamp    string `json:"timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body.MessageIndex != 3 || !body.IsPositive {
			t.Errorf("unexpected body: %#v", body)
		}
		if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
			t.Errorf("timestamp not RFC3339: %q", body.Timestamp)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	if err := client.SubmitFeedback(context.Background(), 3, true); err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
}

func TestDeleteConversationPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, testLogger())
	if err := client.DeleteConversation(context.Background(), "c9"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/conversacion/c9" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}
