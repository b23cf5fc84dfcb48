package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fastygo/planner/internal/config"
)

type fakeBotAPI struct {
	mu       sync.Mutex
	getMe    int
	sent     []map[string]string
	failSend bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			f.getMe++
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Planner","username":"planner_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.failSend {
				fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
				return
			}
			f.sent = append(f.sent, map[string]string{
				"chat_id":    r.Form.Get("chat_id"),
				"text":       r.Form.Get("text"),
				"parse_mode": r.Form.Get("parse_mode"),
			})
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, fake *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return New(config.TelegramConfig{
		BotToken:    "123:abc",
		APIEndpoint: srv.URL + "/bot%s/%s",
	}, nil)
}

func TestSendPostsHTMLMessage(t *testing.T) {
	fake := &fakeBotAPI{}
	client := newTestClient(t, fake)

	if err := client.Send(context.Background(), "42", "<b>Dentist</b>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := client.Send(context.Background(), "42", "again"); err != nil {
		t.Fatalf("second send: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.getMe != 1 {
		t.Fatalf("expected a single authorization, got %d", fake.getMe)
	}
	if len(fake.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fake.sent))
	}
	got := fake.sent[0]
	if got["chat_id"] != "42" || got["text"] != "<b>Dentist</b>" || got["parse_mode"] != "HTML" {
		t.Fatalf("unexpected request %#v", got)
	}
}

func TestSendReportsAPIFailure(t *testing.T) {
	fake := &fakeBotAPI{failSend: true}
	client := newTestClient(t, fake)

	err := client.Send(context.Background(), "42", "hi")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api description in error, got %v", err)
	}
}

func TestSendWithoutToken(t *testing.T) {
	client := New(config.TelegramConfig{}, nil)
	if client.Configured() {
		t.Fatalf("expected unconfigured client")
	}
	if err := client.Send(context.Background(), "42", "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendRejectsBadChatID(t *testing.T) {
	fake := &fakeBotAPI{}
	client := newTestClient(t, fake)

	if err := client.Send(context.Background(), "not-a-chat", "hi"); !errors.Is(err, ErrInvalidChat) {
		t.Fatalf("expected ErrInvalidChat, got %v", err)
	}
}

func TestSendRetriesAuthorizationAfterOutage(t *testing.T) {
	var down = true
	var mu sync.Mutex
	fake := &fakeBotAPI{}
	inner := fake.handler(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		unavailable := down
		mu.Unlock()
		if unavailable {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		inner(w, r)
	}))
	t.Cleanup(srv.Close)

	client := New(config.TelegramConfig{BotToken: "123:abc", APIEndpoint: srv.URL + "/bot%s/%s"}, nil)
	if err := client.Send(context.Background(), "42", "hi"); err == nil {
		t.Fatalf("expected error while api is down")
	}

	mu.Lock()
	down = false
	mu.Unlock()

	if err := client.Send(context.Background(), "42", "hi"); err != nil {
		t.Fatalf("send after recovery: %v", err)
	}
}

func TestSendHonoursCancelledContext(t *testing.T) {
	client := New(config.TelegramConfig{BotToken: "123:abc"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.Send(ctx, "42", "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
