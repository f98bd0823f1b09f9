package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestCompatible(t *testing.T, url, model string) *CompatibleProvider {
	t.Helper()
	p, err := NewCompatibleProvider(CompatibleConfig{BaseURL: url, APIKey: "secret"}, model)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestCompatibleProvider_SendsRequestShape(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get("X-Title") != "chat" || r.Header.Get("HTTP-Referer") != "https://chat.example" {
			t.Errorf("missing attribution headers")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("Hello!")))
	}))
	defer srv.Close()

	p, err := NewCompatibleProvider(CompatibleConfig{
		BaseURL: srv.URL + "/v1/",
		APIKey:  "secret",
		SiteURL: "https://chat.example",
		AppName: "chat",
		Options: Options{Temperature: 0.7, MaxTokens: 500},
	}, " gpt-4o-mini ")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	reply, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "Hi"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "Hello!" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != 0.7 || got.MaxTokens != 500 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Hi" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestNewCompatibleProvider_RequiresSettings(t *testing.T) {
	cases := []struct {
		cfg   CompatibleConfig
		model string
		want  string
	}{
		{CompatibleConfig{APIKey: "k"}, "m", "base url"},
		{CompatibleConfig{BaseURL: "http://x"}, "m", "api key"},
		{CompatibleConfig{BaseURL: "http://x", APIKey: "k"}, "  ", "model"},
	}
	for _, tc := range cases {
		_, err := NewCompatibleProvider(tc.cfg, tc.model)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("cfg %+v model %q: expected %q error, got %v", tc.cfg, tc.model, tc.want, err)
		}
	}
}

func TestCompatibleProvider_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestCompatible(t, srv.URL, "m").Chat(context.Background(), []Message{{Role: RoleUser, Content: "Hi"}})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestCompatibleProvider_EmptyChoices(t *testing.T) {
	for _, body := range []string{completionBody("   "), `{"choices":[]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestCompatible(t, srv.URL, "m").Chat(context.Background(), []Message{{Role: RoleUser, Content: "Hi"}})
		srv.Close()
		if !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("body %s: expected ErrEmptyResponse, got %v", body, err)
		}
	}
}

func TestCompatibleProvider_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestCompatible(t, srv.URL, "m").Chat(context.Background(), []Message{{Role: RoleUser, Content: "Hi"}})
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected provider error, got %v", err)
	}
}
