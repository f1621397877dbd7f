package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corridas/rankrelay/internal/api"
	"github.com/corridas/rankrelay/internal/channels"
	"github.com/corridas/rankrelay/internal/channels/channelstest"
	"github.com/corridas/rankrelay/internal/commands"
	"github.com/corridas/rankrelay/internal/config"
)

const runGroup = "120363025246125486@g.us"

func newRankingService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ranking/weekly":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "🏆 Semana: 1. Ana 42km"})
		case "/ranking/monthly":
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "🏆 Mês: 1. Bia 180km"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wiredRelay(t *testing.T) (*httptest.Server, *channelstest.Fake) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.WhatsApp.GroupID = runGroup
	cfg.Ranking.BaseURL = newRankingService(t).URL

	fake := channelstest.NewFake(
		channels.Chat{ID: runGroup, Name: "Corridas", IsGroup: true},
		channels.Chat{ID: "5511999999999@s.whatsapp.net", Name: "Ana"},
	)
	srv := httptest.NewServer(wire(cfg, fake))
	t.Cleanup(srv.Close)
	return srv, fake
}

func TestWireEndToEnd(t *testing.T) {
	srv, fake := wiredRelay(t)
	ctx := context.Background()
	client := api.NewClient(srv.URL, "", nil)

	// Commands before the handshake are ignored.
	fake.Deliver(ctx, channels.Message{ChatID: runGroup, Body: "/semanal"})
	if len(fake.Sent()) != 0 {
		t.Fatalf("expected no reply before ready, got %+v", fake.Sent())
	}
	if status, _ := client.Health(ctx); status != "initializing" {
		t.Fatalf("expected initializing, got %q", status)
	}

	fake.Connect(ctx)
	if status, _ := client.Health(ctx); status != "ready" {
		t.Fatalf("expected ready, got %q", status)
	}

	fake.Deliver(ctx, channels.Message{ChatID: runGroup, Body: "/mensal"})
	fake.Deliver(ctx, channels.Message{ChatID: runGroup, Body: "/help"})
	if err := client.SendMessage(ctx, "Treino amanhã às 6h", ""); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := fake.Sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 sends, got %+v", sent)
	}
	if sent[0].Text != "🏆 Mês: 1. Bia 180km" {
		t.Fatalf("unexpected ranking reply %q", sent[0].Text)
	}
	if sent[1].Text != commands.HelpText {
		t.Fatalf("unexpected help reply %q", sent[1].Text)
	}
	if sent[2].Chat.ID != runGroup || sent[2].Text != "Treino amanhã às 6h" {
		t.Fatalf("unexpected outbound send %+v", sent[2])
	}
}

func TestRemoteCommands(t *testing.T) {
	srv, fake := wiredRelay(t)
	ctx := context.Background()
	client := api.NewClient(srv.URL, "", nil)

	var out bytes.Buffer
	if err := runStatus(ctx, &out, client); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "initializing") {
		t.Fatalf("expected initializing status, got %q", out.String())
	}

	out.Reset()
	if err := runGroups(ctx, &out, client); err == nil {
		t.Fatal("expected groups to fail before ready")
	}

	fake.Connect(ctx)

	out.Reset()
	if err := runStatus(ctx, &out, client); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "Ready") {
		t.Fatalf("expected ready status, got %q", out.String())
	}

	out.Reset()
	if err := runGroups(ctx, &out, client); err != nil {
		t.Fatalf("groups: %v", err)
	}
	if !strings.Contains(out.String(), "Corridas") || !strings.Contains(out.String(), runGroup) {
		t.Fatalf("expected group listing, got %q", out.String())
	}
	if strings.Contains(out.String(), "Ana") {
		t.Fatalf("direct chats must not be listed, got %q", out.String())
	}

	out.Reset()
	if err := runSend(ctx, &out, client, "Bom treino", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "Sent") {
		t.Fatalf("expected confirmation, got %q", out.String())
	}
}

func TestRunStatusUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	var out bytes.Buffer
	client := api.NewClient("http://"+addr, "", &http.Client{Timeout: time.Second})
	if err := runStatus(context.Background(), &out, client); err == nil {
		t.Fatal("expected error for unreachable relay")
	}
	if !strings.Contains(out.String(), "Unreachable") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Fatalf("unexpected record %v", rec)
	}
}

type lifecycleChannel struct {
	*channelstest.Fake
	startErr error
	started  bool
	stopped  bool
}

func (c *lifecycleChannel) Name() string { return "fake" }

func (c *lifecycleChannel) Start(ctx context.Context) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.started = true
	return nil
}

func (c *lifecycleChannel) Stop() error {
	c.stopped = true
	return nil
}

func TestStartChannel(t *testing.T) {
	ch := &lifecycleChannel{Fake: channelstest.NewFake()}
	stop, err := startChannel(context.Background(), ch)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !ch.started || ch.stopped {
		t.Fatalf("expected started channel, got %+v", ch)
	}
	stop()
	if !ch.stopped {
		t.Fatal("expected channel to be stopped")
	}

	failing := &lifecycleChannel{Fake: channelstest.NewFake(), startErr: errors.New("db locked")}
	if _, err := startChannel(context.Background(), failing); err == nil || !strings.Contains(err.Error(), "start fake") {
		t.Fatalf("expected wrapped start error, got %v", err)
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}
