package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corridas/rankrelay/internal/api"
	"github.com/corridas/rankrelay/internal/channels"
	"github.com/corridas/rankrelay/internal/commands"
	"github.com/corridas/rankrelay/internal/config"
	"github.com/corridas/rankrelay/internal/ranking"
	"github.com/corridas/rankrelay/internal/relay"
	"github.com/corridas/rankrelay/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to WhatsApp and serve the control surface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printHeader(out, "📡 Rank Relay")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ch channels.Channel = channels.NewWhatsAppChannel(cfg.WhatsApp)
	handler := wire(cfg, ch)

	if cfg.WhatsApp.GroupID == "" {
		fmt.Fprintln(out, color.YellowString("WHATSAPP_GROUP_ID is not set: commands are answered in every chat and /send-message needs a groupId."))
	}
	stopChannel, err := startChannel(ctx, ch)
	if err != nil {
		return err
	}
	defer stopChannel()

	srv := &http.Server{
		Addr:              cfg.Gateway.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	slog.Info("Control surface listening", "addr", srv.Addr, "ranking_url", cfg.Ranking.BaseURL)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("Shut down")
	return nil
}

// wire connects client to the readiness gate, the outbound relay and the
// command router, and returns the control surface handler.
func wire(cfg *config.Config, client channels.Client) http.Handler {
	state := session.NewState()

	rel := relay.New(client, state, cfg.WhatsApp.GroupID)
	rel.Attach(client)

	rankings := ranking.NewClient(cfg.Ranking.BaseURL, &http.Client{Timeout: cfg.Ranking.Timeout})
	commands.NewRouter(rankings, state, cfg.WhatsApp.GroupID).Attach(client)

	return api.NewServer(rel, cfg.Gateway.AuthToken).Routes()
}

// startChannel starts ch and returns a function that stops it.
func startChannel(ctx context.Context, ch channels.Channel) (func(), error) {
	if err := ch.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", ch.Name(), err)
	}
	slog.Info("Channel started", "channel", ch.Name())
	return func() {
		if err := ch.Stop(); err != nil {
			slog.Warn("Channel stop failed", "channel", ch.Name(), "error", err)
		}
	}, nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
