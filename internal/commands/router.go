// Package commands answers chat commands.
package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corridas/rankrelay/internal/channels"
	"github.com/corridas/rankrelay/internal/ranking"
	"github.com/corridas/rankrelay/internal/session"
	"github.com/google/uuid"
)

// HelpText is the reply to /help and /ajuda.
const HelpText = "🏃‍♂️ *Bot de Corridas - Comandos Disponíveis*\n\n" +
	"/ranking-semanal ou /semanal - Ranking da semana\n" +
	"/ranking-mensal ou /mensal - Ranking do mês\n" +
	"/help ou /ajuda - Esta mensagem de ajuda\n\n" +
	"O bot notifica automaticamente quando alguém completa uma corrida no Strava! 🎉"

// FailureReply is sent to the chat whenever a command fails.
const FailureReply = "❌ Erro ao processar comando. Tente novamente mais tarde."

// Kind is what a command does.
type Kind int

const (
	KindRanking Kind = iota + 1
	KindHelp
)

// Command is a recognized chat command.
type Command struct {
	Name   string
	Kind   Kind
	Period ranking.Period
}

var commandTable = map[string]Command{
	"/ranking-semanal": {Name: "/ranking-semanal", Kind: KindRanking, Period: ranking.Weekly},
	"/semanal":         {Name: "/semanal", Kind: KindRanking, Period: ranking.Weekly},
	"/ranking-mensal":  {Name: "/ranking-mensal", Kind: KindRanking, Period: ranking.Monthly},
	"/mensal":          {Name: "/mensal", Kind: KindRanking, Period: ranking.Monthly},
	"/help":            {Name: "/help", Kind: KindHelp},
	"/ajuda":           {Name: "/ajuda", Kind: KindHelp},
}

// Parse matches body case-insensitively against the known commands.
// The match is exact: surrounding text or whitespace means no command.
func Parse(body string) (Command, bool) {
	cmd, ok := commandTable[strings.ToLower(body)]
	return cmd, ok
}

// Inbound is one chat message as seen by the router.
type Inbound struct {
	ChatID string
	Body   string
}

// Outcome classifies a Result.
type Outcome int

const (
	// Ignored means nothing is sent.
	Ignored Outcome = iota
	// Replied means Reply should be sent to the originating chat.
	Replied
	// Failed means FailureReply should be sent and Err logged.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Replied:
		return "replied"
	case Failed:
		return "failed"
	default:
		return "ignored"
	}
}

// Result is the router's decision for one inbound message.
type Result struct {
	Outcome Outcome
	Command string
	Reply   string
	Err     error
}

// RankingFetcher fetches a formatted ranking.
type RankingFetcher interface {
	Fetch(ctx context.Context, period ranking.Period) (string, error)
}

// Router maps chat commands to replies.
type Router struct {
	rankings RankingFetcher
	state    *session.State
	groupID  string
}

// NewRouter creates a Router. When groupID is set, messages from any
// other chat are ignored.
func NewRouter(rankings RankingFetcher, state *session.State, groupID string) *Router {
	return &Router{
		rankings: rankings,
		state:    state,
		groupID:  channels.NormalizeChatID(groupID),
	}
}

// Handle decides how to answer in. It never sends anything.
func (r *Router) Handle(ctx context.Context, in Inbound) Result {
	if r.state != nil && !r.state.Ready() {
		return Result{Outcome: Ignored}
	}
	if r.groupID != "" && channels.NormalizeChatID(in.ChatID) != r.groupID {
		return Result{Outcome: Ignored}
	}
	cmd, ok := Parse(in.Body)
	if !ok {
		return Result{Outcome: Ignored}
	}

	switch cmd.Kind {
	case KindHelp:
		return Result{Outcome: Replied, Command: cmd.Name, Reply: HelpText}
	case KindRanking:
		msg, err := r.rankings.Fetch(ctx, cmd.Period)
		if err != nil {
			return Result{Outcome: Failed, Command: cmd.Name, Err: err}
		}
		return Result{Outcome: Replied, Command: cmd.Name, Reply: msg}
	}
	return Result{Outcome: Ignored}
}

// Attach answers every message client delivers.
func (r *Router) Attach(client channels.Client) {
	client.OnMessage(func(ctx context.Context, msg channels.Message) {
		r.Dispatch(ctx, client, msg)
	})
}

// Dispatch handles msg and sends the reply, or FailureReply when the
// command or the reply fails. Errors are logged, never returned.
func (r *Router) Dispatch(ctx context.Context, client channels.Client, msg channels.Message) Result {
	res := r.Handle(ctx, Inbound{ChatID: msg.ChatID, Body: msg.Body})
	if res.Outcome == Ignored {
		return res
	}

	log := slog.With("trace_id", uuid.NewString(), "chat_id", msg.ChatID, "command", res.Command)
	chat := channels.Chat{ID: msg.ChatID, IsGroup: msg.IsGroup}

	if res.Outcome == Replied {
		err := client.SendMessage(ctx, chat, res.Reply)
		if err == nil {
			log.Info("Command answered")
			return res
		}
		res = Result{Outcome: Failed, Command: res.Command, Err: err}
	}

	log.Error("Error handling command", "error", res.Err)
	if err := client.SendMessage(ctx, chat, FailureReply); err != nil {
		log.Error("Error sending failure reply", "error", err)
	}
	return res
}
