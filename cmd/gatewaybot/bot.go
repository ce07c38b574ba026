package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
)

const (
	pingCommand   = "!ping"
	remindCommand = "!remind"
)

// replier sends a text message to a channel.
type replier interface {
	Reply(channelID, content string) error
}

// bot holds the demo command listeners.
type bot struct {
	out        replier
	logger     *slog.Logger
	remindWait time.Duration
}

func newBot(out replier, logger *slog.Logger, remindWait time.Duration) *bot {
	return &bot{out: out, logger: logger, remindWait: remindWait}
}

// register adds the bot's listeners to m.
func (b *bot) register(m *eventmgr.Manager) error {
	if _, err := eventmgr.On(m, b.onReady, eventmgr.WithName("ready")); err != nil {
		return err
	}
	if _, err := eventmgr.On(m, b.onPing, eventmgr.WithName("ping")); err != nil {
		return err
	}
	// The prompt waits up to remindWait for an answer; leave room to reply.
	_, err := eventmgr.On(m, b.onRemind,
		eventmgr.WithName("remind"),
		eventmgr.WithTimeout(eventmgr.Limit(b.remindWait+5*time.Second)),
	)
	return err
}

func (b *bot) onReady(_ context.Context, _ *eventmgr.Typed[*discordgo.Ready], evt *discordgo.Ready) error {
	var user string
	if evt.User != nil {
		user = evt.User.String()
	}
	b.logger.Info("connected to gateway",
		slog.String("user", user),
		slog.Int("guilds", len(evt.Guilds)),
	)
	return nil
}

func (b *bot) onPing(_ context.Context, _ *eventmgr.Typed[*discordgo.MessageCreate], evt *discordgo.MessageCreate) error {
	if !fromHuman(evt) || strings.TrimSpace(evt.Content) != pingCommand {
		return nil
	}
	return b.out.Reply(evt.ChannelID, "pong")
}

// onRemind asks for a note and waits for the same author to answer in the
// same channel.
func (b *bot) onRemind(ctx context.Context, l *eventmgr.Typed[*discordgo.MessageCreate], evt *discordgo.MessageCreate) error {
	if !fromHuman(evt) || strings.TrimSpace(evt.Content) != remindCommand {
		return nil
	}
	authorID, channelID := evt.Author.ID, evt.ChannelID
	if err := b.out.Reply(channelID, "What should I remind you about?"); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.remindWait)
	defer cancel()

	answer, err := eventmgr.Await(waitCtx, l.Manager(), func(m *discordgo.MessageCreate) bool {
		return fromHuman(m) && m.Author.ID == authorID && m.ChannelID == channelID
	})
	switch {
	case err == nil:
		return b.out.Reply(channelID, fmt.Sprintf("Reminder noted: %s", answer.Content))
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return b.out.Reply(channelID, "No answer, reminder dropped.")
	default:
		return err
	}
}

func fromHuman(evt *discordgo.MessageCreate) bool {
	return evt != nil && evt.Message != nil && evt.Author != nil && !evt.Author.Bot
}
