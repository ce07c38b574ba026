// Package discord runs an event manager on a discordgo session.
package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/gateway"
)

var intentNames = map[string]discordgo.Intent{
	"guilds":                   discordgo.IntentsGuilds,
	"guild_members":            discordgo.IntentsGuildMembers,
	"guild_presences":          discordgo.IntentsGuildPresences,
	"guild_voice_states":       discordgo.IntentsGuildVoiceStates,
	"guild_messages":           discordgo.IntentsGuildMessages,
	"guild_message_reactions":  discordgo.IntentsGuildMessageReactions,
	"direct_messages":          discordgo.IntentsDirectMessages,
	"direct_message_reactions": discordgo.IntentsDirectMessageReactions,
	"message_content":          discordgo.IntentMessageContent,
}

// ParseIntents combines gateway intents by name.
func ParseIntents(names []string) (discordgo.Intent, error) {
	var intents discordgo.Intent
	for _, name := range names {
		intent, ok := intentNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			known := make([]string, 0, len(intentNames))
			for k := range intentNames {
				known = append(known, k)
			}
			sort.Strings(known)
			return 0, fmt.Errorf("unknown intent %q (known: %s)", name, strings.Join(known, ", "))
		}
		intents |= intent
	}
	return intents, nil
}

// Options configures a Client.
type Options struct {
	// Token is the bot token, without the "Bot " prefix.
	Token string
	// Intents are gateway intent names, see ParseIntents.
	Intents []string
	// Manager configures the event manager. Its Journal is closed by Close.
	Manager eventmgr.Config
	// Dedup drops redelivered messages within this window. Zero disables it.
	Dedup time.Duration
}

// Client owns a discordgo session and the manager its events feed.
type Client struct {
	session *discordgo.Session
	manager *eventmgr.Manager
	opts    Options
	unbind  func()
}

// New creates a client. The session is not opened.
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("create discord client: token is required")
	}
	intents, err := ParseIntents(opts.Intents)
	if err != nil {
		return nil, fmt.Errorf("create discord client: %w", err)
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = intents
	// Handlers run on the gateway goroutine, so Handle sees events in
	// gateway order; Handle itself never blocks.
	session.SyncEvents = true

	manager := eventmgr.NewManager(opts.Manager)

	var bindOpts []gateway.BindOption
	if opts.Dedup > 0 {
		bindOpts = append(bindOpts, gateway.WithDedup(opts.Dedup))
	}

	return &Client{
		session: session,
		manager: manager,
		opts:    opts,
		unbind:  gateway.Bind(session, manager, bindOpts...),
	}, nil
}

// Session returns the underlying discordgo session.
func (c *Client) Session() *discordgo.Session { return c.session }

// Manager returns the event manager fed by the session.
func (c *Client) Manager() *eventmgr.Manager { return c.manager }

// Open connects to the gateway.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Reply sends a plain text message to a channel.
func (c *Client) Reply(channelID, content string) error {
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

// Close disconnects the session, shuts the manager down (waiting for
// in-flight dispatches until ctx expires) and closes the journal.
// Every failure is reported.
func (c *Client) Close(ctx context.Context) error {
	var result *multierror.Error

	c.unbind()
	if err := c.session.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close session: %w", err))
	}
	if err := c.manager.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown manager: %w", err))
	}
	if c.opts.Manager.Journal != nil {
		if err := c.opts.Manager.Journal.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close journal: %w", err))
		}
	}
	return result.ErrorOrNil()
}
