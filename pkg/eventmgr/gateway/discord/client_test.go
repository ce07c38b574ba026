package discord_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/gateway/discord"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
)

func TestParseIntents(t *testing.T) {
	intents, err := discord.ParseIntents([]string{"guild_messages", " Message_Content ", "direct_messages"})
	require.NoError(t, err)
	assert.Equal(t,
		discordgo.IntentsGuildMessages|discordgo.IntentMessageContent|discordgo.IntentsDirectMessages,
		intents)

	none, err := discord.ParseIntents(nil)
	require.NoError(t, err)
	assert.Equal(t, discordgo.Intent(0), none)

	_, err = discord.ParseIntents([]string{"guilds", "telepathy"})
	assert.ErrorContains(t, err, "telepathy")
}

func TestNew_Validation(t *testing.T) {
	_, err := discord.New(discord.Options{})
	assert.ErrorContains(t, err, "token")

	_, err = discord.New(discord.Options{Token: "t", Intents: []string{"bogus"}})
	assert.ErrorContains(t, err, "bogus")
}

func TestNew_ConfiguresSession(t *testing.T) {
	c, err := discord.New(discord.Options{
		Token:   "abc",
		Intents: []string{"guilds", "guild_messages"},
		Manager: eventmgr.Config{
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			Timeout: 2 * time.Second,
		},
		Dedup: time.Minute,
	})
	require.NoError(t, err)

	s := c.Session()
	assert.Equal(t, "Bot abc", s.Token)
	assert.True(t, s.SyncEvents)
	assert.Equal(t, discordgo.IntentsGuilds|discordgo.IntentsGuildMessages, s.Identify.Intents)
	assert.Equal(t, 2*time.Second, c.Manager().Timeout())

	require.NoError(t, c.Close(context.Background()))
}

func TestClose_ShutsDownManagerAndJournal(t *testing.T) {
	store := journal.NewMemoryStore(0)
	c, err := discord.New(discord.Options{
		Token: "abc",
		Manager: eventmgr.Config{
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			Journal: store,
		},
	})
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))

	select {
	case <-c.Manager().Done():
	default:
		t.Fatal("manager still running after Close")
	}
	_, err = store.Count()
	assert.ErrorIs(t, err, journal.ErrStoreClosed)
}
