// Package discord implements the chat transport adapter (spec.md §6
// "Transport contract") over Discord: it turns inbound Discord messages
// into orchestrator.Message calls and implements executor.MessageSender
// for outbound sends, including long-message chunking.
package discord

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/orchestrator"
)

// MessageHandler is the orchestrator's inbound entry point. Implemented by
// *orchestrator.Orchestrator.
type MessageHandler interface {
	Handle(ctx context.Context, msg orchestrator.Message) (string, error)
}

// Transport wires a Discord session to a MessageHandler, and implements
// executor.MessageSender for outbound proactive messages (heartbeat
// actions).
type Transport struct {
	session *discordgo.Session
	handler MessageHandler
	cfg     *config.DiscordConfig
	log     *slog.Logger
}

// New builds a Transport from a bot token. It registers the message
// handler but does not open the session; call Open to connect.
func New(token string, handler MessageHandler, cfg *config.DiscordConfig, log *slog.Logger) (*Transport, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = &config.DiscordConfig{MaxChunkBytes: 1900}
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	t := &Transport{session: session, handler: handler, cfg: cfg, log: log.With("component", "discord")}
	session.AddHandler(t.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	return t, nil
}

// Open connects to Discord's gateway.
func (t *Transport) Open() error {
	return t.session.Open()
}

// Close disconnects from Discord's gateway.
func (t *Transport) Close() error {
	return t.session.Close()
}

// onMessageCreate is discordgo's inbound-message callback: it ignores the
// bot's own messages, dispatches to the orchestrator, and sends the
// response back (chunked if needed).
func (t *Transport) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	ctx := context.Background()
	response, err := t.handler.Handle(ctx, orchestrator.Message{
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	})
	if err != nil {
		t.log.Error("orchestrator handling failed", "error", err, "channel_id", m.ChannelID)
		response = "Sorry, something went wrong processing that."
	}
	if err := t.SendMessage(ctx, m.ChannelID, response); err != nil {
		t.log.Error("failed to send response", "error", err, "channel_id", m.ChannelID)
	}
}

// SendMessage implements executor.MessageSender. userID is treated as a
// Discord channel ID: heartbeat actions address users by their DM
// channel, matching spec.md §6's send(channel_id, content) contract.
func (t *Transport) SendMessage(_ context.Context, userID, text string) error {
	for _, chunk := range chunkMessage(text, t.cfg.MaxChunkBytes) {
		if _, err := t.session.ChannelMessageSend(userID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// chunkMessage splits text into chunks of at most maxBytes, breaking on
// whitespace boundaries where possible so words aren't split mid-token
// (spec.md §6: "long-message chunking with max bytes per chunk").
func chunkMessage(text string, maxBytes int) []string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxBytes {
		cut := maxBytes
		if idx := strings.LastIndexByte(text[:maxBytes], ' '); idx > 0 {
			cut = idx
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
