package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects message content longer than this.
const discordMessageLimit = 2000

var (
	slackLink = regexp.MustCompile(`<(https?://[^|>]+)\|([^>]+)>`)
	slackBold = regexp.MustCompile(`\*([^*\n]+)\*`)
)

type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts digests through the REST API; no gateway connection is
// opened.
type Discord struct {
	session *discordgo.Session
	sender  messageSender
	logger  *slog.Logger
}

func NewDiscord(token string, logger *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Discord{
		session: session,
		sender:  session,
		logger:  logger.With("publisher", "discord"),
	}, nil
}

func (d *Discord) Name() string {
	return "discord"
}

func (d *Discord) Publish(ctx context.Context, message, channelID string) error {
	content := ToMarkdown(message)
	for _, chunk := range splitLines(content, discordMessageLimit) {
		msg, err := d.sender.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		d.logger.Debug("posted digest", "channel", channelID, "message_id", msg.ID)
	}
	return nil
}

func (d *Discord) Close() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}

// ToMarkdown rewrites Slack mrkdwn links and bold text as Markdown.
func ToMarkdown(text string) string {
	text = slackBold.ReplaceAllString(text, "**$1**")
	return slackLink.ReplaceAllString(text, "[$2]($1)")
}
