package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Slack rejects section text longer than this.
const slackSectionLimit = 3000

type SlackConfig struct {
	Token string
	// APIURL overrides the Web API base URL. It must end with a slash.
	APIURL string
}

// Slack posts digests with chat.postMessage as mrkdwn section blocks.
type Slack struct {
	client *slack.Client
	logger *slog.Logger
}

func NewSlack(cfg SlackConfig, logger *slog.Logger) *Slack {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Slack{
		client: slack.New(cfg.Token, opts...),
		logger: logger.With("publisher", "slack"),
	}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Publish(ctx context.Context, message, channelID string) error {
	var blocks []slack.Block
	for _, chunk := range splitLines(message, slackSectionLimit) {
		text := slack.NewTextBlockObject(slack.MarkdownType, chunk, false, false)
		blocks = append(blocks, slack.NewSectionBlock(text, nil, nil))
	}

	channel, ts, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(message, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	s.logger.Debug("posted digest", "channel", channel, "ts", ts, "blocks", len(blocks))
	return nil
}

func (s *Slack) Close() error {
	return nil
}
