package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackSender posts notifications to one Slack channel.
type SlackSender struct {
	client  *slack.Client
	channel string
}

func NewSlackSender(token, channel, apiURL string) *SlackSender {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackSender{client: slack.New(token, opts...), channel: channel}
}

func (s *SlackSender) Name() string { return "slack" }

// Send returns the message timestamp Slack assigned.
func (s *SlackSender) Send(ctx context.Context, m Message) (string, error) {
	_, ts, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(m.Text(), false))
	if err != nil {
		return "", fmt.Errorf("slack: post message: %w", err)
	}
	return ts, nil
}
