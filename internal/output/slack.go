package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/elevatebox/elevatebox/internal/security"
)

// slackWebhookURLPrefix is the required prefix for Slack webhook URLs.
// This prevents data exfiltration to non-Slack endpoints.
const slackWebhookURLPrefix = "https://hooks.slack.com/"

// SlackWebhookEnvVar holds the default incoming webhook URL.
const SlackWebhookEnvVar = "SLACK_WEBHOOK_URL"

// SlackOutput posts notifications to a Slack incoming webhook.
type SlackOutput struct {
	channel    string
	webhookURL string
	client     *http.Client
}

type slackPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// NewSlackOutput creates a Slack output. An empty webhookURL is read from
// SLACK_WEBHOOK_URL. The channel is optional since a webhook is already bound
// to one; when set it is sent as an override.
func NewSlackOutput(channel, webhookURL string) (*SlackOutput, error) {
	if webhookURL == "" {
		webhookURL = os.Getenv(SlackWebhookEnvVar)
	}
	if webhookURL == "" {
		return nil, fmt.Errorf("%s environment variable not set", SlackWebhookEnvVar)
	}
	if !strings.HasPrefix(webhookURL, slackWebhookURLPrefix) {
		return nil, fmt.Errorf("invalid Slack webhook URL: must start with %s", slackWebhookURLPrefix)
	}
	if err := security.CheckPublicURL(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid Slack webhook URL: %w", err)
	}
	return newSlackOutput(channel, webhookURL), nil
}

// newSlackOutput skips URL validation so tests can point at httptest servers.
func newSlackOutput(channel, webhookURL string) *SlackOutput {
	return &SlackOutput{
		channel:    channel,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns "slack".
func (s *SlackOutput) Name() string {
	return "slack"
}

// Channel returns the channel override, if any.
func (s *SlackOutput) Channel() string {
	return s.channel
}

// Send posts a message to the webhook.
func (s *SlackOutput) Send(ctx context.Context, message string) error {
	body, err := json.Marshal(slackPayload{Channel: s.channel, Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// Close is a no-op for Slack output.
func (s *SlackOutput) Close() error {
	return nil
}
