package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
	"github.com/mauv0809/crispy-fiesta/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client
// that we use. This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client
// instance. Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) error {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

// SendResultNotification announces a recorded final score.
func (s *Notifier) SendResultNotification(match *contest.Match, dryRun bool) error {
	if match.HomeResult == nil || match.AwayResult == nil {
		return fmt.Errorf("match %s has no recorded result", match.ID)
	}

	headerText := fmt.Sprintf("⚽ Full-time: %s %d – %d %s", match.HomeTeam, *match.HomeResult, *match.AwayResult, match.AwayTeam)
	bodyText := fmt.Sprintf("Kickoff was %s", time.Unix(match.KickoffAt, 0).Format("Mon 2 Jan 15:04"))
	if match.League != "" {
		bodyText = fmt.Sprintf("%s · %s", match.League, bodyText)
	}

	message := slack.NewBlockMessage(
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, headerText, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, bodyText, false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, "Points are on their way to the leaderboard.", false, false)),
	)
	return s.sendMessage(message, dryRun)
}

// SendSettlementFailure flags a settlement run that needs an admin re-run.
func (s *Notifier) SendSettlementFailure(matchID string, cause error, dryRun bool) error {
	headerText := "🚨 Settlement failed"
	bodyText := fmt.Sprintf("Settling match `%s` failed: %v\nThe final score is recorded; re-run settlement from the admin panel.", matchID, cause)

	message := slack.NewBlockMessage(
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, headerText, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, bodyText, false, false), nil, nil),
	)
	return s.sendMessage(message, dryRun)
}
