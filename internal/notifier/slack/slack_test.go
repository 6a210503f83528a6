package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func finishedMatch() *contest.Match {
	home, away := 3, 1
	return &contest.Match{
		ID:         "m1",
		HomeTeam:   "FCK",
		AwayTeam:   "BIF",
		KickoffAt:  time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC).Unix(),
		League:     "Superligaen",
		Status:     contest.StatusFinished,
		HomeResult: &home,
		AwayResult: &away,
	}
}

func TestSendResultNotification_DryRun(t *testing.T) {
	m := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	n := NewNotifierWithAPI(nil, "C123", m)

	require.NoError(t, n.SendResultNotification(finishedMatch(), true))
	assert.Equal(t, 0, m.NotifSentCount)
}

func TestSendResultNotification_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	m := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", m)

	require.NoError(t, n.SendResultNotification(finishedMatch(), false))
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, m.NotifSentCount)
	assert.Equal(t, 0, m.NotifFailedCount)
}

func TestSendResultNotification_NoResult(t *testing.T) {
	m := metrics.NewMock()
	n := NewNotifierWithAPI(nil, "C123", m)

	match := finishedMatch()
	match.HomeResult = nil
	match.AwayResult = nil
	assert.Error(t, n.SendResultNotification(match, false))
}

func TestSendSettlementFailure_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	m := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", m)

	err := n.SendSettlementFailure("m1", errors.New("settle function returned 500"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, m.NotifSentCount)
	assert.Equal(t, 1, m.NotifFailedCount)
}
