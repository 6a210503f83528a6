package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mauv0809/crispy-fiesta/internal/config"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/database"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/metrics"
	"github.com/mauv0809/crispy-fiesta/internal/notifier"
	"github.com/mauv0809/crispy-fiesta/internal/settlement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T) (*Server, *feed.MockPublisher, *settlement.MockSettler, *notifier.Mock, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := league.New(db)
	pub := feed.NewMock()
	settler := settlement.NewMock()
	notif := notifier.NewMock()

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	cfg := config.Config{
		DraftDebounce: 20 * time.Millisecond,
		CommitTimeout: time.Second,
	}
	trigger := settlement.NewTrigger(store, pub, settler, notif, metricsSvc, false)
	server := NewServer(store, metricsSvc, metricsHandler, cfg, pub, trigger, notif)

	teardown := func() {
		server.Close()
		dbTeardown()
	}
	return server, pub, settler, notif, teardown
}

func createMatch(t *testing.T, server *Server, kickoff time.Time) *contest.Match {
	t.Helper()
	match := &contest.Match{HomeTeam: "FCK", AwayTeam: "BIF", KickoffAt: kickoff.Unix(), League: "Superligaen"}
	require.NoError(t, server.Store.CreateMatch(match))
	return match
}

func doJSON(server *Server, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestCreateAndListMatches(t *testing.T) {
	server, pub, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodPost, "/admin/match/create", map[string]any{
		"home_team":  "FCK",
		"away_team":  "BIF",
		"kickoff_at": time.Now().Add(2 * time.Hour).Unix(),
		"league":     "Superligaen",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var created contest.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, contest.StatusScheduled, created.Status)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, feed.EntityMatch, events[0].Entity)

	rr = doJSON(server, http.MethodGet, "/matches", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var matches []*contest.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, created.ID, matches[0].ID)
}

func TestCreateMatchValidation(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodPost, "/admin/match/create", map[string]any{"home_team": "FCK"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPredictFlow(t *testing.T) {
	server, pub, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createMatch(t, server, time.Now().Add(2*time.Hour))

	rr := doJSON(server, http.MethodPost, "/predict", map[string]string{
		"user_id":  "user-1",
		"match_id": match.ID,
		"home":     "2",
		"away":     "1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var snap struct {
		State contest.DraftState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, contest.DraftEditing, snap.State)

	// The debounced commit lands in the store shortly after.
	require.Eventually(t, func() bool {
		predictions, err := server.Store.GetPredictions("user-1")
		return err == nil && len(predictions) == 1 && predictions[0].HomeGoals == 2
	}, time.Second, 10*time.Millisecond)

	// The commit is fanned out on the change feed.
	var sawPrediction bool
	for _, ev := range pub.Events() {
		if ev.Entity == feed.EntityPrediction {
			sawPrediction = true
		}
	}
	assert.True(t, sawPrediction)
}

func TestPredictInvalidScore(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createMatch(t, server, time.Now().Add(2*time.Hour))

	rr := doJSON(server, http.MethodPost, "/predict", map[string]string{
		"user_id":  "user-1",
		"match_id": match.ID,
		"home":     "two",
		"away":     "1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPredictLockedMatch(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	// Kickoff in five minutes is inside the default fifteen-minute window.
	match := createMatch(t, server, time.Now().Add(5*time.Minute))

	rr := doJSON(server, http.MethodPost, "/predict", map[string]string{
		"user_id":  "user-1",
		"match_id": match.ID,
		"home":     "1",
		"away":     "1",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMatchPredictionsHiddenUntilLock(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	// Kickoff two hours out: the default lock window has not opened yet.
	match := createMatch(t, server, time.Now().Add(2*time.Hour))
	_, err := server.Store.UpsertPrediction(context.Background(), &contest.Prediction{
		UserID: "user-1", MatchID: match.ID, HomeGoals: 1, AwayGoals: 0, Seq: 1,
	})
	require.NoError(t, err)

	rr := doJSON(server, http.MethodGet, "/predictions?matchID="+match.ID, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// The visibility flag opens them up without touching lock timing.
	require.NoError(t, server.Store.SetFlag("always_show_predictions", true))
	rr = doJSON(server, http.MethodGet, "/predictions?matchID="+match.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var predictions []*contest.Prediction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &predictions))
	require.Len(t, predictions, 1)
	assert.Equal(t, "user-1", predictions[0].UserID)
}

func TestMatchPredictionsVisibleOnceLocked(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	// Kickoff five minutes out is inside the default window, so the match is
	// locked and predictions are public.
	match := createMatch(t, server, time.Now().Add(5*time.Minute))

	rr := doJSON(server, http.MethodGet, "/predictions?matchID="+match.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecordResultAndSettle(t *testing.T) {
	server, pub, settler, notif, teardown := setupTestServer(t)
	defer teardown()

	match := createMatch(t, server, time.Now().Add(-2*time.Hour))

	rr := doJSON(server, http.MethodPost, "/admin/match/result", map[string]any{
		"match_id": match.ID,
		"home":     3,
		"away":     0,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	stored, err := server.Store.GetMatch(match.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	require.NotNil(t, stored.HomeResult)
	assert.Equal(t, 3, *stored.HomeResult)

	assert.Equal(t, []string{match.ID}, settler.SettleCalls)
	require.Len(t, notif.SendResultNotificationCalls, 1)

	var entities []feed.Entity
	for _, ev := range pub.Events() {
		entities = append(entities, ev.Entity)
	}
	assert.Contains(t, entities, feed.EntityMatch)
	assert.Contains(t, entities, feed.EntityStanding)
}

func TestRecordResultSettlementFailure(t *testing.T) {
	server, _, settler, notif, teardown := setupTestServer(t)
	defer teardown()

	match := createMatch(t, server, time.Now().Add(-2*time.Hour))
	settler.SettleFunc = func(context.Context, string) error {
		return errors.New("settle function returned 500")
	}

	rr := doJSON(server, http.MethodPost, "/admin/match/result", map[string]any{
		"match_id": match.ID,
		"home":     1,
		"away":     1,
	})
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	// The score stays recorded even though settlement failed.
	stored, err := server.Store.GetMatch(match.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	require.Len(t, notif.SendSettlementFailureCalls, 1)
}

func TestRecordResultUnknownMatch(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodPost, "/admin/match/result", map[string]any{
		"match_id": "nope",
		"home":     1,
		"away":     1,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSettingsUpdatePublishes(t *testing.T) {
	server, pub, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodPost, "/admin/settings", map[string]any{
		"name":    "special_lock_times",
		"enabled": true,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var flags contest.Flags
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &flags))
	assert.True(t, flags.SpecialLockWindows)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, feed.EntitySettings, events[0].Entity)
	require.NotNil(t, events[0].Flags)
	assert.True(t, events[0].Flags.SpecialLockWindows)

	rr = doJSON(server, http.MethodGet, "/admin/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestSettingsUnknownFlag(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodPost, "/admin/settings", map[string]any{
		"name":    "no_such_flag",
		"enabled": true,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResetPoints(t *testing.T) {
	server, pub, _, _, teardown := setupTestServer(t)
	defer teardown()

	require.NoError(t, server.Store.UpsertStanding(contest.Standing{UserID: "user-1", Username: "Anna", Points: 42}))

	rr := doJSON(server, http.MethodPost, "/admin/reset-points", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	standings, err := server.Store.GetStandings()
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 0, standings[0].Points)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, feed.EntityStanding, events[0].Entity)
}

func TestEventsPushReachesSessions(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createMatch(t, server, time.Now().Add(2*time.Hour))

	// Mount a session first.
	rr := doJSON(server, http.MethodGet, "/session?userID=user-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	home, away := 2, 2
	finished := *match
	finished.Status = contest.StatusFinished
	finished.HomeResult = &home
	finished.AwayResult = &away
	payload, err := msgpack.Marshal(feed.Event{
		Entity: feed.EntityMatch,
		Action: feed.ActionUpsert,
		ID:     match.ID,
		Match:  &finished,
	})
	require.NoError(t, err)

	envelope := map[string]any{
		"message": map[string]string{"data": base64.StdEncoding.EncodeToString(payload)},
	}
	rr = doJSON(server, http.MethodPost, "/events", envelope)
	require.Equal(t, http.StatusOK, rr.Code)

	// The session's view reflects the finished match and refuses edits.
	rr = doJSON(server, http.MethodPost, "/predict", map[string]string{
		"user_id":  "user-1",
		"match_id": match.ID,
		"home":     "1",
		"away":     "1",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestEventsPushBadEnvelope(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionClose(t *testing.T) {
	server, _, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(server, http.MethodGet, "/session?userID=user-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(server, http.MethodPost, "/session/close?userID=user-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(server, http.MethodGet, "/predict/state?userID=user-1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
