package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/crispy-fiesta/internal/contest"
	"github.com/mauv0809/crispy-fiesta/internal/draft"
	"github.com/mauv0809/crispy-fiesta/internal/feed"
	"github.com/mauv0809/crispy-fiesta/internal/leaderboard"
	"github.com/mauv0809/crispy-fiesta/internal/league"
	"github.com/mauv0809/crispy-fiesta/internal/lockpolicy"
	"github.com/mauv0809/crispy-fiesta/internal/syncer"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Received request to clear entire store")
		s.Store.Clear()
		s.sessions.closeAll()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := contest.MatchStatus(r.URL.Query().Get("status"))
		matches, err := s.Store.GetMatches(status)
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			log.Error("Failed to get matches from store", "error", err)
			return
		}
		writeJSON(w, matches)
	}
}

// ListPredictionsHandler serves a user's own predictions (userID param) or
// everyone's predictions for one match (matchID param). Match predictions are
// hidden until the match's default lock window opens, unless the
// always_show_predictions flag is on. Visibility never affects lock timing.
func (s *Server) ListPredictionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if matchID := r.URL.Query().Get("matchID"); matchID != "" {
			s.serveMatchPredictions(w, matchID)
			return
		}

		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "Missing userID or matchID", http.StatusBadRequest)
			return
		}
		predictions, err := s.Store.GetPredictions(userID)
		if err != nil {
			http.Error(w, "Failed to get predictions", http.StatusInternalServerError)
			log.Error("Failed to get predictions from store", "error", err)
			return
		}
		writeJSON(w, predictions)
	}
}

func (s *Server) serveMatchPredictions(w http.ResponseWriter, matchID string) {
	match, err := s.Store.GetMatch(matchID)
	if errors.Is(err, league.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get match", http.StatusInternalServerError)
		return
	}
	flags, err := s.Store.GetFlags()
	if err != nil {
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	if !flags.AlwaysShowPredictions && !match.Finished() &&
		time.Now().Before(lockpolicy.LockInstant(time.Unix(match.KickoffAt, 0), flags, 0)) {
		http.Error(w, "Predictions are hidden until the match locks", http.StatusForbidden)
		return
	}

	predictions, err := s.Store.GetMatchPredictions(matchID)
	if err != nil {
		http.Error(w, "Failed to get predictions", http.StatusInternalServerError)
		log.Error("Failed to get match predictions from store", "error", err)
		return
	}
	writeJSON(w, predictions)
}

func (s *Server) StandingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := s.Store.GetStandings()
		if err != nil {
			http.Error(w, "Failed to get standings", http.StatusInternalServerError)
			log.Error("Failed to get standings from store", "error", err)
			return
		}
		writeJSON(w, leaderboard.Rank(standings))
	}
}

// PredictHandler routes a score edit into the user's session engine. The
// response carries the draft state right after the edit was accepted; the
// commit itself happens after the debounce interval.
func (s *Server) PredictHandler() http.HandlerFunc {
	type request struct {
		UserID  string `json:"user_id"`
		MatchID string `json:"match_id"`
		Home    string `json:"home"`
		Away    string `json:"away"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.MatchID == "" {
			http.Error(w, "Missing user_id or match_id", http.StatusBadRequest)
			return
		}

		engine, err := s.engineFor(req.UserID)
		if err != nil {
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			log.Error("Failed to load session", "userID", req.UserID, "error", err)
			return
		}

		switch err := engine.Edit(req.MatchID, req.Home, req.Away); {
		case errors.Is(err, draft.ErrInvalidScore):
			http.Error(w, "Scores must be non-negative whole numbers", http.StatusBadRequest)
			return
		case errors.Is(err, draft.ErrLocked):
			http.Error(w, "Predictions for this match are locked", http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to record edit", http.StatusInternalServerError)
			log.Error("Failed to record edit", "userID", req.UserID, "matchID", req.MatchID, "error", err)
			return
		}
		writeJSON(w, engine.DraftState(req.MatchID))
	}
}

func (s *Server) PredictStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "Missing userID", http.StatusBadRequest)
			return
		}
		engine, ok := s.sessions.get(userID)
		if !ok {
			http.Error(w, "No session for user", http.StatusNotFound)
			return
		}
		if matchID := r.URL.Query().Get("matchID"); matchID != "" {
			writeJSON(w, engine.DraftState(matchID))
			return
		}
		writeJSON(w, engine.DraftSnapshots())
	}
}

// SessionHandler returns the user's full session view, creating and loading
// the session engine on first contact.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "Missing userID", http.StatusBadRequest)
			return
		}
		engine, err := s.engineFor(userID)
		if err != nil {
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			log.Error("Failed to load session", "userID", userID, "error", err)
			return
		}
		writeJSON(w, engine.Snapshot())
	}
}

func (s *Server) SessionCloseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "Missing userID", http.StatusBadRequest)
			return
		}
		s.sessions.drop(userID)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Session closed")
	}
}

// EventsHandler receives change-feed events via pub/sub push and fans them
// out to every live session engine. Delivery is at-least-once; the engines
// are idempotent under redelivery.
func (s *Server) EventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		var pubsubMsg struct {
			Message struct {
				Data string `json:"data"` // base64-encoded message payload
			} `json:"message"`
		}
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal push envelope", "error", err)
			http.Error(w, "Invalid push envelope", http.StatusBadRequest)
			return
		}

		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		ev, err := feed.Decode(rawData)
		if err != nil {
			log.Error("Failed to decode change event", "error", err)
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}

		s.sessions.each(func(e *syncer.Engine) {
			e.HandleEvent(ev)
		})
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var match contest.Match
		if err := json.NewDecoder(r.Body).Decode(&match); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if match.HomeTeam == "" || match.AwayTeam == "" || match.KickoffAt == 0 {
			http.Error(w, "Missing home_team, away_team or kickoff_at", http.StatusBadRequest)
			return
		}
		if err := s.Store.CreateMatch(&match); err != nil {
			http.Error(w, "Failed to create match", http.StatusInternalServerError)
			log.Error("Failed to create match", "error", err)
			return
		}
		s.publishMatch(&match, feed.ActionUpsert)
		writeJSON(w, match)
	}
}

func (s *Server) UpdateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var match contest.Match
		if err := json.NewDecoder(r.Body).Decode(&match); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if match.ID == "" {
			http.Error(w, "Missing match id", http.StatusBadRequest)
			return
		}
		if err := s.Store.UpdateMatch(&match); err != nil {
			if errors.Is(err, league.ErrMatchNotFound) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to update match", http.StatusInternalServerError)
			log.Error("Failed to update match", "matchID", match.ID, "error", err)
			return
		}
		s.publishMatch(&match, feed.ActionUpsert)
		writeJSON(w, match)
	}
}

func (s *Server) DeleteMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "Missing matchID", http.StatusBadRequest)
			return
		}
		if err := s.Store.DeleteMatch(matchID); err != nil {
			if errors.Is(err, league.ErrMatchNotFound) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete match", http.StatusInternalServerError)
			log.Error("Failed to delete match", "matchID", matchID, "error", err)
			return
		}
		if err := s.Publisher.Publish(feed.Event{Entity: feed.EntityMatch, Action: feed.ActionDelete, ID: matchID}); err != nil {
			log.Error("Failed to publish match delete", "matchID", matchID, "error", err)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Deleted match %s", matchID)
	}
}

// RecordResultHandler records a final score and drives settlement through
// the trigger. A dry run stops before touching the store.
func (s *Server) RecordResultHandler() http.HandlerFunc {
	type request struct {
		MatchID string `json:"match_id"`
		Home    *int   `json:"home"`
		Away    *int   `json:"away"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.MatchID == "" || req.Home == nil || req.Away == nil || *req.Home < 0 || *req.Away < 0 {
			http.Error(w, "Missing match_id or scores", http.StatusBadRequest)
			return
		}
		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would record result and settle", "matchID", req.MatchID, "home", *req.Home, "away", *req.Away)
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Dry run, nothing recorded")
			return
		}

		err := s.Trigger.RecordResult(r.Context(), req.MatchID, *req.Home, *req.Away)
		if errors.Is(err, league.ErrMatchNotFound) {
			http.Error(w, "Match not found", http.StatusNotFound)
			return
		}
		if err != nil {
			// The score is recorded; only settlement is outstanding.
			http.Error(w, "Result recorded but settlement failed, retry via /admin/match/resettle", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Result recorded and settled for match %s", req.MatchID)
	}
}

func (s *Server) ResettleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "Missing matchID", http.StatusBadRequest)
			return
		}
		if err := s.Trigger.Resettle(r.Context(), matchID); err != nil {
			if errors.Is(err, league.ErrMatchNotFound) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Settlement failed", http.StatusBadGateway)
			log.Error("Resettle failed", "matchID", matchID, "error", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Match %s settled", matchID)
	}
}

// SettingsHandler reads (GET) or updates (POST) the global feature flags.
// Every update is fanned out on the change feed so live sessions recompute
// their lock instants.
func (s *Server) SettingsHandler() http.HandlerFunc {
	type request struct {
		Name    string `json:"name"`
		Enabled *bool  `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			flags, err := s.Store.GetFlags()
			if err != nil {
				http.Error(w, "Failed to get settings", http.StatusInternalServerError)
				return
			}
			writeJSON(w, flags)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Enabled == nil {
			http.Error(w, "Missing name or enabled", http.StatusBadRequest)
			return
		}
		if err := s.Store.SetFlag(req.Name, *req.Enabled); err != nil {
			http.Error(w, "Unknown setting", http.StatusBadRequest)
			log.Error("Failed to set flag", "name", req.Name, "error", err)
			return
		}

		flags, err := s.Store.GetFlags()
		if err != nil {
			http.Error(w, "Failed to reload settings", http.StatusInternalServerError)
			return
		}
		if err := s.Publisher.Publish(feed.Event{Entity: feed.EntitySettings, Action: feed.ActionUpsert, Flags: &flags}); err != nil {
			log.Error("Failed to publish settings change", "error", err)
		}
		writeJSON(w, flags)
	}
}

func (s *Server) ResetPointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Store.ResetStandings(); err != nil {
			http.Error(w, "Failed to reset standings", http.StatusInternalServerError)
			log.Error("Failed to reset standings", "error", err)
			return
		}
		if err := s.Publisher.Publish(feed.Event{Entity: feed.EntityStanding, Action: feed.ActionUpsert}); err != nil {
			log.Error("Failed to publish standings change", "error", err)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "All standings reset")
	}
}

func (s *Server) engineFor(userID string) (*syncer.Engine, error) {
	return s.sessions.getOrCreate(userID, func() (*syncer.Engine, error) {
		opts := []syncer.Option{}
		if s.Cfg.DraftDebounce > 0 {
			opts = append(opts, syncer.WithDebounce(s.Cfg.DraftDebounce))
		}
		if s.Cfg.CommitTimeout > 0 {
			opts = append(opts, syncer.WithCommitTimeout(s.Cfg.CommitTimeout))
		}
		e := syncer.NewEngine(userID, s.Store, s.Publisher, s.Metrics, opts...)
		if err := e.Load(); err != nil {
			e.Close()
			return nil, err
		}
		return e, nil
	})
}

func (s *Server) publishMatch(match *contest.Match, action feed.Action) {
	if err := s.Publisher.Publish(feed.Event{Entity: feed.EntityMatch, Action: action, ID: match.ID, Match: match}); err != nil {
		log.Error("Failed to publish match change", "matchID", match.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}
