package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(resetPointsCmd)
	rootCmd.AddCommand(metricsCmd)

	predictCmd.Flags().StringVar(&predictUser, "user", "", "User ID making the prediction")
	predictCmd.MarkFlagRequired("user")
	sessionCmd.Flags().StringVar(&predictUser, "user", "", "User ID of the session")
	sessionCmd.MarkFlagRequired("user")
	settingsCmd.Flags().BoolVar(&settingEnabled, "enabled", true, "Whether the setting should be enabled")
}

var (
	predictUser    string
	settingEnabled bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List all matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Show the ranked leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/standings")
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <matchID> <home> <away>",
	Short: "Record a score prediction for a match",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/predict", map[string]string{
			"user_id":  predictUser,
			"match_id": args[0],
			"home":     args[1],
			"away":     args[2],
		})
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the session view for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/session?userID=" + url.QueryEscape(predictUser))
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <matchID> <home> <away>",
	Short: "Record a final score and trigger settlement",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var home, away int
		if _, err := fmt.Sscanf(args[1]+" "+args[2], "%d %d", &home, &away); err != nil {
			return fmt.Errorf("scores must be whole numbers: %w", err)
		}
		return performPostRequest("/admin/match/result", map[string]any{
			"match_id": args[0],
			"home":     home,
			"away":     away,
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings <name>",
	Short: "Toggle a feature flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/admin/settings", map[string]any{
			"name":    args[0],
			"enabled": settingEnabled,
		})
	},
}

var resetPointsCmd = &cobra.Command{
	Use:   "reset-points",
	Short: "Reset every user's points and tie-break counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/admin/reset-points", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
