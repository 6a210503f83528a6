package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host string
)

var rootCmd = &cobra.Command{
	Use:   "fiesta-cli",
	Short: "A CLI to interact with the crispy-fiesta server",
	Long: `A command-line interface for making requests to the various endpoints
of the crispy-fiesta prediction contest application.`,
	Example: `  fiesta-cli matches
  fiesta-cli predict 8a6f02d3 2 1 --user user-42
  fiesta-cli session --user user-42
  fiesta-cli result 8a6f02d3 1 0
  fiesta-cli settings special_lock_times --enabled`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
