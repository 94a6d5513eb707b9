// Cyberbot
//
// A chat assistant that answers questions about code quality and web
// performance using SonarCloud and PageSpeed Insights.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	serverURL  string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "cyberbot",
	Short: "Cyberbot - code quality and web performance assistant",
	Long: `Cyberbot answers questions about code quality and web performance by
driving a hosted assistant backed by SonarCloud and PageSpeed Insights.

  cyberbot serve                                  Start the server
  cyberbot chat "how fast is https://example.com" Ask a question
  cyberbot repos                                  List analysable repositories
  cyberbot history <thread-id> --follow           Show and stream a conversation
  cyberbot assistant                              Inspect the hosted assistant`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CYBERBOT_SERVER", "http://localhost:7080"), "Cyberbot server URL")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./cyberbot.yaml or ~/cyberbot.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
