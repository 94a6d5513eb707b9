package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/config"
	"github.com/geacyber/cyberbot/internal/tools"
)

var showDefinitions bool

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Inspect the hosted assistant configuration",
	Long: `Fetch the configured assistant and compare its declared functions with
the ones this build can execute. With --definitions, print the function
definitions and instructions to configure the assistant with instead.`,
	Args: cobra.NoArgs,
	RunE: runAssistant,
}

func init() {
	assistantCmd.Flags().BoolVar(&showDefinitions, "definitions", false, "Print the function definitions and instructions as JSON")
	rootCmd.AddCommand(assistantCmd)
}

func runAssistant(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	defs := tools.AssistantTools(cfg.OpenAI.AuditTool)

	if showDefinitions {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"instructions": tools.Instructions,
			"tools":        defs,
		})
	}

	if !cfg.AssistantConfigured() {
		return fmt.Errorf("OPENAI_ASSISTANT_ID and OPENAI_API_KEY must be set")
	}

	local := make([]string, len(defs))
	for i, d := range defs {
		local[i] = d.Function.Name
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	info, err := assistant.Describe(ctx, assistant.NewClient(cfg.OpenAI), cfg.OpenAI.AssistantID, local)
	if err != nil {
		return fmt.Errorf("fetching assistant: %w", err)
	}

	fmt.Printf("Assistant:  %s\n", info.ID)
	fmt.Printf("Name:       %s\n", info.Name)
	fmt.Printf("Model:      %s\n", info.Model)
	fmt.Printf("Functions:  %s\n", strings.Join(info.Functions, ", "))
	if len(info.Missing) > 0 {
		fmt.Printf("\033[31mMissing:\033[0m    %s (run with --definitions to get their schemas)\n", strings.Join(info.Missing, ", "))
	}
	if len(info.Undeclared) > 0 {
		fmt.Printf("\033[33mNo handler:\033[0m %s (calls will return an unknown-function error)\n", strings.Join(info.Undeclared, ", "))
	}
	if info.Instructions != tools.Instructions {
		fmt.Println("Instructions differ from the bundled prompt.")
	}
	return nil
}
