package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatThread string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the assistant a question",
	Long: `Send a message to the assistant and print its reply. Without a message,
start an interactive session that keeps one conversation until EOF.

Example:
  cyberbot chat "what is the code quality of https://github.com/owner/repo?"
  cyberbot chat "and the security hotspots?" --thread thread_abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatThread, "thread", "t", "", "Continue an existing conversation")
	rootCmd.AddCommand(chatCmd)
}

type chatReply struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"threadId"`
}

func sendChat(message, threadID string) (*chatReply, error) {
	var out chatReply
	err := postJSON("/chat", map[string]string{"message": message, "threadId": threadID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		reply, err := sendChat(args[0], chatThread)
		if err != nil {
			return err
		}
		fmt.Println(reply.Reply)
		fmt.Fprintf(os.Stderr, "\nthread: %s\n", reply.ThreadID)
		return nil
	}

	threadID := chatThread
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		reply, err := sendChat(line, threadID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\033[31m[error]\033[0m %v\n", err)
		} else {
			threadID = reply.ThreadID
			fmt.Printf("\n%s\n\n", reply.Reply)
		}
		fmt.Print("> ")
	}
	if threadID != "" {
		fmt.Fprintf(os.Stderr, "\nthread: %s\n", threadID)
	}
	return scanner.Err()
}
