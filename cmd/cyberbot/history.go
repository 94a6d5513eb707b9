package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyFollow bool

var historyCmd = &cobra.Command{
	Use:   "history [thread-id]",
	Short: "Show the recorded turns of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&historyFollow, "follow", "f", false, "Stream the conversation's events")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	id := args[0]

	if historyFollow {
		return streamEvents(id)
	}

	var turns []struct {
		Channel   string `json:"channel"`
		Message   string `json:"message"`
		Reply     string `json:"reply"`
		Outcome   string `json:"outcome"`
		Polls     int    `json:"polls"`
		ToolCalls int    `json:"toolCalls"`
		CreatedAt string `json:"createdAt"`
	}
	if err := getJSON("/chat/threads/"+id+"/turns", &turns); err != nil {
		return err
	}

	if len(turns) == 0 {
		fmt.Println("No turns recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCHANNEL\tOUTCOME\tTOOLS\tMESSAGE\tREPLY")
	for _, t := range turns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			t.CreatedAt, t.Channel, t.Outcome, t.ToolCalls, truncate(t.Message, 40), truncate(t.Reply, 60))
	}
	return w.Flush()
}

// streamEvents prints a thread's events until the server closes the stream.
func streamEvents(threadID string) error {
	req, _ := http.NewRequest("GET", serverURL+"/chat/threads/"+threadID+"/events", nil)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error (%d)", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var event struct {
			Type string `json:"type"`
			Data string `json:"data"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}

		switch event.Type {
		case "status", "run_created", "thread_created":
			fmt.Printf("\033[36m[%s]\033[0m %s\n", event.Type, event.Data)
		case "message":
			fmt.Printf("\033[1m> %s\033[0m\n", event.Data)
		case "tool_call":
			fmt.Printf("\033[33m[tool]\033[0m %s\n", event.Data)
		case "error":
			fmt.Fprintf(os.Stderr, "\033[31m[error]\033[0m %s\n", event.Data)
		case "reply":
			fmt.Printf("\n%s\n\n", event.Data)
		}
	}

	return scanner.Err()
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
