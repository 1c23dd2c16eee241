package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/internal/dependency"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/internal/session"
	"github.com/contactdesk/contactdesk/internal/shared/llmutils"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved conversation transcripts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <number|path>",
	Short: "Print one transcript (number as shown by 'sessions')",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd)
}

func transcriptStore() (*session.Store, error) {
	container, err := dependency.New(cfg)
	if err != nil {
		return nil, err
	}
	store, err := container.Transcripts()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("transcripts are disabled (transcripts.enabled: false)")
	}
	return store, nil
}

func runSessionsList(_ *cobra.Command, _ []string) error {
	store, err := transcriptStore()
	if err != nil {
		return err
	}
	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No transcripts in %s\n", store.Dir())
		return nil
	}
	printSessions(os.Stdout, entries)
	return nil
}

func printSessions(w io.Writer, entries []session.Entry) {
	for i, e := range entries {
		s := e.Summary
		fmt.Fprintf(w, "%3d  %-14s %-9s %3d turns  %s  %s\n",
			i+1, humanize.Time(s.StartTime), s.Status, s.UserTurns, s.Clock(), s.SessionID)
	}
}

func runSessionsShow(_ *cobra.Command, args []string) error {
	store, err := transcriptStore()
	if err != nil {
		return err
	}

	path := args[0]
	if n, convErr := strconv.Atoi(path); convErr == nil {
		entries, err := store.List()
		if err != nil {
			return err
		}
		if n < 1 || n > len(entries) {
			return fmt.Errorf("no transcript #%d (%d saved)", n, len(entries))
		}
		path = entries[n-1].Path
	}

	history, summary, err := store.Load(path)
	if err != nil {
		return err
	}
	printTranscript(os.Stdout, history, summary)
	return nil
}

// printTranscript renders a stored conversation the way the console showed
// it, with tool traffic indented under the assistant turn that caused it.
func printTranscript(w io.Writer, history schema.Messages, s agent.Summary) {
	fmt.Fprintf(w, "Session %s · %s · %s · started %s\n", s.SessionID, s.Status, s.Clock(), s.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%d user, %d assistant, %d tool turns\n",
		history.Count(schema.RoleUser), history.Count(schema.RoleAssistant), history.Count(schema.RoleTool))

	for _, m := range history.Messages {
		switch m.Role {
		case schema.RoleSystem:
			continue
		case schema.RoleUser:
			fmt.Fprintf(w, "\n👤 YOU: %s\n", m.Content)
		case schema.RoleAssistant:
			if m.HasToolCalls() {
				fmt.Fprintf(w, "  ↳ %s\n", llmutils.ToolHint(m.ToolCalls))
				continue
			}
			mark := "🤖 AI ASSISTANT"
			if m.IsError {
				mark = "❌ NOTICE"
			}
			fmt.Fprintf(w, "%s: %s\n", mark, m.Content)
		case schema.RoleTool:
			status := "ok"
			if m.IsError {
				status = "error"
			}
			fmt.Fprintf(w, "    %s [%s] %s\n", m.ToolName, status, llmutils.Truncate(m.Content, 160))
		}
	}
}
