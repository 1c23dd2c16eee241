package llmutils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens s to at most n runes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return strings.TrimSpace(reThink.ReplaceAllString(s, ""))
}

// ToolHint renders a short progress line for a round of tool calls,
// e.g. `Address.Validate("1030 Wien"), Serviceability.CheckAddress`.
func ToolHint(tcs []schema.ToolCall) string {
	parts := make([]string, 0, len(tcs))
	for _, tc := range tcs {
		firstVal := firstStringArg(tc.Arguments)
		if firstVal == "" {
			parts = append(parts, tc.Name)
			continue
		}
		if utf8.RuneCountInString(firstVal) > 40 {
			firstVal = string([]rune(firstVal)[:40]) + "…"
		}
		parts = append(parts, fmt.Sprintf("%s(%q)", tc.Name, firstVal))
	}
	return strings.Join(parts, ", ")
}

// firstStringArg picks the alphabetically first string argument so hints
// are stable across map iteration order.
func firstStringArg(args map[string]any) string {
	best := ""
	found := ""
	for k, v := range args {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if found == "" || k < best {
			best, found = k, s
		}
	}
	return found
}
