package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luaforge/script-platform/internal/model"
)

// MaxErrorLearnings caps how many past error reports are replayed into
// the prompt. The transcript itself is deliberately unbounded.
const MaxErrorLearnings = 5

// TranscriptBlock renders the conversation history: one line per
// non-system message in ascending timestamp order, with any reported
// error appended to its line, turns separated by a blank line.
func TranscriptBlock(messages []model.Message) string {
	ordered := make([]model.Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var lines []string
	for _, m := range ordered {
		if m.Role == model.RoleSystem {
			continue
		}
		label := "Assistant"
		if m.Role == model.RoleUser {
			label = "User"
		}
		line := fmt.Sprintf("%s: %s", label, m.Content)
		if m.Metadata.Errors != "" {
			line += fmt.Sprintf("\n[Error encountered: %s]", m.Metadata.Errors)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n\n")
}

// ErrorLearningBlock renders the most recent error reports, newest
// first, capped at MaxErrorLearnings, prefixed with a fixed instruction
// telling the model not to repeat them. Empty history yields an empty
// string.
func ErrorLearningBlock(feedback []model.ErrorFeedback) string {
	if len(feedback) == 0 {
		return ""
	}

	ordered := make([]model.ErrorFeedback, len(feedback))
	copy(ordered, feedback)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	if len(ordered) > MaxErrorLearnings {
		ordered = ordered[:MaxErrorLearnings]
	}

	var b strings.Builder
	b.WriteString("\n\n## Previous Errors and Learnings:\n")
	entries := make([]string, len(ordered))
	for i, e := range ordered {
		entries[i] = fmt.Sprintf("%d. Error: %s\n   Context: %s", i+1, e.ErrorText, e.Context)
	}
	b.WriteString(strings.Join(entries, "\n"))
	b.WriteString("\n\nLearn from these previous errors and avoid making the same mistakes.")
	return b.String()
}
