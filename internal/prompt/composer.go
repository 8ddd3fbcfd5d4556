package prompt

import (
	"fmt"
	"strings"

	"github.com/luaforge/script-platform/internal/model"
)

const (
	turnDirective = "Please provide a helpful response. If generating code, include ONLY the Lua code with comments. No markdown formatting or explanations outside the code."

	oneShotDirective = `Please generate a complete, well-documented Roblox Lua script that fulfills the user's request. Use the reference files as guidance if provided. Include comments explaining the code logic.

IMPORTANT: Return ONLY the Lua code with comments. Do not include any markdown formatting, explanations outside the code, or code block markers. Just pure Lua code that can be directly copied and used.`
)

// TurnContext holds everything the composer needs for one conversation
// turn. All fields are already validated by the caller.
type TurnContext struct {
	Environment model.Environment
	History     []model.Message
	Feedback    []model.ErrorFeedback
	Attachments []model.Attachment
	UserText    string
}

// ComposeTurn assembles the final prompt for a conversation turn in
// fixed order: system template, transcript, error learnings, reference
// files, current request, output directive. The single newlines after
// the transcript and learning blocks are part of the wire format.
func ComposeTurn(tc TurnContext) string {
	var b strings.Builder
	b.WriteString(SystemTemplate(tc.Environment))
	b.WriteString("\n\n## Conversation History:\n")
	b.WriteString(TranscriptBlock(tc.History))
	b.WriteString("\n")
	b.WriteString(ErrorLearningBlock(tc.Feedback))
	b.WriteString("\n")
	b.WriteString(AttachmentBlock(tc.Attachments, "Notes"))
	b.WriteString("\n\n## Current Request:\n")
	b.WriteString(tc.UserText)
	b.WriteString("\n\n")
	b.WriteString(turnDirective)
	return b.String()
}

// ComposeOneShot assembles the prompt for the standalone generation
// path, which carries no history or error learnings.
func ComposeOneShot(env model.Environment, attachments []model.Attachment, userText string) string {
	var b strings.Builder
	b.WriteString(SystemTemplate(env))
	b.WriteString("\n\n## User Request:\n")
	b.WriteString(userText)
	b.WriteString("\n")
	b.WriteString(AttachmentBlock(attachments, "Developer Notes"))
	b.WriteString("\n\n")
	b.WriteString(oneShotDirective)
	return b.String()
}

// AttachmentBlock renders reference files as labeled fenced sections.
// Empty input yields an empty string.
func AttachmentBlock(attachments []model.Attachment, notesLabel string) string {
	if len(attachments) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n## Reference Files:\n\n")
	for i, a := range attachments {
		b.WriteString(fmt.Sprintf("### File %d: %s\n", i+1, a.Filename))
		if a.Notes != "" {
			b.WriteString(fmt.Sprintf("**%s:** %s\n\n", notesLabel, a.Notes))
		}
		b.WriteString(fmt.Sprintf("```lua\n%s\n```\n\n", a.Content))
	}
	return b.String()
}
