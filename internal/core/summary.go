package core

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = `You are an AI assistant that creates concise email summaries.

Generate a detailed 3-4 sentence summary that captures:
- The main purpose of the email
- Key information and important details
- Any action items or deadlines
- Relevant context

Respond with ONLY the summary text, no JSON, no formatting.`

// SummarySystemPrompt returns the instruction text sent to summary providers
func SummarySystemPrompt() string {
	return summarySystemPrompt
}

// SummaryUserPrompt renders the email part of a summary request
func SummaryUserPrompt(email *Email, body string) string {
	return fmt.Sprintf("Email Subject: %s\nEmail From: %s\nEmail Body: %s", email.Subject, email.From, body)
}

// FallbackSummary is used when no summary provider is reachable
func FallbackSummary(email *Email) string {
	sender := strings.TrimSpace(strings.SplitN(email.From, "<", 2)[0])

	body := email.Body
	runes := []rune(body)
	if len(runes) > 150 {
		body = string(runes[:150]) + "..."
	}
	return fmt.Sprintf("Email from %s about: %s. %s", sender, email.Subject, body)
}
