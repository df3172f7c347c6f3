package domain

import (
	"fmt"
	"strings"
)

// Message is an immutable normalized email owned by the ingestion layer.
// Downstream components reference it, never mutate it.
type Message struct {
	ID         string   `json:"id"`
	Sender     string   `json:"from"`
	Recipients []string `json:"to"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Date       string   `json:"date"`
	Source     string   `json:"source,omitempty"`
}

// NormalizedText renders the canonical text representation that gets chunked
// and embedded: a small header block followed by the body.
func (m Message) NormalizedText() string {
	var b strings.Builder
	b.WriteString("From: ")
	b.WriteString(m.Sender)
	b.WriteString("\nTo: ")
	b.WriteString(strings.Join(m.Recipients, ", "))
	b.WriteString("\nSubject: ")
	b.WriteString(m.Subject)
	b.WriteString("\nDate: ")
	b.WriteString(m.Date)
	b.WriteString("\n\n")
	b.WriteString(m.Body)
	return b.String()
}

// Validate rejects malformed messages before they enter the pipeline.
func (m Message) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	if strings.TrimSpace(m.Subject) == "" && strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("message %q has neither subject nor body", m.ID)
	}
	return nil
}
