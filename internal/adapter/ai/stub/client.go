// Package stub provides a fast, deterministic AI client for local development
// without provider credentials.
package stub

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Client is a deterministic AIClient. It inspects the system prompt to decide
// which stage is calling and answers with a well-formed payload for it.
type Client struct{}

// New constructs a stub client.
func New() *Client { return &Client{} }

// ChatText returns a canned response matching the calling stage's schema.
func (c *Client) ChatText(_ context.Context, systemPrompt, _ string, _ int) (string, error) {
	// Simulate a tiny bit of processing latency to resemble real work
	time.Sleep(50 * time.Millisecond)
	switch {
	case strings.Contains(systemPrompt, "resume parser"):
		payload := map[string]any{
			"name":   "Dev Candidate",
			"email":  "dev@example.com",
			"skills": []string{"Go", "PostgreSQL", "Docker"},
			"experience": []map[string]any{
				{"title": "Backend Engineer", "duration": "2y", "description": []string{"Built APIs"}},
			},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	case strings.Contains(systemPrompt, "technical examiner"):
		payload := map[string]any{
			"questions": []map[string]string{
				{"id": "q1", "text": "Explain goroutine scheduling.", "ideal_answer": "M:N scheduling over OS threads."},
				{"id": "q2", "text": "How do you handle DB migrations?", "ideal_answer": "Versioned, forward-only migrations."},
				{"id": "q3", "text": "Describe graceful shutdown.", "ideal_answer": "Stop accepting, drain, then close."},
			},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	case strings.Contains(systemPrompt, "answer grader"):
		return `{"score": 7, "feedback": "Covers the main points, missing depth on trade-offs."}`, nil
	case strings.Contains(systemPrompt, "project analyst"):
		payload := map[string]any{
			"purpose":           "Demo service",
			"key_features":      []string{"REST API"},
			"technologies_used": []string{"Go"},
		}
		b, _ := json.Marshal(payload)
		return string(b), nil
	case strings.Contains(systemPrompt, "recruiter"):
		return "The candidate's backend experience matches the posting well.", nil
	default:
		return "82", nil
	}
}
