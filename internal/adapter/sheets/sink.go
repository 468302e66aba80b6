// Package sheets mirrors screening rows to a spreadsheet webhook.
//
// The mirror is a best-effort write path: failures are logged and counted,
// never propagated into the pipeline.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
)

// Sink posts append-row payloads to a configured webhook.
type Sink struct {
	webhookURL string
	hc         *http.Client
}

// New constructs a Sink. An empty webhook URL yields a disabled sink that
// silently accepts rows.
func New(webhookURL string) *Sink {
	return &Sink{
		webhookURL: webhookURL,
		hc:         &http.Client{Timeout: 10 * time.Second},
	}
}

type appendRowPayload struct {
	Sheet  string   `json:"sheet"`
	Values []string `json:"values"`
}

// AppendRow posts one row. The returned error is informational only; callers
// log it and continue.
func (s *Sink) AppendRow(ctx context.Context, sheet string, values []string) error {
	if s.webhookURL == "" {
		return nil
	}
	b, _ := json.Marshal(appendRowPayload{Sheet: sheet, Values: values})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return s.fail(sheet, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.hc.Do(req)
	if err != nil {
		return s.fail(sheet, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.fail(sheet, fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func (s *Sink) fail(sheet string, err error) error {
	observability.SheetAppendFailures.Inc()
	slog.Warn("sheet append failed",
		slog.String("sheet", sheet),
		slog.Any("error", err))
	return fmt.Errorf("op=sheets.append sheet=%s: %w", sheet, err)
}
