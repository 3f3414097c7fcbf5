package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/market-data-fetcher/internal/fetch"
	"github.com/kjannette/market-data-fetcher/internal/httputil"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

// Sender posts run summaries to a Slack or Discord webhook. One attempt per message.
type Sender struct {
	webhookURL string
	jobName    string
	httpClient *http.Client
}

func NewSender(webhookURL, jobName string) *Sender {
	if jobName == "" {
		jobName = "MarketDataFetcher"
	}
	return &Sender{
		webhookURL: webhookURL,
		jobName:    jobName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// Send posts msg. It is a no-op when no webhook is configured.
func (s *Sender) Send(ctx context.Context, msg string) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(s.formatPayload(fmt.Sprintf("[%s] %s", s.jobName, msg)))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := httputil.Do(ctx, s.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.jobName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.jobName,
	}
}

// RunSummary describes one run for the webhook: live count, defaults kept and where the file went.
func RunSummary(snap *models.Snapshot, outcomes []fetch.Outcome, path string) string {
	var live, fetchable int
	var kept []string
	for _, o := range outcomes {
		if o.Static {
			continue
		}
		fetchable++
		if o.Live() {
			live++
		} else {
			kept = append(kept, o.Name)
		}
	}

	msg := fmt.Sprintf("snapshot %s written to %s: live %d/%d, defaults %d", snap.LastUpdate, path, live, fetchable, len(kept))
	if len(kept) > 0 {
		msg += " (" + strings.Join(kept, ", ") + ")"
	}
	return msg
}

// FailureSummary describes a run that could not write its snapshot.
func FailureSummary(path string, err error) string {
	return fmt.Sprintf("snapshot NOT written to %s: %v", path, err)
}
