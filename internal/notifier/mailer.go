package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer posts a single email to the configured mail-sending endpoint.
// The endpoint is an RPC-style function: one JSON request, one ok/error
// response.
type Mailer struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewMailer 创建邮件客户端
func NewMailer(endpoint, apiKey, from string) *Mailer {
	return &Mailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Send delivers one email. Errors are returned to the dispatcher for
// retry bookkeeping; callers upstream never see them.
func (m *Mailer) Send(ctx context.Context, to []string, subject, html string) error {
	body, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to mail endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail endpoint returned %d: %s", resp.StatusCode, respBody)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("mail endpoint rejected send: %s", result.Error)
	}
	return nil
}
