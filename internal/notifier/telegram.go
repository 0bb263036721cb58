package notifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

const (
	DefaultTelegramAPI     = "https://api.telegram.org"
	DefaultTelegramTimeout = 10 * time.Second
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken   string
	ChatID     string
	APIBaseURL string
	Client     *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// A zero timeout falls back to DefaultTelegramTimeout.
func NewTelegramNotifier(botToken, chatID, apiBaseURL, proxyURL string, timeout time.Duration) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if apiBaseURL == "" {
		apiBaseURL = DefaultTelegramAPI
	}
	if timeout <= 0 {
		timeout = DefaultTelegramTimeout
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts text to the configured chat as plain text. There is no retry;
// failures come back as *model.DeliveryError.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := sonic.Marshal(sendMessageRequest{ChatID: t.ChatID, Text: text})
	if err != nil {
		return &model.DeliveryError{Channel: t.Name(), Err: errors.Wrap(err, "marshal payload")}
	}

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBaseURL, t.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return &model.DeliveryError{Channel: t.Name(), Err: errors.Wrap(err, "create request")}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// The request URL embeds the token; keep it out of logs.
		return &model.DeliveryError{Channel: t.Name(), Err: errors.New(redact(err.Error(), t.BotToken))}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &model.DeliveryError{
			Channel:    t.Name(),
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("telegram API error: %s", strings.TrimSpace(string(respBody))),
		}
	}
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
