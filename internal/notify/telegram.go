package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers best-effort out-of-band messages. Failures are logged by
// callers, never propagated into business results.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier sends messages through the Telegram Bot API. It is the
// admin notification path only; the conversational shell owns its own bot.
type TelegramNotifier struct {
	token  string
	client *http.Client
	logger *slog.Logger
}

func NewTelegramNotifier(token string, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Notify posts one sendMessage call. A missing token turns it into a no-op
// so local development works without Telegram credentials.
func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	if n.token == "" {
		n.logger.Debug("telegram notifier not configured, dropping message", "chat_id", chatID)
		return nil
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Discard is a Notifier that drops everything. Used in tests and when no
// token is configured.
type Discard struct{}

func (Discard) Notify(context.Context, int64, string) error { return nil }
