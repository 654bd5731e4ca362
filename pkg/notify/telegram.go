package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Telegram sends alerts via the Bot API's sendMessage endpoint.
type Telegram struct {
	ChatID string
	APIKey string
	Client *http.Client
}

func NewTelegram(chatID, apiKey string) *Telegram {
	return &Telegram{ChatID: chatID, APIKey: apiKey, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.APIKey)
	resp, err := t.Client.PostForm(endpoint, url.Values{
		"chat_id": {t.ChatID},
		"text":    {text},
	})
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}
