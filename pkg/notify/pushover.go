package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Pushover sends alerts via the Pushover REST API, a single form-encoded
// POST — grounded on original_source/pushover.cc's raw HTTP approach;
// no Pushover client library appears anywhere in the retrieval pack.
type Pushover struct {
	User   string
	APIKey string
	Client *http.Client
}

func NewPushover(user, apiKey string) *Pushover {
	return &Pushover{User: user, APIKey: apiKey, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *Pushover) Name() string { return "pushover" }

func (p *Pushover) Send(text string) error {
	resp, err := p.Client.PostForm("https://api.pushover.net/1/messages.json", url.Values{
		"token":   {p.APIKey},
		"user":    {p.User},
		"message": {text},
	})
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pushover returned status %d", resp.StatusCode)
	}
	return nil
}
