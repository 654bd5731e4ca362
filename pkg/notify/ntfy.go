package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Ntfy posts to a self-hosted or public ntfy.sh topic. One POST per
// alert, optional bearer auth — same single-endpoint shape as Pushover.
type Ntfy struct {
	URL    string
	Topic  string
	Auth   string
	Client *http.Client
}

func NewNtfy(baseURL, topic, auth string) *Ntfy {
	return &Ntfy{URL: strings.TrimRight(baseURL, "/"), Topic: topic, Auth: auth, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *Ntfy) Name() string { return "ntfy" }

func (n *Ntfy) Send(text string) error {
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/%s", n.URL, n.Topic), strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("ntfy request build failed: %w", err)
	}
	if n.Auth != "" {
		req.Header.Set("Authorization", "Bearer "+n.Auth)
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
