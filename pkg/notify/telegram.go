package notify

import (
	"log"
	"net/http"
	"net/url"
	"time"
)

// Telegram sends messages to a chat via the Bot API. Sends are best-effort:
// failures are logged and dropped.
type Telegram struct {
	BaseURL    string // override for tests; defaults to api.telegram.org
	Token      string
	ChatID     string
	HTTPClient *http.Client
}

// NewTelegram builds a Telegram notifier. Returns Nop when unconfigured so
// callers never have to nil-check.
func NewTelegram(token, chatID string) Notifier {
	if token == "" || chatID == "" {
		log.Println("telegram not configured; notifications disabled")
		return Nop{}
	}
	return &Telegram{
		BaseURL:    "https://api.telegram.org",
		Token:      token,
		ChatID:     chatID,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the message in a background goroutine.
func (t *Telegram) Notify(text string) {
	go func() {
		endpoint := t.BaseURL + "/bot" + t.Token + "/sendMessage"
		form := url.Values{}
		form.Set("chat_id", t.ChatID)
		form.Set("text", text)

		res, err := t.HTTPClient.PostForm(endpoint, form)
		if err != nil {
			log.Printf("telegram send failed: %v", err)
			return
		}
		defer res.Body.Close()
		if res.StatusCode >= 300 {
			log.Printf("telegram send status %d", res.StatusCode)
		}
	}()
}
