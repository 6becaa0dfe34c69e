package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	telegramAPI = "https://api.telegram.org"

	// Telegram rejects messages over 4096 chars; cap below that so the
	// truncation notice always fits.
	telegramMaxLength   = 4000
	telegramTruncNotice = "\n\n[Report truncated. Full version in the attached file.]"
)

// Telegram delivers the rendered report to a chat. Delivery is best-effort:
// callers log the returned error and move on.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewTelegram(token, chatID string, log zerolog.Logger) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Truncated reports whether SendMessage would have to cut the text. Callers
// use it to decide on a follow-up document upload with the full report.
func (t *Telegram) Truncated(text string) bool {
	return len([]rune(text)) > telegramMaxLength
}

// SendMessage posts the text to the chat, truncating to the platform limit.
func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	if t.Truncated(text) {
		runes := []rune(text)
		cut := telegramMaxLength - len([]rune(telegramTruncNotice))
		text = string(runes[:cut]) + telegramTruncNotice
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	body := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendDocument uploads a file to the chat with an optional caption.
func (t *Telegram) SendDocument(ctx context.Context, path, caption string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", t.chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendDocument", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendDocument status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}
