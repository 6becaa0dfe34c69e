package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Zulip posts the full report to a stream topic. Zulip has no practical
// message size limit for our reports, so content goes out untruncated.
type Zulip struct {
	site   string
	email  string
	apiKey string
	stream string
	topic  string
	http   *http.Client
	log    zerolog.Logger
}

func NewZulip(site, email, apiKey, stream, topic string, log zerolog.Logger) *Zulip {
	return &Zulip{
		site:   strings.TrimRight(site, "/"),
		email:  email,
		apiKey: apiKey,
		stream: stream,
		topic:  topic,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// PostMessage sends the content to the configured stream and topic.
func (z *Zulip) PostMessage(ctx context.Context, content string) error {
	if z.site == "" || z.email == "" || z.apiKey == "" {
		return fmt.Errorf("zulip: missing site, email or api key")
	}
	form := url.Values{
		"type":    {"stream"},
		"to":      {z.stream},
		"topic":   {z.topic},
		"content": {content},
	}
	endpoint := z.site + "/api/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(z.email, z.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := z.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("zulip post status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}
