package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTelegramSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottok/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", zerolog.Nop())
	tg.baseURL = srv.URL
	if err := tg.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if got["text"] != "hello" || got["chat_id"] != "42" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %v", got["parse_mode"])
	}
}

func TestTelegramTruncatesLongMessages(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		sent, _ = body["text"].(string)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", zerolog.Nop())
	tg.baseURL = srv.URL
	if err := tg.SendMessage(context.Background(), strings.Repeat("a", 5000)); err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(sent)); n > telegramMaxLength {
		t.Errorf("sent message is %d chars, limit %d", n, telegramMaxLength)
	}
	if !strings.HasSuffix(sent, telegramTruncNotice) {
		t.Errorf("truncated message missing notice")
	}
}

func TestTelegramTruncatedCountsRunes(t *testing.T) {
	tg := NewTelegram("tok", "42", zerolog.Nop())

	multibyte := strings.Repeat("я", 3000) // 6000 bytes, 3000 runes
	if tg.Truncated(multibyte) {
		t.Error("3000-rune text is within the limit regardless of byte length")
	}
	if !tg.Truncated(strings.Repeat("я", telegramMaxLength+1)) {
		t.Error("text over the rune limit must report as truncated")
	}
	if tg.Truncated(strings.Repeat("a", telegramMaxLength)) {
		t.Error("text exactly at the limit passes through untouched")
	}
}

func TestTelegramErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("tok", "42", zerolog.Nop())
	tg.baseURL = srv.URL
	err := tg.SendMessage(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Errorf("want status error, got %v", err)
	}
}

func TestTelegramMissingConfig(t *testing.T) {
	tg := NewTelegram("", "", zerolog.Nop())
	if err := tg.SendMessage(context.Background(), "x"); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestTelegramSendDocument(t *testing.T) {
	var gotName, gotCaption, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		gotCaption = r.FormValue("caption")
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		gotName = hdr.Filename
		data, _ := io.ReadAll(f)
		gotContent = string(data)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "report.md")
	if err := os.WriteFile(path, []byte("# Report"), 0o644); err != nil {
		t.Fatal(err)
	}

	tg := NewTelegram("tok", "42", zerolog.Nop())
	tg.baseURL = srv.URL
	if err := tg.SendDocument(context.Background(), path, "daily"); err != nil {
		t.Fatal(err)
	}
	if gotName != "report.md" || gotCaption != "daily" || gotContent != "# Report" {
		t.Errorf("got name=%q caption=%q content=%q", gotName, gotCaption, gotContent)
	}
}

func TestZulipPostMessage(t *testing.T) {
	var form map[string][]string
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, _ = r.BasicAuth()
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer srv.Close()

	z := NewZulip(srv.URL, "bot@example.com", "key", "general", "Daily report", zerolog.Nop())
	long := strings.Repeat("b", 6000)
	if err := z.PostMessage(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if user != "bot@example.com" || pass != "key" {
		t.Errorf("basic auth = %s:%s", user, pass)
	}
	if got := form["content"]; len(got) != 1 || got[0] != long {
		t.Error("zulip content should go out untruncated")
	}
	if form["type"][0] != "stream" || form["to"][0] != "general" || form["topic"][0] != "Daily report" {
		t.Errorf("unexpected form: %+v", form)
	}
}

func TestZulipErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"result":"error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	z := NewZulip(srv.URL, "bot@example.com", "bad", "general", "t", zerolog.Nop())
	err := z.PostMessage(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Errorf("want status error, got %v", err)
	}
}
