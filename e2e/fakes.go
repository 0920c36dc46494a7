package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// fakeTelegram serves the few Bot API methods the relay calls.
type fakeTelegram struct {
	*httptest.Server
	mu      sync.Mutex
	pending []map[string]any
	sent    []string
	nextID  int
}

func newFakeTelegram() *fakeTelegram {
	f := &fakeTelegram{nextID: 1}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeTelegram) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Relay","username":"relay_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		f.writeUpdates(w)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm.Get("text"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":99,"date":0,"chat":{"id":1001,"type":"private"}}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

// writeUpdates hands out queued updates, or an empty batch after a short long-poll.
func (f *fakeTelegram) writeUpdates(w http.ResponseWriter) {
	deadline := time.Now().Add(50 * time.Millisecond)
	for {
		f.mu.Lock()
		batch := f.pending
		f.pending = nil
		f.mu.Unlock()
		if len(batch) > 0 || time.Now().After(deadline) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": orEmpty(batch)})
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Say queues a text message as if a customer had typed it.
func (f *fakeTelegram) Say(username, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, map[string]any{
		"update_id": f.nextID,
		"message": map[string]any{
			"message_id": f.nextID,
			"from":       map[string]any{"id": 5, "is_bot": false, "first_name": username, "username": username},
			"chat":       map[string]any{"id": 1001, "type": "private"},
			"date":       time.Now().Unix(),
			"text":       text,
		},
	})
	f.nextID++
}

func (f *fakeTelegram) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeSupabase answers the PostgREST calls of the relay from fixed data.
type fakeSupabase struct {
	*httptest.Server
	mu       sync.Mutex
	inserted []map[string]any
	products []map[string]any
}

func newFakeSupabase(products []map[string]any) *fakeSupabase {
	f := &fakeSupabase{products: products}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeSupabase) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodHead:
		w.Header().Set("Content-Range", fmt.Sprintf("*/%d", len(f.products)))
	case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/messages":
		var row map[string]any
		_ = json.NewDecoder(r.Body).Decode(&row)
		f.mu.Lock()
		f.inserted = append(f.inserted, row)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/products":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(orEmpty(f.products))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSupabase) Inserted() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.inserted...)
}

func orEmpty(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return items
}
